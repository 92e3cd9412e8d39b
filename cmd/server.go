package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacokyle01/chesseval/engine"
	"github.com/jacokyle01/chesseval/primaryserver"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the analysis queue over HTTP",
	Long: `Runs the HTTP server that workers lease jobs from.

Positions and whole games are queued with POST /analyze and
POST /requestForAnalysis; POST /eval analyzes a position right away
with a local engine.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := serverConfigFromViper()

		var analyzer primaryserver.Analyzer
		if viper.GetBool("local-eval") {
			engineCfg, err := engineConfigFromViper()
			if err != nil {
				return err
			}
			analyzer = engine.NewAnalyzer(engineCfg)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.WithFields(log.Fields{
			"queue-size": cfg.QueueSize,
			"result-ttl": cfg.ResultTTL,
			"lease-ttl":  cfg.LeaseTTL,
			"max-leases": cfg.MaxLeases,
			"max-depth":  cfg.Limits.MaxDepth,
			"max-time":   cfg.Limits.MaxTime,
			"local-eval": analyzer != nil,
		}).Info("Got config")

		srv := primaryserver.NewServer(cfg, analyzer)
		return srv.Serve(ctx, fmt.Sprintf(":%d", viper.GetInt("port")))
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().Int("port", 8080, "Port to listen on")
	serverCmd.Flags().Int("queue-size", primaryserver.DefaultQueueSize, "Maximum number of queued jobs")
	serverCmd.Flags().Duration("result-ttl", primaryserver.DefaultResultTTL, "How long results are kept")
	serverCmd.Flags().Duration("lease-ttl", primaryserver.DefaultLeaseTTL, "How long a worker may hold a job before it is handed out again")
	serverCmd.Flags().Int("max-leases", primaryserver.DefaultMaxLeases, "How many times a job is handed out before it fails")
	serverCmd.Flags().Int("max-depth", 30, "Largest depth a job may ask for")
	serverCmd.Flags().Duration("max-time", time.Minute, "Longest search time a job may ask for")
	serverCmd.Flags().Bool("local-eval", true, "Serve POST /eval with a local engine")
}
