package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacokyle01/chesseval/engine"
	"github.com/jacokyle01/chesseval/worker"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Work through the server's analysis queue",
	Long: `Leases jobs from a chesseval server, analyzes each one with a fresh
engine process and posts the results back.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := workerConfigFromViper()
		if cfg.ServerURL == "" {
			return errors.New("--server is required")
		}

		engineCfg, err := engineConfigFromViper()
		if err != nil {
			return err
		}
		analyzer := engine.NewAnalyzer(engineCfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// fail early rather than lease jobs nothing can analyze
		info, err := analyzer.Identify(ctx)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"engine": info.Path,
			"name":   info.Name,
			"author": info.Author,
		}).Info("Found engine")

		worker.NewClient(cfg, analyzer).WorkLoop(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().String("server", "http://localhost:8080", "URL of the chesseval server")
	workerCmd.Flags().String("name", "", "Name reported with results (defaults to the host name)")
	workerCmd.Flags().Int("slots", worker.DefaultSlots, "Jobs analyzed at once")
	workerCmd.Flags().Duration("poll-interval", worker.DefaultPollInterval, "Pause after the server had no work")

	cobra.CheckErr(viper.BindEnv("server", "CHESSEVAL_SERVER", "SERVER_URL"))
}
