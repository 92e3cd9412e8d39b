package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacokyle01/chesseval/engine"
	"github.com/jacokyle01/chesseval/models"
	"github.com/jacokyle01/chesseval/report"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var evalCmd = &cobra.Command{
	Use:   "eval <fen>",
	Short: "Evaluate a single position",
	Long: `Analyzes one position and prints the evaluation from White's point
of view, the best move and search statistics.

Without --depth or --time the search runs to depth 15.`,
	Example: `  chesseval eval "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1" --depth 20
  chesseval eval "r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 2 3" --time 2s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fen := args[0]
		if _, err := report.Parse(fen); err != nil {
			return err
		}

		budget, err := evalBudget(viper.GetInt("depth"), viper.GetDuration("time"))
		if err != nil {
			return err
		}

		engineCfg, err := engineConfigFromViper()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		snap, analyzeErr := engine.NewAnalyzer(engineCfg).Analyze(ctx, engine.Request{Position: fen, Budget: budget})
		if analyzeErr != nil && !snap.Partial {
			return analyzeErr
		}

		rep, err := report.Build(fen, snap)
		if err != nil {
			return err
		}

		if viper.GetBool("json") {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(struct {
				Result models.Result `json:"result"`
				Report report.Report `json:"report"`
			}{models.NewResult("", snap), rep}); err != nil {
				return err
			}
		} else {
			fmt.Fprint(cmd.OutOrStdout(), rep.String())
		}

		if analyzeErr != nil {
			log.WithError(analyzeErr).Warn("Analysis did not complete")
		}
		return analyzeErr
	},
}

// evalBudget picks the budget from the --depth and --time flags, which are
// mutually exclusive.
func evalBudget(depth int, d time.Duration) (engine.Budget, error) {
	switch {
	case depth != 0 && d != 0:
		return engine.Budget{}, errors.New("--depth and --time cannot be used together")
	case d != 0:
		b := engine.Duration(d)
		return b, b.Validate()
	case depth != 0:
		b := engine.Depth(depth)
		return b, b.Validate()
	default:
		return engine.Depth(models.DefaultDepth), nil
	}
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().Int("depth", 0, "Search to this depth")
	evalCmd.Flags().Duration("time", 0, "Search for this long, e.g. 2s")
	evalCmd.Flags().Bool("json", false, "Print the result as JSON")
	evalCmd.MarkFlagsMutuallyExclusive("depth", "time")
}
