package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jacokyle01/chesseval/logging"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chesseval",
	Short: "Analyze chess positions with a UCI engine",
	Long: `chesseval drives a UCI chess engine such as stockfish.

It can evaluate a single position, serve an analysis queue over HTTP, or
work through that queue with local engines.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().String("log", "info", "Set the log level. Valid values: panic, fatal, error, warn, info, debug, trace")
	rootCmd.PersistentFlags().String("log-format", "text", "Log output format: text or json")

	addEngineFlags(rootCmd)

	// Bind these to viper
	err := viper.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		log.WithError(err).Fatal("Could not bind flags to viper")
	}

	// Run this before we do anything to set up the loglevel
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("could not bind `%s` flags: %w", cmd.Name(), err)
		}

		if err := logging.Configure(log.StandardLogger(), viper.GetString("log"), viper.GetString("log-format")); err != nil {
			log.SetLevel(log.InfoLevel)
			log.WithError(err).Error("Could not configure logging, using defaults")
		}

		if f := viper.ConfigFileUsed(); f != "" {
			log.WithField("file", f).Debug("Using config file")
		}
		return nil
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	replacer := strings.NewReplacer("-", "_")

	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix("CHESSEVAL")
	viper.AutomaticEnv() // read in environment variables that match

	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		log.WithError(err).WithField("file", cfgFile).Fatal("Could not read config file")
	}
}
