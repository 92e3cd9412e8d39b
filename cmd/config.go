package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/jacokyle01/chesseval/engine"
	"github.com/jacokyle01/chesseval/models"
	"github.com/jacokyle01/chesseval/primaryserver"
	"github.com/jacokyle01/chesseval/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func addEngineFlags(cmd *cobra.Command) {
	d := engine.DefaultConfig()

	cmd.PersistentFlags().StringSlice("engine", nil, "Engine executables to try in order (defaults to the usual stockfish locations)")
	cmd.PersistentFlags().StringSlice("engine-option", nil, "Extra UCI options as Name=Value, may be repeated")
	cmd.PersistentFlags().Int("threads", d.Threads, "Engine search threads")
	cmd.PersistentFlags().Int("hash", d.HashMB, "Engine hash table size in MB")
	cmd.PersistentFlags().Duration("handshake-timeout", d.HandshakeTimeout, "How long to wait for the engine to answer uci")
	cmd.PersistentFlags().Duration("hard-timeout", d.HardTimeout, "Ceiling for a whole analysis")
	cmd.PersistentFlags().Duration("stop-grace", d.StopGrace, "How long a timed search waits for bestmove after stop")
	cmd.PersistentFlags().Duration("kill-grace", d.KillGrace, "How long to wait for the engine to quit before killing it")
}

// engineConfigFromViper builds the engine configuration from flags, the
// environment and the config file.
func engineConfigFromViper() (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if candidates := viper.GetStringSlice("engine"); len(candidates) > 0 {
		cfg.Candidates = candidates
	}

	options, err := parseOptions(viper.GetStringSlice("engine-option"))
	if err != nil {
		return engine.Config{}, err
	}
	cfg.Options = options

	cfg.Threads = viper.GetInt("threads")
	cfg.HashMB = viper.GetInt("hash")
	cfg.HandshakeTimeout = viper.GetDuration("handshake-timeout")
	cfg.HardTimeout = viper.GetDuration("hard-timeout")
	cfg.StopGrace = viper.GetDuration("stop-grace")
	cfg.KillGrace = viper.GetDuration("kill-grace")

	if cfg.Threads < 1 {
		return engine.Config{}, fmt.Errorf("threads must be at least 1, got %d", cfg.Threads)
	}
	if cfg.HashMB < 1 {
		return engine.Config{}, fmt.Errorf("hash must be at least 1 MB, got %d", cfg.HashMB)
	}
	for name, d := range map[string]time.Duration{
		"handshake-timeout": cfg.HandshakeTimeout,
		"hard-timeout":      cfg.HardTimeout,
		"stop-grace":        cfg.StopGrace,
		"kill-grace":        cfg.KillGrace,
	} {
		if d <= 0 {
			return engine.Config{}, fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}

	return cfg, nil
}

func parseOptions(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	options := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.ContainsAny(p, "\r\n") {
			return nil, fmt.Errorf("invalid engine option %q, expected Name=Value", p)
		}
		options[name] = strings.TrimSpace(value)
	}
	return options, nil
}

func serverConfigFromViper() primaryserver.Config {
	return primaryserver.Config{
		QueueSize: viper.GetInt("queue-size"),
		ResultTTL: viper.GetDuration("result-ttl"),
		LeaseTTL:  viper.GetDuration("lease-ttl"),
		MaxLeases: viper.GetInt("max-leases"),
		Limits: models.Limits{
			MaxDepth: viper.GetInt("max-depth"),
			MaxTime:  viper.GetDuration("max-time"),
		},
	}
}

func workerConfigFromViper() worker.Config {
	return worker.Config{
		ServerURL:    strings.TrimRight(viper.GetString("server"), "/"),
		Name:         viper.GetString("name"),
		Slots:        viper.GetInt("slots"),
		PollInterval: viper.GetDuration("poll-interval"),
	}
}
