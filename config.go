/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind        string
	envFile     string
	intentBurst int
	intentRate  float64
	playerGrace time.Duration
	port        int
	prefix      string
	profile     bool
	roomTimeout time.Duration
	tlsCert     string
	tlsKey      string
	verbose     bool
	version     bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.playerGrace < 0 {
		return fmt.Errorf("invalid player grace period (must not be negative): %s", c.playerGrace)
	}
	if c.roomTimeout < 0 {
		return fmt.Errorf("invalid room timeout (must not be negative): %s", c.roomTimeout)
	}
	if c.intentRate <= 0 || c.intentBurst < 1 {
		return fmt.Errorf("invalid intent rate limit (rate must be positive, burst at least 1): %v/%d", c.intentRate, c.intentBurst)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// loadEnvFile reads KEY=value pairs into the process environment so viper
// picks them up. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("KOKORO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "kokoro",
		Short:         "A prompt-and-answer party game: add topics, answer together, reveal and like.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: KOKORO_BIND)")
	fs.StringVar(&cfg.envFile, "env-file", ".env", "file of KEY=value pairs loaded before reading the environment (env: KOKORO_ENV_FILE)")
	fs.IntVar(&cfg.intentBurst, "intent-burst", 10, "number of intents a connection may send in a burst (env: KOKORO_INTENT_BURST)")
	fs.Float64Var(&cfg.intentRate, "intent-rate", 5, "sustained intents per second allowed per connection (env: KOKORO_INTENT_RATE)")
	fs.DurationVar(&cfg.playerGrace, "player-grace", 30*time.Second, "time a disconnected player keeps their seat before leaving (env: KOKORO_PLAYER_GRACE)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: KOKORO_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: KOKORO_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: KOKORO_PROFILE)")
	fs.DurationVar(&cfg.roomTimeout, "room-timeout", 10*time.Minute, "time an empty room is kept before it is removed, 0 to keep forever (env: KOKORO_ROOM_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: KOKORO_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: KOKORO_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: KOKORO_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: KOKORO_VERSION)")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		envFile := cfg.envFile
		if !fs.Changed("env-file") {
			if fromEnv := v.GetString("env-file"); fromEnv != "" {
				envFile = fromEnv
			}
		}
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		var errs []error
		fs.VisitAll(func(f *pflag.Flag) {
			_ = v.BindPFlag(f.Name, f)
			_ = v.BindEnv(f.Name)
			if !f.Changed && v.IsSet(f.Name) {
				if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
					errs = append(errs, fmt.Errorf("--%s: %w", f.Name, err))
				}
			}
		})

		return errors.Join(errs...)
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("kokoro v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
