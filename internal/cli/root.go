// Package cli implements sessionctl, a command line driver for claims
// resolution and the session manager.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"coursegate/internal/platform/config"
	"coursegate/internal/platform/logger"
)

// flagKeys maps command line flags onto config keys. A flag only overrides
// the config when it is set explicitly.
var flagKeys = map[string]string{
	"log-level":     "log_level",
	"backend":       "claims.backend_url",
	"cache":         "claims.cache_backend",
	"cache-path":    "claims.sqlite_path",
	"redis-url":     "redis.url",
	"fallback-role": "claims.fallback_role",
	"refresh-every": "session.token_refresh_interval",
	"inactivity":    "session.inactivity_threshold",
	"check-every":   "session.inactivity_check",
}

type app struct {
	configFile string
	cfg        *config.Config
	log        *slog.Logger
}

// NewRootCmd builds the sessionctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sessionctl",
		Short: "Drive coursegate claims resolution from the command line",
		Long: `sessionctl signs in against the development identity provider, resolves
authorization claims through the coursegate backend and runs the session
manager with its token refresh and inactivity timers.

Configuration is read from coursegate.yaml in the current directory,
$HOME/.coursegate/ or /etc/coursegate/. Environment variables with the
COURSEGATE_ prefix override file values, and flags override both.
Example: COURSEGATE_CLAIMS_BACKEND_URL=http://localhost:8080

Commands:
  token   Mint a development ID token
  claims  Sign in, resolve claims and print the authorization predicates
  watch   Run the session manager until inactivity logout or interrupt`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./coursegate.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error (default info)")
	flags.String("backend", "", "claims backend base URL (default http://localhost:8080)")
	flags.String("cache", "", "claims cache backend: memory, sqlite or redis (default memory)")
	flags.String("cache-path", "", "sqlite claims cache file (default coursegate-claims.db)")
	flags.String("redis-url", "", "redis URL for the redis claims cache")
	flags.String("fallback-role", "", "role granted when claims cannot be resolved (default disabled)")
	flags.Duration("refresh-every", 0, "token refresh interval (default 50m)")
	flags.Duration("inactivity", 0, "sign out after this much inactivity (default 30m)")
	flags.Duration("check-every", 0, "inactivity check interval (default 1m)")

	root.AddCommand(newTokenCmd(a), newClaimsCmd(a), newWatchCmd(a))
	return root
}

// ExecuteContext runs the command tree with ctx.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	v := config.NewViper(a.configFile)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)
	return nil
}

func (a *app) logger() *slog.Logger {
	if a.log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a.log
}
