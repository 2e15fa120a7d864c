package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"coursegate/internal/session"
)

func newWatchCmd(a *app) *cobra.Command {
	var pf principalFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the session manager until inactivity logout or interrupt",
		Long: `Sign in as the given subject and run the session manager with its token
refresh and inactivity timers, printing every state transition.

Each line read from stdin counts as user activity. The lines "refresh"
and "logout" re-resolve claims and sign out respectively.

Example:
  sessionctl watch --subject uid-1 --inactivity 2m --check-every 10s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			principal, err := pf.principal()
			if err != nil {
				return err
			}
			w, err := newWorld(cmd.Context(), a.cfg, a.logger())
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			out := &syncWriter{w: cmd.OutOrStdout()}
			events, unsubscribe := w.provider.Subscribe(8)
			defer unsubscribe()

			mgr := session.New(w.resolver, w.provider,
				session.WithLogger(a.logger()),
				session.WithTokenRefreshInterval(a.cfg.Session.TokenRefreshInterval),
				session.WithInactivity(a.cfg.Session.InactivityThreshold, a.cfg.Session.InactivityCheck),
				session.WithObserver(func(st session.State) { printState(out, st) }),
			)
			runErr := make(chan error, 1)
			go func() { runErr <- mgr.Run(ctx, events) }()

			mgr.Touch()
			if _, err := w.provider.SignIn(ctx, principal); err != nil {
				return err
			}
			if _, err := mgr.WaitFor(ctx, func(st session.State) bool { return st.Authenticated() }); err != nil {
				return interrupted(err)
			}
			go readActivity(ctx, cmd.InOrStdin(), mgr, out)

			_, err = mgr.WaitFor(ctx, func(st session.State) bool { return !st.Authenticated() })
			cancel()
			if rerr := <-runErr; rerr != nil && !errors.Is(rerr, context.Canceled) {
				return rerr
			}
			return interrupted(err)
		},
	}
	pf.register(cmd)
	return cmd
}

// readActivity turns stdin lines into activity and session commands.
func readActivity(ctx context.Context, in io.Reader, mgr *session.Manager, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		mgr.Touch()
		var err error
		switch strings.TrimSpace(scanner.Text()) {
		case "refresh":
			err = mgr.RefreshClaims(ctx)
		case "logout":
			err = mgr.Logout(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func printState(out io.Writer, st session.State) {
	line := fmt.Sprintf("%s %-10s", st.UpdatedAt.Format(time.RFC3339), st.Status)
	if st.Session != nil {
		line += " subject=" + st.Session.SubjectID.String()
	}
	if st.Claims != nil {
		line += " role=" + st.Claims.Role.String()
		line += " permissions=" + strings.Join(st.Claims.Permissions.Strings(), ",")
	}
	if st.Message != "" {
		line += fmt.Sprintf(" message=%q", st.Message)
	}
	fmt.Fprintln(out, line)
}

// interrupted treats cancellation of the command context as a clean exit.
func interrupted(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
