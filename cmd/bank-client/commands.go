package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"banking-client/internal/domain"
	"banking-client/internal/identity"
	"banking-client/internal/observability"
	"banking-client/internal/routes"
	"banking-client/internal/session"
)

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bank-client",
		Short:         "Session and access-control client for the banking service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(); err != nil {
				return err
			}
			a.store.Restore(opCtx(cmd, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newValidateCmd(a),
		newOpenCmd(a),
		newRoutesCmd(a),
		newMonitorCmd(a),
	)
	return root
}

func opCtx(cmd *cobra.Command, a *app) context.Context {
	ctx := observability.WithClientID(cmd.Context(), a.clientID)
	return observability.WithOperation(ctx, cmd.Name())
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Authenticate and persist the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Login(opCtx(cmd, a), args[0], args[1]); err != nil {
				return err
			}
			snap := a.store.Snapshot()
			fmt.Printf("logged in as %s (%s, %s)\n",
				snap.User.Email, snap.User.Role, displayStatus(snap.User.RegistrationStatus))
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var name, bsn string

	cmd := &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Create an account; approval is granted by an employee later",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := identity.RegisterRequest{
				Email:    args[0],
				Password: args[1],
				Name:     name,
				BSN:      bsn,
			}
			if err := a.store.Register(opCtx(cmd, a), req); err != nil {
				return err
			}
			snap := a.store.Snapshot()
			fmt.Printf("registered %s, status %s\n",
				snap.User.Email, displayStatus(snap.User.RegistrationStatus))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&bsn, "bsn", "", "citizen service number")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session and persisted state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.store.Logout(opCtx(cmd, a))
			fmt.Println("logged out")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := a.store.Snapshot()
			if !snap.Authenticated() {
				fmt.Println("not logged in")
				return nil
			}
			fmt.Printf("user:   %s (%s)\n", snap.User.Email, snap.User.Name)
			fmt.Printf("role:   %s\n", snap.User.Role)
			fmt.Printf("status: %s\n", displayStatus(snap.User.RegistrationStatus))
			if !snap.LastLogin.IsZero() {
				fmt.Printf("last login: %s\n", snap.LastLogin.Format(time.RFC3339))
			}
			if !snap.TokenExpiry.IsZero() {
				fmt.Printf("token expires: %s\n", snap.TokenExpiry.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Confirm the session token against the identity service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := a.store.Validate(opCtx(cmd, a))
			switch outcome {
			case session.OutcomeNotAuthenticated:
				fmt.Println("not logged in")
			case session.OutcomeConfirmed:
				fmt.Println("session confirmed")
			case session.OutcomeInvalid:
				fmt.Println("session rejected, logged out")
			case session.OutcomeIndeterminate:
				fmt.Println("could not confirm session, keeping it")
			}
			return err
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Evaluate the route guard for a navigation attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision := a.guard.Decide(a.store.Snapshot(), routes.Navigation(args[0]))
			recordDecision(decision.Allowed)
			if decision.Allowed {
				fmt.Printf("%s: allowed\n", args[0])
			} else {
				fmt.Printf("%s: redirect to %s\n", args[0], decision.RedirectTo)
			}
			return nil
		},
	}
}

func newRoutesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the declared routes and their requirements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, r := range routes.Table() {
				fmt.Printf("%-20s %s\n", r.Path, describeRequirements(r.Requirements))
			}
			return nil
		},
	}
}

func newMonitorCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Keep the session fresh and serve metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(opCtx(cmd, a), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			srv := startDebugServer(a.cfg.MetricsAddr)
			if srv != nil {
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			observability.Info("monitor started", "interval", interval.String())
			for {
				select {
				case <-ctx.Done():
					observability.Info("monitor stopping")
					return nil
				case <-time.After(nextCheck(a.store.Snapshot(), interval)):
				}

				outcome, err := a.store.Validate(ctx)
				if err != nil && ctx.Err() != nil {
					return nil
				}
				observability.Info("revalidated session", "outcome", string(outcome))
				if outcome == session.OutcomeInvalid {
					fmt.Fprintln(os.Stderr, "session rejected, logged out")
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "revalidation interval")
	return cmd
}

// nextCheck shortens the wait when the token's expiry hint falls inside
// the regular interval, so an expiring session is caught before views
// start failing.
func nextCheck(snap domain.Session, interval time.Duration) time.Duration {
	if snap.TokenExpiry.IsZero() {
		return interval
	}
	untilExpiry := time.Until(snap.TokenExpiry) - 30*time.Second
	if untilExpiry < time.Second {
		return time.Second
	}
	if untilExpiry < interval {
		return untilExpiry
	}
	return interval
}

func startDebugServer(addr string) *http.Server {
	if addr == "" {
		return nil
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Error("debug server failed", "error", err.Error())
		}
	}()
	observability.Info("debug server listening", "addr", addr)
	return srv
}

func recordDecision(allowed bool) {
	label := "redirect"
	if allowed {
		label = "allow"
	}
	observability.GuardDecisionsTotal.WithLabelValues(label).Inc()
}

func displayStatus(status domain.RegistrationStatus) string {
	if status == domain.StatusUnknown {
		return "unknown"
	}
	return string(status)
}

func describeRequirements(req domain.RouteRequirements) string {
	switch {
	case req.RequiresGuest:
		return "guest only"
	case req.RequiresRole != domain.RoleUnknown && req.AllowPending:
		return fmt.Sprintf("auth, role %s, pending ok", req.RequiresRole)
	case req.RequiresRole != domain.RoleUnknown:
		return fmt.Sprintf("auth, role %s", req.RequiresRole)
	case req.RequiresAuth && req.AllowPending:
		return "auth, pending ok"
	case req.RequiresAuth:
		return "auth"
	default:
		return "public"
	}
}
