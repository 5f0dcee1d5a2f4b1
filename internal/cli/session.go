package cli

import (
	"errors"
	"fmt"

	"budgetbox/internal/auth"
	"budgetbox/internal/client"
	"budgetbox/internal/services"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		Long: `Log in with email and password. The demo identity is verified
locally, so logging in works even when the sync server is unreachable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			// The embedded fallback identity never needs the network.
			id, ok := auth.CheckFallback(email, password)
			if !ok {
				if !app.online {
					return errors.New("server unreachable and credentials do not match the offline identity")
				}
				id, err = app.api.Login(ctx, email, password)
				if errors.Is(err, auth.ErrInvalidCredentials) {
					return errors.New("invalid email or password")
				}
				var netErr *client.NetworkError
				if errors.As(err, &netErr) {
					return fmt.Errorf("login request failed: %w", err)
				}
				if err != nil {
					return err
				}
			}

			if err := app.repo.SaveSession(ctx, id); err != nil {
				return fmt.Errorf("store session: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", id.Email)
			if !app.online {
				fmt.Fprintln(cmd.OutOrStdout(), "Working offline; edits will sync when the server is reachable.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", auth.Fallback.Email, "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.repo.ClearSession(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session, connectivity and sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			if app.session == nil {
				fmt.Fprintln(out, "Session:      not logged in")
			} else {
				fmt.Fprintf(out, "Session:      %s\n", app.session.Email)
			}
			if app.online {
				fmt.Fprintf(out, "Server:       online (%s)\n", app.cfg.ServerURL)
			} else {
				fmt.Fprintln(out, "Server:       offline")
			}

			if app.session == nil {
				return nil
			}

			b, err := app.coord.Current(ctx)
			if errors.Is(err, services.ErrNoBudget) {
				fmt.Fprintln(out, "Budget:       none for the current month")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Budget:       %s\n", b.Period)
			fmt.Fprintf(out, "Sync status:  %s\n", b.SyncStatus)
			if b.LastSyncAt != nil {
				fmt.Fprintf(out, "Last sync:    %s\n", b.LastSyncAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
