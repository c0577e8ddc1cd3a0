package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/coursetrack-backend/internal/app"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

// bootstrap loads config, builds the logger and wires the app.
func bootstrap(ctx context.Context) (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func RunServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := a.Migrate(); err != nil {
			return err
		}
	}
	a.Start(ctx)
	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	a.Log.Info("Server stopped")
	return nil
}

func RunMigrate(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Migrate(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func RunReconcile(cmd *cobra.Command, _ []string) error {
	userRaw, _ := cmd.Flags().GetString("user")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	asJSON, _ := cmd.Flags().GetBool("json")

	var userID uuid.UUID
	if s := strings.TrimSpace(userRaw); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
		userID = id
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return runReconcile(ctx, cmd.OutOrStdout(), a.Services.Reconcile, userID, dryRun, asJSON)
}

func runReconcile(ctx context.Context, w io.Writer, svc services.ReconcileService, userID uuid.UUID, dryRun, asJSON bool) error {
	if userID != uuid.Nil {
		res, err := svc.ReconcileUser(ctx, userID, nil, dryRun)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(w, res)
		}
		fmt.Fprintf(w, "user %s: checked=%d created=%d removed=%d drift=%d dry_run=%t\n",
			res.UserID, res.Checked, res.Created, res.Removed, len(res.Drift), res.DryRun)
		for _, d := range res.Drift {
			fmt.Fprintf(w, "  %s %s cached=%t live=%t\n", d.Kind, d.NodeID, d.Cached, d.Live)
		}
		return nil
	}

	sum, err := svc.ReconcileAll(ctx, dryRun)
	if err != nil {
		return err
	}
	if asJSON {
		if err := writeJSON(w, sum); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "users=%d failed=%d checked=%d created=%d removed=%d drift=%d dry_run=%t\n",
			sum.Users, sum.Failed, sum.Checked, sum.Created, sum.Removed, sum.Drifted, sum.DryRun)
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d user(s) failed to reconcile", sum.Failed)
	}
	return nil
}

func RunToken(cmd *cobra.Command, _ []string) error {
	userRaw, _ := cmd.Flags().GetString("user")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	userID, err := uuid.Parse(strings.TrimSpace(userRaw))
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	identity, err := services.NewIdentityService(logger.Nop(), cfg.JWTSecretKey)
	if err != nil {
		return err
	}
	token, err := identity.IssueToken(userID, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
