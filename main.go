package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-records-api/api"
	"github.com/linesmerrill/police-records-api/api/handlers"
	"github.com/linesmerrill/police-records-api/api/scheduler"
	"github.com/linesmerrill/police-records-api/config"
	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "police-records-api",
		Short:        "Records and dispatch workflow service",
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd(), newTestDispatchCmd(), newTokenCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, change feed and bolo expiry sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := handlers.App{}
			a.Config = *config.New()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			//initialize database and router
			if err := a.Initialize(ctx); err != nil {
				return err
			}

			sweeper := scheduler.NewScheduler(a.Config.BoloSweepSchedule, a.Engine.Bolos, a.Hub)
			if err := sweeper.Start(); err != nil {
				return err
			}
			defer sweeper.Stop()

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%v", a.Config.Port),
				Handler:           a.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			zap.S().Infow("police-records-api is up and running",
				"port", a.Config.Port,
				"url", a.Config.BaseURL,
				"store", a.Config.Store,
			)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				zap.S().Info("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.S().Errorw("server shutdown failed", "error", err)
			}
			return a.Close(shutdownCtx)
		},
	}
}

func newTestDispatchCmd() *cobra.Command {
	var (
		actor     models.Actor
		overrides engine.NewCall
	)
	cmd := &cobra.Command{
		Use:   "test-dispatch",
		Short: "Seed a synthetic New call into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := handlers.App{}
			a.Config = *config.New()
			if err := a.Initialize(cmd.Context()); err != nil {
				return err
			}
			defer a.Close(context.Background())

			call, err := a.Engine.Dispatch.TestDispatch(cmd.Context(), overrides, actor)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(call)
		},
	}
	cmd.Flags().IntVar(&actor.CID, "cid", 0, "cid of the dispatching officer")
	cmd.Flags().StringVar(&actor.Name, "name", "", "display name of the dispatching officer")
	cmd.Flags().StringVar(&overrides.Code, "code", "", "call code, random when empty")
	cmd.Flags().StringVar(&overrides.Title, "title", "", "call title, random when empty")
	cmd.Flags().StringVar(&overrides.Location, "location", "", "call location, random when empty")
	_ = cmd.MarkFlagRequired("cid")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		actor models.Actor
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := config.New()
			if conf.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := api.SignActor(conf.JWTSecret, actor, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().IntVar(&actor.CID, "cid", 0, "officer cid")
	cmd.Flags().StringVar(&actor.Name, "name", "", "officer display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("cid")
	return cmd
}
