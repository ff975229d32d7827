package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/danielolaszy/triage/internal/config"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

// tokenVerifier is implemented by trackers that can check their credentials.
type tokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive GitHub issue webhooks",
	Long: `Run an HTTP server that receives GitHub 'issues' webhooks and triages or
assigns newly opened issues according to the automation policy
(TRIAGE_ENABLED, TRIAGE_AUTO_ASSIGN, TRIAGE_CONFIDENCE_THRESHOLD, ...).

Endpoints:
  POST   /webhooks/github   GitHub webhook receiver
  GET    /automation/log    recent automation decisions
  DELETE /automation/log    clear the automation log
  GET    /health            liveness probe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		if a.cfg.Triage.Tracker != config.TrackerGitHub {
			return errors.New("serve only supports the github tracker")
		}
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			a.cfg.Triage.ListenAddr = addr
		}

		if verifier, ok := a.tracker.(tokenVerifier); ok && a.cfg.GitHub.Token != "" {
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Triage.RequestTimeout)
			_, err := verifier.Verify(ctx, "")
			cancel()
			if err != nil {
				return err
			}
		}

		gin.SetMode(gin.ReleaseMode)
		handler := webhook.NewHandler(a.service, a.cfg.AutomationConfig(), a.cfg.GitHub.Token, a.cfg.Triage.RequestTimeout)
		server := &http.Server{
			Addr:              a.cfg.Triage.ListenAddr,
			Handler:           webhook.NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      a.cfg.Triage.RequestTimeout*4 + 10*time.Second,
			IdleTimeout:       120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logging.Info("http server starting",
				"addr", server.Addr,
				"auto_assign", a.cfg.Triage.AutoAssign,
				"enabled", a.cfg.Triage.Enabled)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err := <-errCh:
			return err
		case <-quit:
		}

		logging.Info("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logging.Error("http server shutdown error", "error", err)
			return err
		}
		logging.Info("shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Listen address (default: TRIAGE_LISTEN_ADDR or :8080)")
}
