package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/churnboard/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API",
	Long: `Loads the dataset once and serves per-session dashboards over HTTP.
Each session owns its filter selection and view cache; sessions never share state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDashboard()
		if err != nil {
			return err
		}
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           server.New(d, log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		errc := make(chan error, 1)
		go func() {
			log.Info("listening", zap.String("addr", "http://"+addr))
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}
		log.Info("shutting down")
		defer func() { _ = log.Sync() }()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
}
