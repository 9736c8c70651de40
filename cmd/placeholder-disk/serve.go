package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/jgarman/placeholder-disk/internal/webui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve freshly rendered placeholder images over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := newProvisioner(cfg, true)
		if err != nil {
			return err
		}

		webHandler, err := webui.New(p, cfg.Catalog, cfg.Volume.ImageName, logger.WithPrefix("webui"))
		if err != nil {
			return fmt.Errorf("failed to initialize web UI: %w", err)
		}

		// Setup CORS
		c := cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORS.AllowedOrigins,
			AllowedMethods:   cfg.Server.CORS.AllowedMethods,
			AllowedHeaders:   cfg.Server.CORS.AllowedHeaders,
			AllowCredentials: cfg.Server.CORS.AllowCredentials,
		})

		srv := &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      c.Handler(webHandler.Routes()),
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		// Wait for interrupt signal to gracefully shutdown the server
		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
		}

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		logger.Info("server exited")
		return nil
	},
}
