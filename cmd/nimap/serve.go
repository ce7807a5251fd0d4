package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oriys/nimap/internal/logging"
	"github.com/oriys/nimap/internal/niserver"
	"github.com/spf13/cobra"
)

func serveCmd(a *app) *cobra.Command {
	var (
		listenAddr   string
		root         string
		manifestPath string
		authority    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve manifest files under /.well-known/ni",
		Long: "Run an HTTP server answering /.well-known/ni/sha-256/<id> from the manifest. " +
			"SIGHUP reloads the manifest.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Server
			if listenAddr != "" {
				sc.Listen = listenAddr
			}
			if authority != "" {
				sc.Authority = authority
			}
			if root == "" {
				root = a.cfg.Manifest.Root
			}
			if manifestPath == "" {
				manifestPath = a.cfg.Manifest.Output
			}

			srv, err := niserver.New(niserver.Config{
				Root:      root,
				Manifest:  manifestPath,
				Authority: sc.Authority,
			})
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:              sc.Listen,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logging.Op().Info("ni server started", "addr", sc.Listen, "root", root, "manifest", manifestPath)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
			defer signal.Stop(sigCh)

			for {
				select {
				case sig := <-sigCh:
					if sig == syscall.SIGHUP {
						if err := srv.Reload(); err != nil {
							logging.Op().Error("manifest reload failed", "error", err)
						}
						continue
					}
					logging.Op().Info("shutdown signal received", "signal", sig.String())
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := httpServer.Shutdown(ctx); err != nil {
						return fmt.Errorf("shutdown ni server: %w", err)
					}
					return nil
				case err := <-errCh:
					return fmt.Errorf("ni server error: %w", err)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (default :8080)")
	cmd.Flags().StringVarP(&root, "root", "r", "", "Directory the manifest describes")
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Manifest to serve (default sha-256-map.txt)")
	cmd.Flags().StringVar(&authority, "authority", "", "Authority reported for ni URIs")
	return cmd
}
