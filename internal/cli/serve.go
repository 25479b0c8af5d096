package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TWRT/eisenhower-matrix/internal/api"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.start(cmd)
			if err != nil {
				// the board still serves with its load error shown
				var seen reportedError
				if !errors.As(err, &seen) || a.rt == nil {
					return err
				}
				rt = a.rt
			}

			if !cmd.Flags().Changed("addr") {
				addr = rt.Config.ListenAddr
			}
			if !cmd.Flags().Changed("refresh") {
				interval = rt.Config.RefreshInterval
			}

			if interval > 0 {
				scheduler, err := rt.Service.StartAutoRefresh(interval, rt.Config.HTTPTimeout)
				if err != nil {
					return err
				}
				defer scheduler.Stop()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.SetupRouter(rt.Service, rt.Center, rt.Logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				rt.Logger.Info("board server listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Board available at http://%s/board\n", displayAddr(addr))

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve board: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from MATRIX_LISTEN_ADDR)")
	cmd.Flags().DurationVar(&interval, "refresh", 0, "Auto refresh interval, 0 disables (default from MATRIX_REFRESH_INTERVAL)")
	return cmd
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
