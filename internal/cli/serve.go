package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/easelkit/easel/internal/api"
	"github.com/easelkit/easel/pkg/scene"
)

// newServeCmd creates the serve command: load a scene manifest (or the
// built-in demo) and expose it over the HTTP API.
func newServeCmd() *cobra.Command {
	var (
		addr string
		demo bool
	)

	cmd := &cobra.Command{
		Use:   "serve [scene.toml]",
		Short: "Serve a scene over an HTTP API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if demo == (len(args) == 1) {
				return fmt.Errorf("pass a manifest or --demo, not both")
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runServe(cmd.Context(), path, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&demo, "demo", false, "serve the built-in demo scene")
	return cmd
}

func runServe(ctx context.Context, path, addr string) error {
	logger := loggerFromContext(ctx)

	s := &demoScene
	if path != "" {
		var err error
		if s, err = scene.Load(path); err != nil {
			return err
		}
	}
	b, err := scene.Build(ctx, s, logger)
	if err != nil {
		return err
	}

	name := s.Name
	if name == "" {
		name = "scene"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewServer(name, b, logger).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving scene", "name", name, "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
