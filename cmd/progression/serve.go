package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the engine and expose Prometheus metrics until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if _, err := a.engine(ctx); err != nil {
			return err
		}

		prom := a.cfg.Metrics.Prometheus
		if !prom.Enabled {
			a.log.Info().Msg("Prometheus disabled, waiting for shutdown signal")
			<-ctx.Done()
			return nil
		}

		checks := []healthCheck{{name: "database", check: func(context.Context) error { return a.db.Health() }}}
		if a.cache != nil {
			checks = append(checks, healthCheck{name: "redis", check: a.cache.Health})
		}

		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", prom.Port),
			Handler:           newServeRouter(prom.Path, checks...),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info().Int("port", prom.Port).Str("path", prom.Path).Msg("Serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		a.log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// healthCheck is one dependency checked by /healthz.
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// newServeRouter mounts the Prometheus handler at metricsPath and a health endpoint at /healthz.
func newServeRouter(metricsPath string, checks ...healthCheck) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		for _, hc := range checks {
			if err := hc.check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "unhealthy",
					"component": hc.name,
					"error":     err.Error(),
					"timestamp": time.Now().UTC(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})
	return router
}
