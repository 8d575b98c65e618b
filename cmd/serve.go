package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/streetviz/internal/geospatial"
	"github.com/sells-group/streetviz/internal/view"
	"github.com/sells-group/streetviz/internal/web"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the visualization view",
	Long:  "Mounts a view, fetches both datasets and serves the rendered charts, map overlay, metric control and basemap tiles over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f := newFetcher(cfg)
		src, err := newSource(cfg, f)
		if err != nil {
			return err
		}

		ctl := view.New(src, view.Options{Map: mapOptions(cfg, "/basemap/{z}/{x}/{y}.png")})
		ctl.Start(ctx)
		defer ctl.Close()

		tiles := geospatial.NewTileProxy(cfg.Map.BasemapURL, f,
			geospatial.NewTileCache(cfg.Map.TileCacheSize, cfg.Map.TileCacheTTL()))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           web.NewRouter(ctl, tiles),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting view server", zap.Int("port", port), zap.String("source", cfg.Source.BaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
