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

	"github.com/sells-group/streetviz/internal/dataserver"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Street and boundary data API",
}

var dataServePort int

var dataServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the street and boundary datasets",
	Long:  "Loads the street dataset (keyword-filtered, nulls filled) and the boundary dataset from GeoJSON or shapefiles and serves them at /api/streets and /api/boundaries.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("data"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		profile := dataserver.DefaultProfile()
		if cfg.Data.ProfileFile != "" {
			p, err := dataserver.LoadProfile(cfg.Data.ProfileFile)
			if err != nil {
				return err
			}
			profile = p
		}

		ds, err := dataserver.Load(cfg.Data.StreetsFile, cfg.Data.BoundariesFile, profile)
		if err != nil {
			return err
		}

		port := dataServePort
		if port == 0 {
			port = cfg.Data.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           dataserver.NewRouter(ds),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down data server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting data server",
			zap.Int("port", port),
			zap.Int("streets", ds.StreetCount),
			zap.Int("boundaries", ds.BoundaryCount),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "data server listen")
		}

		return nil
	},
}

func init() {
	dataServeCmd.Flags().IntVar(&dataServePort, "port", 0, "server port (default from config)")
	dataCmd.AddCommand(dataServeCmd)
	rootCmd.AddCommand(dataCmd)
}
