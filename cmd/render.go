package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/streetviz/internal/chart"
	"github.com/sells-group/streetviz/internal/geodata"
	"github.com/sells-group/streetviz/internal/view"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the charts and map overlay to files",
	Long:  "Fetches both datasets once, then writes scatterplot.svg, heatmap.svg, linechart.svg and overlay.json (plus PNG charts with --png) to the output directory.",
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringP("out", "o", ".", "output directory")
	renderCmd.Flags().String("metric", string(geodata.DefaultMetric), "scatter plot metric (LVI, LPI, Street_Light_Outage)")
	renderCmd.Flags().Bool("png", false, "also write PNG renderings of the scatter and line charts")
	renderCmd.Flags().Duration("timeout", 2*time.Minute, "maximum time to wait for both datasets")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate("render"); err != nil {
		return err
	}

	outDir, _ := cmd.Flags().GetString("out")
	metricFlag, _ := cmd.Flags().GetString("metric")
	withPNG, _ := cmd.Flags().GetBool("png")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	metric, err := geodata.ParseMetric(metricFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	src, err := newSource(cfg, newFetcher(cfg))
	if err != nil {
		return err
	}

	tileURL := strings.TrimRight(cfg.Map.BasemapURL, "/") + "/{z}/{x}/{y}.png"
	ctl := view.New(src, view.Options{Map: mapOptions(cfg, tileURL), Metric: metric})
	ctl.Start(ctx)
	defer ctl.Close()

	snap, err := ctl.Settled(ctx)
	if err != nil {
		return err
	}

	written, err := writeArtifacts(ctx, snap, outDir, withPNG)
	if err != nil {
		return err
	}
	zap.L().Info("render complete",
		zap.String("state", snap.State.String()),
		zap.String("out", outDir),
		zap.Strings("files", written),
	)

	if !snap.State.HasStreets() {
		return eris.New("render: street data unavailable, charts not written")
	}
	return nil
}

// writeArtifacts writes every rendered chart and the overlay to outDir and
// returns the written file names, sorted.
func writeArtifacts(ctx context.Context, snap *view.Snapshot, outDir string, withPNG bool) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "render: create %s", outDir)
	}

	type artifact struct {
		name   string
		encode func() ([]byte, error)
	}
	var artifacts []artifact

	for id, cv := range snap.Charts {
		artifacts = append(artifacts, artifact{name: id + ".svg", encode: func() ([]byte, error) { return cv.SVG, nil }})
		if !withPNG {
			continue
		}
		artifacts = append(artifacts, artifact{name: id + ".png", encode: func() ([]byte, error) {
			var buf bytes.Buffer
			err := chart.RenderPNG(&buf, cv.Renderer, cv.Records)
			return buf.Bytes(), err
		}})
	}
	artifacts = append(artifacts, artifact{name: "overlay.json", encode: func() ([]byte, error) {
		return json.MarshalIndent(snap.Overlay, "", "  ")
	}})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	written := make([]string, len(artifacts))
	for i, a := range artifacts {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			data, err := a.encode()
			if errors.Is(err, chart.ErrNoRaster) || errors.Is(err, chart.ErrNothingToDraw) {
				zap.L().Debug("render: no raster form", zap.String("file", a.name))
				return nil
			}
			if err != nil {
				return eris.Wrapf(err, "render: encode %s", a.name)
			}
			if err := os.WriteFile(filepath.Join(outDir, a.name), data, 0o644); err != nil {
				return eris.Wrapf(err, "render: write %s", a.name)
			}
			written[i] = a.name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := written[:0]
	for _, name := range written {
		if name != "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}
