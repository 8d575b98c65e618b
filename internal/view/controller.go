// Package view owns the state of one visualization view: the held datasets,
// the selected metric, the three chart canvases and the map overlay. A single
// event loop goroutine is the only writer; readers see published snapshots.
package view

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/streetviz/internal/chart"
	"github.com/sells-group/streetviz/internal/geodata"
	"github.com/sells-group/streetviz/internal/mapview"
	"github.com/sells-group/streetviz/internal/source"
)

// ErrClosed is returned by calls made after the view was disposed.
var ErrClosed = eris.New("view: closed")

// Options configures a Controller.
type Options struct {
	Map    mapview.Options
	Metric geodata.Metric
}

type eventKind int

const (
	streetsArrived eventKind = iota
	boundariesArrived
	metricSelected
	barrier
)

type event struct {
	kind       eventKind
	streets    *geodata.StreetCollection
	boundaries *geodata.Boundaries
	err        error
	metric     geodata.Metric
	reply      chan *Snapshot
}

// Controller drives one view. Create it with New, then Start it once.
type Controller struct {
	src  source.Source
	opts Options

	events    chan event
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	startOnce sync.Once
	fetches   errgroup.Group

	snap atomic.Pointer[Snapshot]

	// Owned by the loop goroutine.
	streets    *geodata.StreetCollection
	boundaries *geodata.Boundaries
	metric     geodata.Metric
	canvases   map[string]*chart.Canvas
	charts     map[string]*ChartView
	overlay    *mapview.Overlay
	counters   Counters
}

// New creates a controller reading from src. Nothing happens until Start.
func New(src source.Source, opts Options) *Controller {
	if opts.Metric == "" {
		opts.Metric = geodata.DefaultMetric
	}
	c := &Controller{
		src:      src,
		opts:     opts,
		events:   make(chan event),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		metric:   opts.Metric,
		canvases: make(map[string]*chart.Canvas),
		charts:   make(map[string]*ChartView),
		counters: Counters{Charts: make(map[string]int)},
	}
	c.overlay = mapview.Build(nil, nil, opts.Map)
	c.publish()
	return c
}

// Start mounts the view: it launches the event loop and both dataset fetches.
// The fetches are independent; one failing never cancels the other. ctx
// bounds the fetches and, when done, disposes the view.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go c.loop(ctx)

		c.fetches.Go(func() error {
			streets, err := c.src.Streets(ctx)
			c.post(event{kind: streetsArrived, streets: streets, err: err})
			return nil
		})
		c.fetches.Go(func() error {
			boundaries, err := c.src.Boundaries(ctx)
			c.post(event{kind: boundariesArrived, boundaries: boundaries, err: err})
			return nil
		})
	})
}

// Snapshot returns the latest published state.
func (c *Controller) Snapshot() *Snapshot {
	return c.snap.Load()
}

// SelectMetric changes the selected metric and returns the state after the
// charts have been redrawn.
func (c *Controller) SelectMetric(ctx context.Context, m geodata.Metric) (*Snapshot, error) {
	if _, err := geodata.ParseMetric(string(m)); err != nil {
		return nil, err
	}
	return c.request(ctx, event{kind: metricSelected, metric: m})
}

// Settled waits for both fetches to finish and returns the state after their
// results were applied.
func (c *Controller) Settled(ctx context.Context) (*Snapshot, error) {
	waited := make(chan struct{})
	go func() {
		_ = c.fetches.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "view: wait for fetches")
	}
	return c.request(ctx, event{kind: barrier})
}

// Close disposes the view. The loop exits and results of fetches still in
// flight are dropped. Close is idempotent.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.done) })
	started := true
	c.startOnce.Do(func() { started = false })
	if started {
		<-c.stopped
	}
}

func (c *Controller) request(ctx context.Context, ev event) (*Snapshot, error) {
	ev.reply = make(chan *Snapshot, 1)
	select {
	case c.events <- ev:
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "view: send request")
	}
	select {
	case s := <-ev.reply:
		return s, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "view: await reply")
	}
}

// post delivers a fetch result unless the view has been disposed.
func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
		zap.L().Debug("view: dropping fetch result after close", zap.Int("kind", int(ev.kind)))
	}
}

func (c *Controller) loop(ctx context.Context) {
	defer close(c.stopped)
	for {
		select {
		case <-c.done:
			c.dispose()
			return
		case <-ctx.Done():
			c.closeOnce.Do(func() { close(c.done) })
			c.dispose()
			return
		case ev := <-c.events:
			c.apply(ev)
			snap := c.publish()
			if ev.reply != nil {
				ev.reply <- snap
			}
		}
	}
}

func (c *Controller) apply(ev event) {
	switch ev.kind {
	case streetsArrived:
		if ev.err == nil && ev.streets == nil {
			ev.err = eris.New("view: empty street result")
		}
		if ev.err != nil {
			zap.L().Error("view: street data unavailable", zap.Error(ev.err))
			return
		}
		c.streets = geodata.Normalize(ev.streets)
		zap.L().Info("view: streets loaded", zap.Int("features", c.streets.Len()))
		c.renderCharts()
		c.renderMap()
	case boundariesArrived:
		if ev.err == nil && ev.boundaries == nil {
			ev.err = eris.New("view: empty boundary result")
		}
		if ev.err != nil {
			zap.L().Error("view: boundary data unavailable", zap.Error(ev.err))
			return
		}
		c.boundaries = ev.boundaries
		zap.L().Info("view: boundaries loaded", zap.Int("features", c.boundaries.Count))
		c.renderMap()
	case metricSelected:
		if ev.metric == c.metric {
			return
		}
		c.metric = ev.metric
		if c.streets != nil {
			c.renderCharts()
		}
	case barrier:
	}
}

// renderCharts regroups the held streets and redraws all three canvases.
func (c *Controller) renderCharts() {
	charts := make(map[string]*ChartView, len(c.charts))
	for _, plot := range chart.Plots(c.metric) {
		id := plot.Renderer.ID()
		canvas, ok := c.canvases[id]
		if !ok {
			canvas = chart.NewCanvasFor(plot.Renderer)
			c.canvases[id] = canvas
		}

		records := chart.GroupStreets(c.streets, plot.Select)
		plot.Renderer.Render(canvas, records)
		svg, err := canvas.SVG()
		if err != nil {
			zap.L().Error("view: serialize chart", zap.String("chart", id), zap.Error(err))
			continue
		}
		charts[id] = &ChartView{Renderer: plot.Renderer, Records: records, SVG: svg}
		c.counters.Charts[id]++
	}
	c.charts = charts
}

func (c *Controller) renderMap() {
	c.overlay = mapview.Build(c.streets, c.boundaries, c.opts.Map)
	c.counters.Map++
}

func (c *Controller) dispose() {
	snap := *c.snap.Load()
	snap.Closed = true
	c.snap.Store(&snap)
	zap.L().Debug("view: disposed")
}

func (c *Controller) publish() *Snapshot {
	counts := make(map[string]int, len(c.counters.Charts))
	for k, v := range c.counters.Charts {
		counts[k] = v
	}
	charts := make(map[string]*ChartView, len(c.charts))
	for k, v := range c.charts {
		charts[k] = v
	}
	snap := &Snapshot{
		State:    loadState(c.streets != nil, c.boundaries != nil),
		Metric:   c.metric,
		Charts:   charts,
		Overlay:  c.overlay,
		Counters: Counters{Charts: counts, Map: c.counters.Map},
		Revision: uuid.NewString(),
	}
	c.snap.Store(snap)
	return snap
}
