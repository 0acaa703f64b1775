package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/autodealer/dealership-api/internal/api/metrics"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher records page views off the request path. Views are routed to a
// fixed set of workers by hashing the path, so views of one page are written
// in arrival order.
type Dispatcher struct {
	workers []chan ports.PageViewInput
	service ports.AnalyticsService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AnalyticsService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.PageViewInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.PageViewInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel and exit
// once ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a page view to the worker responsible for its path. It never
// blocks: when the worker's buffer is full the view is dropped and false is
// returned.
func (d *Dispatcher) Enqueue(view ports.PageViewInput) bool {
	idx := d.shardIndex(view.Path)
	select {
	case d.workers[idx] <- view:
		metrics.PageViewQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		metrics.PageViewsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("path", view.Path).Int("worker_id", idx).Msg("page view queue full, dropping")
		return false
	}
}

// shardIndex maps a path deterministically to a worker index.
func (d *Dispatcher) shardIndex(path string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.PageViewInput) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case view := <-ch:
			metrics.PageViewQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.record(ctx, id, view)
		}
	}
}

// drain flushes views still buffered at shutdown using a fresh context, since
// the worker context is already cancelled.
func (d *Dispatcher) drain(id int, ch <-chan ports.PageViewInput) {
	ctx := context.Background()
	for {
		select {
		case view := <-ch:
			d.record(ctx, id, view)
		default:
			return
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, id int, view ports.PageViewInput) {
	if err := d.service.Record(ctx, view); err != nil {
		metrics.PageViewsTotal.WithLabelValues("error").Inc()
		d.log.Error().Err(err).
			Str("path", view.Path).
			Int("worker_id", id).
			Msg("page view recording failed")
		return
	}
	metrics.PageViewsTotal.WithLabelValues("recorded").Inc()
}
