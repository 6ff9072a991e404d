package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaoprojetos/workflow-system/internal/api/metrics"
	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes workflow events to a fixed set of workers using
// consistent hashing on the stage id, so events of one stage are handled in
// order.
type Dispatcher struct {
	workers []chan domain.WorkflowEvent
	handler ports.WorkflowEventHandler
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, handler ports.WorkflowEventHandler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.WorkflowEvent, numWorkers),
		handler: handler,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.WorkflowEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Publish sends an event to the worker responsible for its stage. When that
// worker's buffer is full the event is dropped and logged; notifications are
// best-effort and must not stall the request that produced them.
func (d *Dispatcher) Publish(event domain.WorkflowEvent) {
	idx := d.shardIndex(event.StageID)
	select {
	case d.workers[idx] <- event:
		metrics.WorkflowQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.WorkflowEventsErrorsTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().
			Str("stage_id", event.StageID).
			Str("kind", string(event.Kind)).
			Int("worker_id", idx).
			Msg("workflow event dropped, worker queue full")
	}
}

// shardIndex maps a stage id deterministically to a worker index.
func (d *Dispatcher) shardIndex(stageID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(stageID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.WorkflowEvent) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.WorkflowQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			start := time.Now()
			if err := d.handler.HandleWorkflowEvent(ctx, event); err != nil {
				metrics.WorkflowEventsErrorsTotal.WithLabelValues("handler").Inc()
				metrics.WorkflowEventDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
				d.log.Error().Err(err).
					Str("stage_id", event.StageID).
					Str("kind", string(event.Kind)).
					Int("worker_id", id).
					Msg("workflow event handling failed")
				continue
			}
			metrics.WorkflowEventDuration.WithLabelValues(string(event.Kind)).Observe(time.Since(start).Seconds())
		}
	}
}
