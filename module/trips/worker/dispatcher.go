// Package worker runs geofence evaluations off the ingestion path. Samples
// are queued and processed by a fixed pool; a full queue drops the sample
// (the next one re-evaluates the same stop) and failures are logged, never
// propagated to ingestion.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/metrics"
)

type Handler func(ctx context.Context, sample *domain.LocationSample) error

type Dispatcher struct {
	handler    Handler
	jobs       chan *domain.LocationSample
	workers    int
	jobTimeout time.Duration
	metrics    *metrics.Collector

	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewDispatcher(handler Handler, workers, queueSize int, jobTimeout time.Duration, col *metrics.Collector) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Second
	}
	return &Dispatcher{
		handler:    handler,
		jobs:       make(chan *domain.LocationSample, queueSize),
		workers:    workers,
		jobTimeout: jobTimeout,
		metrics:    col,
	}
}

// Start launches the worker pool. Workers drain remaining jobs after Stop
// and exit when the queue is closed.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
}

// Submit enqueues a sample for evaluation. Returns false when the queue is
// full or the dispatcher has stopped; the sample is dropped rather than
// blocking ingestion. The lock keeps the send ordered against the close in
// Stop, so a late sample from the subscriber cannot hit a closed channel.
func (d *Dispatcher) Submit(sample *domain.LocationSample) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.JobDropped()
		return false
	}
	select {
	case d.jobs <- sample:
		d.metrics.SetQueueDepth(len(d.jobs))
		return true
	default:
		d.metrics.JobDropped()
		return false
	}
}

// Stop closes the queue and waits for in-flight jobs to finish. Submit
// calls arriving after Stop are rejected.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for sample := range d.jobs {
		d.metrics.SetQueueDepth(len(d.jobs))
		d.process(sample)
	}
}

func (d *Dispatcher) process(sample *domain.LocationSample) {
	defer func() {
		if p := recover(); p != nil {
			d.metrics.JobFailed()
			log.Printf("worker: panic evaluating trip %s: %v", sample.TripID, p)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
	defer cancel()

	if err := d.handler(ctx, sample); err != nil {
		d.metrics.JobFailed()
		log.Printf("worker: geofence evaluation for trip %s: %v", sample.TripID, err)
	}
}
