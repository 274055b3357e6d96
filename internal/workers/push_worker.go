// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/service"
)

// DefaultPushInterval is used when a non-positive interval is configured.
const DefaultPushInterval = time.Minute

// PushWorker runs a [service.PushJob] on a ticker.
type PushWorker struct {
	job      service.PushJob
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPushWorker creates a PushWorker. The worker is idle until Run or Start
// is called.
func NewPushWorker(job service.PushJob, interval time.Duration, log *logger.Logger) *PushWorker {
	if interval <= 0 {
		interval = DefaultPushInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PushWorker{
		job:      job,
		interval: interval,
		logger:   log.WithComponent("push_worker"),
	}
}

// Run implements [Worker]. It pushes the outbox once right away and then on
// every tick until ctx is cancelled. A failed cycle is logged and the next
// tick tries again.
func (w *PushWorker) Run(ctx context.Context) error {
	w.cycle(ctx)

	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.cycle(ctx)
		}
	}
}

// Start runs the worker in the background. Any previously started run is
// stopped first.
func (w *PushWorker) Start(ctx context.Context) {
	w.Stop()

	w.mu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		_ = w.Run(runCtx)
	}()
}

// Stop cancels a background run and waits for it to exit. Safe to call when
// the worker is not running.
func (w *PushWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *PushWorker) cycle(ctx context.Context) {
	report, err := w.job.RunOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Err(err).Str("func", "PushWorker.cycle").Msg("outbox push cycle failed")
		return
	}
	if report.Failed > 0 {
		w.logger.Warn().
			Int("pushed", report.Pushed).
			Int("failed", report.Failed).
			Msg("outbox push cycle left failures")
	}
}
