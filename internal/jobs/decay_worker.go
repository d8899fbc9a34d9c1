package jobs

import (
	"context"
	"time"

	"github.com/VitalPointAI/argus-sub001/internal/platform/envutil"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
	"github.com/VitalPointAI/argus-sub001/internal/services"
)

// DecayWorker runs the reputation decay pass on a fixed interval. The pass
// itself is gated per source, so the interval only controls how promptly a
// source is picked up once it goes stale.
type DecayWorker struct {
	log      *logger.Logger
	decay    services.DecayService
	interval time.Duration
	enabled  bool
}

func NewDecayWorker(baseLog *logger.Logger, decay services.DecayService) *DecayWorker {
	return &DecayWorker{
		log:      baseLog.With("component", "DecayWorker"),
		decay:    decay,
		interval: envutil.Duration("DECAY_INTERVAL", 24*time.Hour),
		enabled:  envutil.Bool("DECAY_WORKER_ENABLED", true),
	}
}

func (w *DecayWorker) Start(ctx context.Context) {
	if !w.enabled {
		w.log.Info("decay worker disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		w.log.Info("decay worker started", "interval", w.interval)
		// One pass right away, then on the ticker.
		w.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				w.log.Info("decay worker stopped")
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

func (w *DecayWorker) runOnce(ctx context.Context) {
	// A panicking pass must not take the worker loop down with it.
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("decay pass panic", "panic", r)
		}
	}()
	summary, err := w.decay.ApplyReputationDecay(ctx)
	if err != nil {
		w.log.Warn("decay pass failed", "error", err)
		return
	}
	w.log.Info("scheduled decay pass finished",
		"processed", summary.Processed,
		"decayed", summary.Decayed)
}
