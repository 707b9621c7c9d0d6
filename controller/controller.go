package controller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sapslaj/do-dyndns/address"
	"github.com/sapslaj/do-dyndns/provider"
	"github.com/sapslaj/do-dyndns/reconciler"
)

// Reconciler is the per-pass reconciliation capability the controller
// schedules.
type Reconciler interface {
	Reconcile(ctx context.Context, families []address.Family) ([]reconciler.Outcome, error)
}

// Controller drives the reconciler on a schedule. One pass reconciles every
// enabled family; between passes the controller sleeps for Interval. Only
// authorization failures stop the loop; everything else is logged and
// retried on the next pass.
type Controller struct {
	Reconciler Reconciler
	Families   []address.Family
	// The interval between individual reconciliation passes
	Interval time.Duration
	// Logger instance
	Logger *zap.Logger
	// The nextRunAt used for throttling passes
	nextRunAt time.Time
	// The nextRunAtMux is for atomic updating of nextRunAt
	nextRunAtMux sync.Mutex
	// lastSeen remembers the previously resolved address per family for
	// change logging. Advisory only; it never short-circuits a pass.
	lastSeen map[address.Family]string
}

// RunOnce runs a single reconciliation pass. The returned error aggregates
// every per-family failure; callers that keep looping should only treat it
// as fatal when provider.IsAuthError reports an authorization failure.
func (c *Controller) RunOnce(ctx context.Context) error {
	logger := c.Logger.Sugar()
	start := time.Now()

	outcomes, fatalErr := c.Reconciler.Reconcile(ctx, c.Families)

	var errs error
	for _, outcome := range outcomes {
		MetricOutcomes.WithLabelValues(string(outcome.Family), string(outcome.Kind)).Inc()
		if outcome.Kind == reconciler.OutcomeFailed {
			errs = multierr.Append(errs, outcome.Err)
			continue
		}
		c.noteAddress(outcome)
	}
	errs = multierr.Append(errs, fatalErr)

	status := "success"
	switch {
	case fatalErr != nil:
		status = "fatal"
	case errs != nil:
		status = "failed"
	}
	MetricPasses.WithLabelValues(status).Inc()
	MetricLastRunTimestamp.SetToCurrentTime()
	duration := time.Since(start)
	MetricLastRunDurationSeconds.Set(duration.Seconds())
	MetricRunDurationSeconds.Observe(duration.Seconds())

	logger.Infow(
		"reconciliation pass finished",
		"status", status,
		"duration", duration,
		"families", len(c.Families),
	)
	return errs
}

func (c *Controller) noteAddress(outcome reconciler.Outcome) {
	if outcome.Address == "" {
		return
	}
	if c.lastSeen == nil {
		c.lastSeen = make(map[address.Family]string)
	}
	previous := c.lastSeen[outcome.Family]
	if previous != "" && previous != outcome.Address {
		c.Logger.Sugar().Infow(
			"public address changed since last pass",
			"family", outcome.Family,
			"previous", previous,
			"current", outcome.Address,
		)
	}
	c.lastSeen[outcome.Family] = outcome.Address
}

// ShouldRunOnce makes sure execution happens at most once per interval.
func (c *Controller) ShouldRunOnce(now time.Time) bool {
	c.nextRunAtMux.Lock()
	defer c.nextRunAtMux.Unlock()
	if now.Before(c.nextRunAt) {
		return false
	}
	c.nextRunAt = now.Add(c.Interval)
	return true
}

// Run runs RunOnce in a loop with a delay until the context is canceled or
// a fatal error occurs.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		if c.ShouldRunOnce(time.Now()) {
			err := c.RunOnce(ctx)
			if err != nil {
				if provider.IsAuthError(err) {
					c.Logger.Error("authorization failure, stopping", zap.Error(err))
					return err
				}
				c.Logger.Sugar().Errorw("pass failed; retrying next interval", "err", err)
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			c.Logger.Info("Terminating reconciliation loop")
			return nil
		}
	}
}
