package feed

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-client/models"
)

// Fetcher retrieves the full history batch for one vehicle.
type Fetcher func(ctx context.Context, vehicleNumber string) ([]models.TruckMessage, error)

// Poller refreshes a feed's history on a fixed interval while its view is
// active. One fetch fires immediately on Start, independent of the first
// interval tick; there is no adaptive cadence and no backoff.
type Poller struct {
	cron     *cron.Cron
	feed     *Feed
	fetch    Fetcher
	interval time.Duration
	timeout  time.Duration
}

// NewPoller creates a poller for the feed. Interval defaults to one second,
// the cadence the message view always used.
func NewPoller(f *Feed, fetch Fetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{
		cron:     cron.New(),
		feed:     f,
		fetch:    fetch,
		interval: interval,
		timeout:  10 * time.Second,
	}
}

// Start fires the initial fetch and schedules the recurring ones
func (p *Poller) Start() error {
	p.runOnce()
	if _, err := p.cron.AddFunc("@every "+p.interval.String(), p.runOnce); err != nil {
		return err
	}
	p.cron.Start()
	zap.S().Debugw("message poller started", "vehicle", p.feed.Vehicle(), "interval", p.interval)
	return nil
}

// Stop halts the schedule and waits for any in-flight fetch to finish
func (p *Poller) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
	zap.S().Debugw("message poller stopped", "vehicle", p.feed.Vehicle())
}

func (p *Poller) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	batch, err := p.fetch(ctx, p.feed.Vehicle())
	if err != nil {
		// previous data is retained; the error becomes the user-facing string
		p.feed.SetError(err)
		return
	}
	p.feed.ApplyHistory(batch)
}
