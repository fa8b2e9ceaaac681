package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/busservo/pkg/framework"
	"github.com/robotalks/busservo/pkg/servo"
)

// Poller reads the status of servos periodically.
type Poller struct {
	Bus        *servo.Bus
	Source     string
	IDs        []int
	Interval   time.Duration
	Publishers []Publisher
}

// Name implements Named.
func (p *Poller) Name() string {
	return "poller"
}

// Run implements Runnable.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		if err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Warning(err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll reads every servo once and publishes the samples. A servo
// failing to respond doesn't stop the others.
func (p *Poller) Poll(ctx context.Context) error {
	errs := &fx.AggregatedError{}
	for _, id := range p.IDs {
		st, err := p.Bus.ReadStatus(ctx, id)
		if err != nil {
			errs.Add(fmt.Errorf("servo %d: %w", id, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		s := &Sample{Source: p.Source, Time: time.Now(), Status: *st}
		for _, pub := range p.Publishers {
			errs.Add(pub.Publish(s))
		}
	}
	return errs.Aggregate()
}
