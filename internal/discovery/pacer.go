package discovery

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pacer enforces a fixed pause before every oracle call, measured from the
// end of the previous call. It never adapts.
type pacer struct {
	lim *rate.Limiter // nil when there is no cooldown
}

func newPacer(cooldown time.Duration) *pacer {
	if cooldown <= 0 {
		return &pacer{}
	}
	p := &pacer{lim: rate.NewLimiter(rate.Every(cooldown), 1)}
	p.rest(time.Now())
	return p
}

// Wait blocks until the cooldown has elapsed or ctx is done.
func (p *pacer) Wait(ctx context.Context) error {
	if p.lim == nil {
		return ctx.Err()
	}
	return p.lim.Wait(ctx)
}

// rest empties the bucket at t, so the next Wait lasts a full cooldown.
func (p *pacer) rest(t time.Time) {
	if p.lim == nil {
		return
	}
	p.lim.SetBurstAt(t, 0)
	p.lim.SetBurstAt(t, 1)
}
