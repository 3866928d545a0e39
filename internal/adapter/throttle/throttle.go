// Package throttle enforces a minimum delay between forward geocoding calls.
package throttle

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
)

// ThrottledGeocoder spaces forward lookups at least minDelay apart and bounds
// each provider call with a timeout. Reverse lookups are interactive and pass
// straight through with the same timeout.
type ThrottledGeocoder struct {
	inner   domain.Geocoder
	limiter *rate.Limiter
	timeout time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// New wraps inner. A zero minDelay disables throttling and a zero timeout
// leaves calls bounded only by the caller's context.
func New(inner domain.Geocoder, minDelay, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *ThrottledGeocoder {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &ThrottledGeocoder{
		inner:   inner,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
		clock:   clock,
		metrics: metrics,
	}
}

func (g *ThrottledGeocoder) ForwardGeocode(ctx context.Context, address string) (domain.GeocodingResult, error) {
	if err := g.wait(ctx); err != nil {
		return domain.GeocodingResult{}, err
	}
	ctx, cancel := g.bound(ctx)
	defer cancel()
	return g.inner.ForwardGeocode(ctx, address)
}

func (g *ThrottledGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	return g.inner.ReverseGeocode(ctx, lat, lon)
}

// wait blocks until the limiter grants the next call slot.
func (g *ThrottledGeocoder) wait(ctx context.Context) error {
	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	g.metrics.GeocodeThrottleWait.Observe(delay.Seconds())
	if delay <= 0 {
		return nil
	}

	timer := g.clock.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		r.CancelAt(g.clock.Now())
		return ctx.Err()
	}
}

func (g *ThrottledGeocoder) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}
