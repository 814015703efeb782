package app

import (
	"time"

	"testseries-service/internal/domain"
)

// Option tunes a service.
type Option func(*options)

type options struct {
	now    func() time.Time
	loc    *time.Location
	prices map[domain.Series]int64
}

func defaultOptions() options {
	return options{
		now:    time.Now,
		loc:    time.Local,
		prices: map[domain.Series]int64{},
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the wall clock; tests use it for deterministic windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLocation sets the zone used to read zone-less live quiz times.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithPrices sets the per-series price table.
func WithPrices(prices map[domain.Series]int64) Option {
	return func(o *options) {
		for k, v := range prices {
			o.prices[k] = v
		}
	}
}
