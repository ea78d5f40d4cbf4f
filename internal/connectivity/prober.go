package connectivity

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Prober periodically requests a probe URL and feeds the result into a
// Monitor. It complements (and can coexist with) platform signals
// injected through the API.
type Prober struct {
	httpClient *resty.Client
	monitor    *Monitor
	url        string
	interval   time.Duration
}

func NewProber(monitor *Monitor, url string, interval time.Duration, timeout time.Duration) *Prober {
	return &Prober{
		httpClient: resty.New().SetTimeout(timeout),
		monitor:    monitor,
		url:        url,
		interval:   interval,
	}
}

// Run probes until ctx is done. Each probe result is reported as a
// full signal: a reachable probe implies the internet is reachable.
func (p *Prober) Run(ctx context.Context) {
	log.Info().Str("url", p.url).Dur("interval", p.interval).Msg("Connectivity prober started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok := p.probe(ctx)
			p.monitor.Apply(Signal{Connected: ok, InternetReachable: &ok})
		}
	}
}

func (p *Prober) probe(ctx context.Context) bool {
	resp, err := p.httpClient.R().SetContext(ctx).Get(p.url)
	if err != nil {
		log.Debug().Err(err).Str("url", p.url).Msg("Connectivity probe failed")
		return false
	}
	return !resp.IsError()
}
