package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/halytel/cdr-ingest/pkg/metrics"
)

// Pinger periodically probes external health-check endpoints and publishes an
// up/down gauge per target.
type Pinger struct {
	logger   *log.Logger
	recorder metrics.Recorder
	client   *http.Client
	targets  []string
	interval time.Duration
}

func NewPinger(logger *log.Logger, recorder metrics.Recorder, targets []string, interval time.Duration) *Pinger {
	return &Pinger{
		logger:   logger,
		recorder: recorder,
		client:   &http.Client{Timeout: 10 * time.Second},
		targets:  targets,
		interval: interval,
	}
}

// Run pings every target once immediately, then on each tick until the
// context is canceled.
func (p *Pinger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pingAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pingAll(ctx)
		}
	}
}

func (p *Pinger) pingAll(ctx context.Context) {
	for _, target := range p.targets {
		up := 1.0
		if err := p.ping(ctx, target); err != nil {
			up = 0
			p.logger.Warn("health check failed", "target", target, "error", err)
		}
		p.recorder.GaugeSet(metrics.MetricHealthcheckUp, up, metrics.Labels{"target": target})
	}
}

func (p *Pinger) ping(ctx context.Context, target string) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	response, err := p.client.Do(request)
	if err != nil {
		return err
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("health check returned status %d", response.StatusCode)
	}
	return nil
}
