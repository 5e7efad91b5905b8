// Package health probes provider routes and feeds the routing engine.
package health

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/speechgate/speechgate/internal/config"
	"github.com/speechgate/speechgate/internal/providers"
	"github.com/speechgate/speechgate/internal/router"
)

const defaultProbeTimeout = 10 * time.Second

// Monitor periodically runs each route's health hook (for ElevenLabs routes
// that is the credential probe) and reports the outcome to the engine. Routes
// that failed their last probe are left alone until the cooldown elapses, so
// a revoked key is not hammered with probe traffic every sweep.
type Monitor struct {
	engine       *router.Engine
	interval     time.Duration
	cooldown     time.Duration
	probeTimeout time.Duration
	getRoutes    func() map[string][]providers.Route

	mu          sync.Mutex
	lastFailure map[string]time.Time

	startOnce sync.Once
}

// NewMonitor constructs a monitor using the health configuration.
func NewMonitor(engine *router.Engine, cfg config.HealthConfig) *Monitor {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = time.Minute
	}
	cooldown := cfg.Cooldown
	if cooldown < 0 {
		cooldown = 0
	}
	probeTimeout := defaultProbeTimeout
	if probeTimeout > interval {
		probeTimeout = interval
	}

	return &Monitor{
		engine:       engine,
		interval:     interval,
		cooldown:     cooldown,
		probeTimeout: probeTimeout,
		lastFailure:  make(map[string]time.Time),
	}
}

// Start begins the monitoring loop until ctx is canceled.
func (m *Monitor) Start(ctx context.Context, getRoutes func() map[string][]providers.Route) {
	if getRoutes == nil || m.engine == nil {
		return
	}
	m.getRoutes = getRoutes

	m.startOnce.Do(func() {
		go m.run(ctx)
	})
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.checkRoutes(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkRoutes(ctx)
		}
	}
}

func (m *Monitor) checkRoutes(ctx context.Context) {
	routes := m.getRoutes()
	if len(routes) == 0 {
		return
	}

	var wg sync.WaitGroup
	for alias, rs := range routes {
		for _, route := range rs {
			if route.Health == nil {
				continue
			}
			if m.coolingDown(alias, route) {
				continue
			}

			wg.Add(1)
			go func(alias string, route providers.Route) {
				defer wg.Done()
				m.probe(ctx, alias, route)
			}(alias, route)
		}
	}
	wg.Wait()
}

func (m *Monitor) probe(ctx context.Context, alias string, route providers.Route) {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	key := probeKey(alias, route)
	if err := route.Health(probeCtx); err != nil {
		log.Printf("health: probe %s failed: %v", key, err)
		m.engine.ReportFailure(alias, route)
		m.mu.Lock()
		m.lastFailure[key] = time.Now()
		m.mu.Unlock()
		return
	}

	m.engine.ReportSuccess(alias, route)
	m.mu.Lock()
	delete(m.lastFailure, key)
	m.mu.Unlock()
}

func (m *Monitor) coolingDown(alias string, route providers.Route) bool {
	if m.cooldown <= 0 {
		return false
	}
	m.mu.Lock()
	failedAt, ok := m.lastFailure[probeKey(alias, route)]
	m.mu.Unlock()
	return ok && time.Since(failedAt) < m.cooldown
}

func probeKey(alias string, route providers.Route) string {
	return alias + "::" + route.ResolveDeployment()
}
