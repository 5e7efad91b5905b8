// Package router selects healthy provider routes for a public alias.
package router

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/speechgate/speechgate/internal/providers"
)

type Engine struct {
	mu     sync.RWMutex
	routes map[string][]providers.Route
	state  map[string]*routeState
}

type routeState struct {
	consecutiveFailures int
	openUntil           time.Time
}

const (
	failureThreshold = 3
	openDuration     = time.Minute
)

func NewEngine() *Engine {
	return &Engine{
		routes: make(map[string][]providers.Route),
		state:  make(map[string]*routeState),
	}
}

// Reload rebuilds the route table from the factory, preserving health state
// for deployments that survive the reload.
func (e *Engine) Reload(ctx context.Context, factory *providers.Factory) error {
	routes, err := factory.Build(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	newState := make(map[string]*routeState, len(routes))
	for alias, rts := range routes {
		for _, route := range rts {
			key := routeKey(alias, route)
			if old, ok := e.state[key]; ok {
				newState[key] = old
			} else {
				newState[key] = &routeState{}
			}
		}
	}

	e.routes = routes
	e.state = newState
	return nil
}

// SelectRoutes returns the healthy routes for alias, weighted-first.
func (e *Engine) SelectRoutes(alias string) []providers.Route {
	e.mu.RLock()
	defer e.mu.RUnlock()

	healthy := make([]providers.Route, 0)
	now := time.Now()
	for _, route := range e.routes[alias] {
		st := e.state[routeKey(alias, route)]
		if st == nil || st.openUntil.Before(now) {
			healthy = append(healthy, route)
		}
	}

	if len(healthy) <= 1 {
		return healthy
	}

	idx := weightedSelect(healthy)
	if idx != 0 {
		selected := healthy[idx]
		healthy[idx] = healthy[0]
		healthy[0] = selected
	}

	return healthy
}

func (e *Engine) ReportSuccess(alias string, route providers.Route) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state[routeKey(alias, route)]
	if st == nil {
		st = &routeState{}
		e.state[routeKey(alias, route)] = st
	}
	st.consecutiveFailures = 0
	st.openUntil = time.Time{}
}

func (e *Engine) ReportFailure(alias string, route providers.Route) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state[routeKey(alias, route)]
	if st == nil {
		st = &routeState{}
		e.state[routeKey(alias, route)] = st
	}

	st.consecutiveFailures++
	if st.consecutiveFailures >= failureThreshold {
		st.openUntil = time.Now().Add(openDuration)
	}
}

func weightedSelect(routes []providers.Route) int {
	total := 0
	for _, r := range routes {
		if r.Weight > 0 {
			total += r.Weight
		}
	}
	if total == 0 {
		return rand.Intn(len(routes))
	}
	draw := rand.Intn(total)
	sum := 0
	for idx, r := range routes {
		weight := r.Weight
		if weight <= 0 {
			weight = 1
		}
		sum += weight
		if draw < sum {
			return idx
		}
	}
	return 0
}

func routeKey(alias string, route providers.Route) string {
	deployment := route.Metadata["deployment"]
	if deployment == "" {
		deployment = route.Model
	}
	return alias + "::" + deployment
}

// ListAliases returns the set of configured aliases and their routes.
func (e *Engine) ListAliases() map[string][]providers.Route {
	e.mu.RLock()
	defer e.mu.RUnlock()

	copyMap := make(map[string][]providers.Route, len(e.routes))
	for alias, routes := range e.routes {
		out := make([]providers.Route, len(routes))
		copy(out, routes)
		copyMap[alias] = out
	}
	return copyMap
}
