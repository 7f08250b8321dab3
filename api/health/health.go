// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/luxfi/log"
	"github.com/luxfi/metric"
)

const (
	// AllTag is automatically added to every registered check.
	AllTag = "all"
	// ApplicationTag checks will act as if they specified every tag that has
	// been registered.
	ApplicationTag = "application"
)

var errDuplicateCheck = errors.New("duplicated check")

// Checker can have its health checked
type Checker interface {
	// HealthCheck returns health check results and, if not healthy, a non-nil
	// error
	//
	// It is expected that the results are json marshallable.
	HealthCheck(context.Context) (interface{}, error)
}

type CheckerFunc func(context.Context) (interface{}, error)

func (f CheckerFunc) HealthCheck(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

// Result is the outcome of one check.
type Result struct {
	// Details of the HealthCheck.
	Details interface{} `json:"message,omitempty"`

	// Error is the string representation of the error returned by the failing
	// HealthCheck. The value is nil if the check passed.
	Error *string `json:"error,omitempty"`

	// Timestamp of the last HealthCheck.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// Duration is the amount of time this HealthCheck last took to evaluate.
	Duration time.Duration `json:"duration"`
}

type check struct {
	checker Checker
	tags    []string
}

// Health runs registered checks on demand.
type Health struct {
	log     log.Logger
	metrics *healthMetrics

	lock   sync.RWMutex
	checks map[string]check
}

// New registers the checks_failing gauge on registry. It panics if the
// registry already holds it.
func New(log log.Logger, registry metric.Registry) *Health {
	return &Health{
		log:     log,
		metrics: newMetrics(registry),
		checks:  make(map[string]check),
	}
}

// RegisterHealthCheck adds a check reported under name.
func (h *Health) RegisterHealthCheck(name string, checker Checker, tags ...string) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, ok := h.checks[name]; ok {
		return fmt.Errorf("%w: %q", errDuplicateCheck, name)
	}
	h.checks[name] = check{
		checker: checker,
		tags:    append(slices.Clone(tags), AllTag),
	}
	return nil
}

// Health runs the checks carrying any of tags, or every check when no tag is
// given, and reports whether all of them passed.
func (h *Health) Health(ctx context.Context, tags ...string) (map[string]Result, bool) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	if len(tags) == 0 {
		tags = []string{AllTag}
	}

	results := make(map[string]Result)
	healthy := true
	failing := 0
	for name, c := range h.checks {
		if !c.matches(tags) {
			continue
		}

		start := time.Now()
		details, err := c.checker.HealthCheck(ctx)
		result := Result{
			Details:   details,
			Timestamp: start,
			Duration:  time.Since(start),
		}
		if err != nil {
			errString := err.Error()
			result.Error = &errString
			healthy = false
			failing++
			h.log.Warn("health check failing",
				log.String("name", name),
				log.Err(err),
			)
		}
		results[name] = result
	}
	for _, tag := range tags {
		h.metrics.failing.With(metric.Labels{"tag": tag}).Set(float64(failing))
	}
	return results, healthy
}

func (c check) matches(tags []string) bool {
	if slices.Contains(c.tags, ApplicationTag) {
		return true
	}
	for _, tag := range tags {
		if slices.Contains(c.tags, tag) {
			return true
		}
	}
	return false
}
