// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics merges the daemon's per-component registries into the
// single gatherer served on /ext/metrics.
package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/luxfi/metric"
	"google.golang.org/protobuf/proto"
)

var errOverlappingNamespaces = errors.New("namespace overlaps a registered namespace")

// Gatherer serves the metrics of every registered component, each under its
// own namespace.
type Gatherer interface {
	metric.Gatherer

	// Register namespaces the output of gatherer. Namespaces may not overlap
	// at a '_' boundary, so "bridge" excludes "bridge_admin" but not
	// "bridges".
	Register(namespace string, gatherer metric.Gatherer) error

	// Deregister drops the component registered under namespace and reports
	// whether one was found.
	Deregister(namespace string) bool
}

type component struct {
	namespace string
	gatherer  metric.Gatherer
}

type namespacedGatherer struct {
	lock       sync.RWMutex
	components []component
}

// NewPrefixGatherer returns an empty Gatherer.
func NewPrefixGatherer() Gatherer {
	return &namespacedGatherer{}
}

func (g *namespacedGatherer) Register(namespace string, gatherer metric.Gatherer) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	for _, c := range g.components {
		if overlaps(namespace, c.namespace) {
			return fmt.Errorf("%w: %q conflicts with %q", errOverlappingNamespaces, namespace, c.namespace)
		}
	}
	g.components = append(g.components, component{
		namespace: namespace,
		gatherer:  gatherer,
	})
	return nil
}

func (g *namespacedGatherer) Deregister(namespace string) bool {
	g.lock.Lock()
	defer g.lock.Unlock()

	for i, c := range g.components {
		if c.namespace == namespace {
			g.components = append(g.components[:i], g.components[i+1:]...)
			return true
		}
	}
	return false
}

// Gather returns the families gathered so far alongside the first error, so
// one failing component does not hide the others that preceded it.
func (g *namespacedGatherer) Gather() ([]*metric.MetricFamily, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()

	var (
		families []*metric.MetricFamily
		err      error
	)
	for _, c := range g.components {
		gathered, gatherErr := c.gatherer.Gather()
		for _, family := range gathered {
			name := c.namespace
			if family.GetName() != "" {
				name = metric.AppendNamespace(c.namespace, family.GetName())
			}
			family.Name = proto.String(name)
		}
		families = append(families, gathered...)
		if gatherErr != nil {
			err = gatherErr
			break
		}
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families, err
}

// overlaps reports whether one namespace is the other, or extends it past a
// '_' boundary. The empty namespace overlaps everything.
func overlaps(a, b string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	if !strings.HasPrefix(b, a) {
		return false
	}
	return a == "" || len(a) == len(b) || b[len(a)] == '_'
}

// MakeAndRegister creates a registry and registers it with gatherer under
// namespace.
func MakeAndRegister(gatherer Gatherer, namespace string) (metric.Registry, error) {
	registry := metric.NewRegistry()
	if err := gatherer.Register(namespace, registry); err != nil {
		return nil, fmt.Errorf("couldn't register %q metrics: %w", namespace, err)
	}
	return registry, nil
}
