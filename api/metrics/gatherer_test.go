// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"
	"testing"

	"github.com/luxfi/metric"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

var errGather = errors.New("gather failed")

type staticGatherer struct {
	names []string
	err   error
}

func (g *staticGatherer) Gather() ([]*metric.MetricFamily, error) {
	families := make([]*metric.MetricFamily, 0, len(g.names))
	for _, name := range g.names {
		families = append(families, &metric.MetricFamily{Name: proto.String(name)})
	}
	return families, g.err
}

func names(families []*metric.MetricFamily) []string {
	out := make([]string, 0, len(families))
	for _, family := range families {
		out = append(out, family.GetName())
	}
	return out
}

func TestGatherNamespacesAndSorts(t *testing.T) {
	require := require.New(t)

	g := NewPrefixGatherer()
	require.NoError(g.Register("node", &staticGatherer{names: []string{"go_goroutines"}}))
	require.NoError(g.Register("bridge", &staticGatherer{names: []string{"votes", "", "fees"}}))

	families, err := g.Gather()
	require.NoError(err)
	require.Equal([]string{"bridge", "bridge_fees", "bridge_votes", "node_go_goroutines"}, names(families))
}

func TestGatherEmpty(t *testing.T) {
	require := require.New(t)

	families, err := NewPrefixGatherer().Gather()
	require.NoError(err)
	require.Empty(families)
}

func TestGatherReturnsPartialResults(t *testing.T) {
	require := require.New(t)

	g := NewPrefixGatherer()
	require.NoError(g.Register("a", &staticGatherer{names: []string{"ok"}}))
	require.NoError(g.Register("b", &staticGatherer{names: []string{"partial"}, err: errGather}))

	families, err := g.Gather()
	require.ErrorIs(err, errGather)
	require.Equal([]string{"a_ok", "b_partial"}, names(families))
}

func TestRegisterOverlap(t *testing.T) {
	tests := []struct {
		name        string
		existing    string
		namespace   string
		expectedErr error
	}{
		{
			name:        "distinct",
			existing:    "bridge",
			namespace:   "http",
			expectedErr: nil,
		},
		{
			name:        "duplicate",
			existing:    "bridge",
			namespace:   "bridge",
			expectedErr: errOverlappingNamespaces,
		},
		{
			name:        "extends past boundary",
			existing:    "bridge",
			namespace:   "bridge_admin",
			expectedErr: errOverlappingNamespaces,
		},
		{
			name:        "shared prefix without boundary",
			existing:    "bridge",
			namespace:   "bridges",
			expectedErr: nil,
		},
		{
			name:        "empty namespace",
			existing:    "bridge",
			namespace:   "",
			expectedErr: errOverlappingNamespaces,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			g := NewPrefixGatherer()
			require.NoError(g.Register(test.existing, &staticGatherer{}))
			err := g.Register(test.namespace, &staticGatherer{})
			require.ErrorIs(err, test.expectedErr)
		})
	}
}

func TestDeregister(t *testing.T) {
	require := require.New(t)

	g := NewPrefixGatherer()
	require.NoError(g.Register("bridge", &staticGatherer{names: []string{"votes"}}))
	require.True(g.Deregister("bridge"))
	require.False(g.Deregister("bridge"))

	families, err := g.Gather()
	require.NoError(err)
	require.Empty(families)

	require.NoError(g.Register("bridge", &staticGatherer{}))
}

func TestMakeAndRegister(t *testing.T) {
	require := require.New(t)

	g := NewPrefixGatherer()
	registry, err := MakeAndRegister(g, "bridge")
	require.NoError(err)

	counter := metric.NewCounter(metric.CounterOpts{Name: "settled", Help: "help"})
	require.NoError(registry.Register(counter))
	counter.Inc()

	families, err := g.Gather()
	require.NoError(err)
	require.Len(families, 1)
	require.Equal("bridge_settled", families[0].GetName())
	require.Equal(float64(1), families[0].GetMetric()[0].GetCounter().GetValue())

	_, err = MakeAndRegister(g, "bridge")
	require.ErrorIs(err, errOverlappingNamespaces)
}
