// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"
	"strconv"

	"github.com/luxfi/metric"

	utilmetric "github.com/luxfi/bridge/utils/metric"
	"github.com/luxfi/bridge/vms/bridgevm/codes"
	"github.com/luxfi/bridge/vms/bridgevm/state"
)

const (
	directionLabel = "direction"
	statusLabel    = "status"
	decisionLabel  = "decision"
	opLabel        = "op"
	codeLabel      = "code"

	// codeLabel value for errors without a bridge code
	uncoded = "internal"
)

var _ Metrics = (*metrics)(nil)

type Metrics interface {
	utilmetric.APIInterceptor

	// Observe updates counters from an event committed to the log.
	Observe(*state.Event)
	// MarkFailed records an operation that aborted with err.
	MarkFailed(op string, err error)
}

type metrics struct {
	utilmetric.APIInterceptor

	initiated      metric.CounterVec
	settled        metric.CounterVec
	votes          metric.CounterVec
	failures       metric.CounterVec
	volume         metric.Counter
	fees           metric.Counter
	paused         metric.Gauge
	validators     metric.Gauge
	threshold      metric.Gauge
	setVersion     metric.Gauge
	assets         metric.Gauge
	pendingUpgrade metric.Gauge
}

// New registers the engine metrics on registry.
func New(registry metric.Registry) (Metrics, error) {
	interceptor, err := utilmetric.NewAPIInterceptor(registry)
	if err != nil {
		return nil, err
	}

	m := &metrics{
		APIInterceptor: interceptor,
		initiated: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "requests_initiated",
				Help: "Number of bridge requests created",
			},
			[]string{directionLabel},
		),
		settled: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "requests_settled",
				Help: "Number of bridge requests that reached a terminal status",
			},
			[]string{statusLabel},
		),
		votes: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "votes",
				Help: "Number of validator votes recorded",
			},
			[]string{decisionLabel},
		),
		failures: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "failed_operations",
				Help: "Number of operations aborted, by error code",
			},
			[]string{opLabel, codeLabel},
		),
		volume: metric.NewCounter(metric.CounterOpts{
			Name: "volume",
			Help: "Gross amount of all initiated requests",
		}),
		fees: metric.NewCounter(metric.CounterOpts{
			Name: "fees",
			Help: "Fees charged on initiated requests",
		}),
		paused: metric.NewGauge(metric.GaugeOpts{
			Name: "paused",
			Help: "1 if the bridge is paused",
		}),
		validators: metric.NewGauge(metric.GaugeOpts{
			Name: "validators",
			Help: "Number of validators in the current set",
		}),
		threshold: metric.NewGauge(metric.GaugeOpts{
			Name: "threshold",
			Help: "Approval threshold of the current validator set",
		}),
		setVersion: metric.NewGauge(metric.GaugeOpts{
			Name: "validator_set_version",
			Help: "Version of the current validator set",
		}),
		assets: metric.NewGauge(metric.GaugeOpts{
			Name: "registered_assets",
			Help: "Number of registered (asset, chain) pairs",
		}),
		pendingUpgrade: metric.NewGauge(metric.GaugeOpts{
			Name: "pending_upgrade",
			Help: "1 if a validator set upgrade is waiting for its timelock",
		}),
	}

	err = errors.Join(
		registry.Register(m.initiated),
		registry.Register(m.settled),
		registry.Register(m.votes),
		registry.Register(m.failures),
		registry.Register(m.volume),
		registry.Register(m.fees),
		registry.Register(m.paused),
		registry.Register(m.validators),
		registry.Register(m.threshold),
		registry.Register(m.setVersion),
		registry.Register(m.assets),
		registry.Register(m.pendingUpgrade),
	)
	return m, err
}

func (m *metrics) Observe(e *state.Event) {
	switch e.Type {
	case state.EventRequestInitiated:
		m.initiated.With(metric.Labels{directionLabel: e.Direction.String()}).Inc()
		m.volume.Add(float64(e.Amount))
		m.fees.Add(float64(e.Fee))
	case state.EventValidatorVoted:
		m.votes.With(metric.Labels{decisionLabel: decision(e.Approved)}).Inc()
	case state.EventRequestCompleted, state.EventRequestRejected,
		state.EventRequestCancelled, state.EventRequestExpired:
		m.settled.With(metric.Labels{statusLabel: e.Status.String()}).Inc()
	case state.EventPauseToggled:
		m.paused.Set(boolToFloat(e.Flag))
	case state.EventAssetRegistered:
		m.assets.Inc()
	case state.EventUpgradeProposed:
		m.pendingUpgrade.Set(1)
	case state.EventBridgeInitialized, state.EventValidatorAdded,
		state.EventValidatorRemoved, state.EventUpgradeApplied:
		m.validators.Set(float64(e.ValidatorCount))
		m.threshold.Set(float64(e.Threshold))
		m.setVersion.Set(float64(e.SetVersion))
		if e.Type == state.EventUpgradeApplied {
			m.pendingUpgrade.Set(0)
		}
	}
}

func (m *metrics) MarkFailed(op string, err error) {
	code := uncoded
	if coded, ok := codes.Of(err); ok {
		code = strconv.FormatUint(uint64(coded.Code), 10)
	}
	m.failures.With(metric.Labels{opLabel: op, codeLabel: code}).Inc()
}

func decision(approved bool) string {
	if approved {
		return "approve"
	}
	return "reject"
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
