// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import "github.com/luxfi/metric"

type healthMetrics struct {
	// failing checks, labeled by tag
	failing metric.GaugeVec
}

func newMetrics(registry metric.Registry) *healthMetrics {
	m := &healthMetrics{
		failing: metric.NewWithRegistry("", registry).NewGaugeVec(
			"checks_failing",
			"Number of health checks currently failing",
			[]string{"tag"},
		),
	}
	for _, tag := range []string{AllTag, ApplicationTag} {
		m.failing.With(metric.Labels{"tag": tag}).Set(0)
	}
	return m
}
