// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utilmetric

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/luxfi/metric"
)

// APIInterceptor records per-method latency and error counts for a
// gorilla/rpc server.
type APIInterceptor interface {
	InterceptRequest(i *rpc.RequestInfo) *http.Request
	AfterRequest(i *rpc.RequestInfo)
}

type contextKey int

const requestTimestampKey contextKey = iota

type apiInterceptor struct {
	requestDuration metric.HistogramVec
	requestErrors   metric.CounterVec
}

func NewAPIInterceptor(registry metric.Registry) (APIInterceptor, error) {
	a := &apiInterceptor{
		requestDuration: metric.NewHistogramVec(
			metric.HistogramOpts{
				Name:    "api_request_duration_seconds",
				Help:    "Time spent handling API requests",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		requestErrors: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "api_request_errors",
				Help: "Number of API requests that returned an error",
			},
			[]string{"method"},
		),
	}
	err := errors.Join(
		registry.Register(a.requestDuration),
		registry.Register(a.requestErrors),
	)
	return a, err
}

func (*apiInterceptor) InterceptRequest(i *rpc.RequestInfo) *http.Request {
	ctx := context.WithValue(i.Request.Context(), requestTimestampKey, time.Now())
	return i.Request.WithContext(ctx)
}

func (a *apiInterceptor) AfterRequest(i *rpc.RequestInfo) {
	start, ok := i.Request.Context().Value(requestTimestampKey).(time.Time)
	if !ok {
		return
	}

	labels := metric.Labels{"method": i.Method}
	a.requestDuration.With(labels).Observe(time.Since(start).Seconds())
	if i.Error != nil {
		a.requestErrors.With(labels).Inc()
	}
}
