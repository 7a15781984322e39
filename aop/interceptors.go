/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package aop

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"time"
)

/**
Runs the check before the call, error prevents the call
*/
func Before(check func(inv *Invocation) error) MethodInterceptor {
	return InterceptorFunc(func(inv *Invocation) ([]interface{}, error) {
		if err := check(inv); err != nil {
			return nil, err
		}
		return inv.Proceed()
	})
}

/**
Observes results of successful calls
*/
func AfterReturning(observe func(inv *Invocation, results []interface{})) MethodInterceptor {
	return InterceptorFunc(func(inv *Invocation) ([]interface{}, error) {
		results, err := inv.Proceed()
		if err == nil {
			observe(inv, results)
		}
		return results, err
	})
}

/**
Logs every call with method name, elapsed time and error
*/
type LoggingInterceptor struct {
	Log logrus.FieldLogger
}

func NewLoggingInterceptor(log logrus.FieldLogger) *LoggingInterceptor {
	return &LoggingInterceptor{Log: log}
}

func (t *LoggingInterceptor) Invoke(inv *Invocation) ([]interface{}, error) {
	entry := t.Log.WithFields(logrus.Fields{
		"method": inv.Method().String(),
		"args":   len(inv.Arguments()),
	})
	entry.Debug("invoke")
	start := time.Now()
	results, err := inv.Proceed()
	entry = entry.WithField("elapsed", time.Since(start))
	if err != nil {
		entry.WithError(err).Warn("method failed")
	} else {
		entry.Debug("method returned")
	}
	return results, err
}

/**
Counts invocations by method and outcome, and observes their duration.
Implements prometheus.Collector to be registered in any registry.
*/
type MetricsInterceptor struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewMetricsInterceptor(namespace string) *MetricsInterceptor {
	if namespace == "" {
		namespace = "beans"
	}
	return &MetricsInterceptor{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "proxy",
				Name:      "invocations_total",
				Help:      "Number of proxied method invocations.",
			},
			[]string{"method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "proxy",
				Name:      "invocation_duration_seconds",
				Help:      "Duration of proxied method invocations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

func (t *MetricsInterceptor) Invoke(inv *Invocation) ([]interface{}, error) {
	method := inv.Method().String()
	start := time.Now()
	results, err := inv.Proceed()
	t.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.invocations.WithLabelValues(method, outcome).Inc()
	return results, err
}

func (t *MetricsInterceptor) Describe(ch chan<- *prometheus.Desc) {
	t.invocations.Describe(ch)
	t.duration.Describe(ch)
}

func (t *MetricsInterceptor) Collect(ch chan<- prometheus.Metric) {
	t.invocations.Collect(ch)
	t.duration.Collect(ch)
}

/**
Translates errors of the remoting library in to RemoteAccessError.
Translate selects errors to wrap, nil selects all of them. Errors already translated pass as is.
*/
type RemoteAccessInterceptor struct {
	Service   string
	Translate func(err error) bool
}

func (t *RemoteAccessInterceptor) Invoke(inv *Invocation) ([]interface{}, error) {
	results, err := inv.Proceed()
	if err == nil {
		return results, nil
	}
	var remoteErr *RemoteAccessError
	if errors.As(err, &remoteErr) {
		return results, err
	}
	if t.Translate == nil || t.Translate(err) {
		return nil, &RemoteAccessError{Service: t.Service, Method: inv.Method().String(), Err: err}
	}
	return results, err
}
