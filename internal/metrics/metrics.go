// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics defines the telemetry surface the Leader subsystem
// reports through, following the same capability-interface shape as
// the teacher's common.GCSMetricHandle: a narrow interface the core
// depends on, backed by a real OpenTelemetry meter in production and a
// no-op in tests.
package metrics

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attr is a single metric label, mirroring common.MetricAttr.
type Attr struct {
	Key, Value string
}

// Handle is the telemetry surface used by the Leader. None of it is part of spec behavior: every
// method here may be a no-op without changing observable semantics.
type Handle interface {
	OpCount(ctx context.Context, op string, inc int64, attrs []Attr)
	OpLatency(ctx context.Context, op string, d time.Duration, attrs []Attr)
	OpErrorCount(ctx context.Context, op string, errnoName string, attrs []Attr)
	WorkerQueueDepth(ctx context.Context, workerID uint32, depth int64)
}

// NewNoopHandle returns a Handle that discards everything, used by
// default and throughout tests.
func NewNoopHandle() Handle { return noopHandle{} }

type noopHandle struct{}

func (noopHandle) OpCount(context.Context, string, int64, []Attr)                {}
func (noopHandle) OpLatency(context.Context, string, time.Duration, []Attr)      {}
func (noopHandle) OpErrorCount(context.Context, string, string, []Attr)          {}
func (noopHandle) WorkerQueueDepth(context.Context, uint32, int64)               {}

// otelHandle is the production Handle, backed by an otel meter.
type otelHandle struct {
	opCount      metric.Int64Counter
	opLatency    metric.Float64Histogram
	opErrorCount metric.Int64Counter
	queueDepth   metric.Int64UpDownCounter
}

// NewOtelHandle builds a Handle reporting through the given meter
// provider, following the teacher's otel_metrics.go wiring pattern
// (one instrument per measurement, attributes passed per call rather
// than baked into the instrument).
func NewOtelHandle(mp metric.MeterProvider) (Handle, error) {
	meter := mp.Meter("github.com/yigfs/fsclient/leader")

	opCount, err := meter.Int64Counter("fsclient/leader/op_count",
		metric.WithDescription("Count of Leader operations by name."))
	if err != nil {
		return nil, err
	}
	opLatency, err := meter.Float64Histogram("fsclient/leader/op_latency_ms",
		metric.WithDescription("Latency of Leader operations in milliseconds."),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	opErrorCount, err := meter.Int64Counter("fsclient/leader/op_error_count",
		metric.WithDescription("Count of Leader operations that returned a non-success Errno."))
	if err != nil {
		return nil, err
	}
	queueDepth, err := meter.Int64UpDownCounter("fsclient/ioengine/worker_queue_depth",
		metric.WithDescription("Pending messages queued for a disk I/O worker."))
	if err != nil {
		return nil, err
	}

	return &otelHandle{
		opCount:      opCount,
		opLatency:    opLatency,
		opErrorCount: opErrorCount,
		queueDepth:   queueDepth,
	}, nil
}

func toOtelAttrs(op string, attrs []Attr) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs)+1)
	out = append(out, attribute.String("op", op))
	for _, a := range attrs {
		out = append(out, attribute.String(a.Key, a.Value))
	}
	return out
}

func (h *otelHandle) OpCount(ctx context.Context, op string, inc int64, attrs []Attr) {
	h.opCount.Add(ctx, inc, metric.WithAttributes(toOtelAttrs(op, attrs)...))
}

func (h *otelHandle) OpLatency(ctx context.Context, op string, d time.Duration, attrs []Attr) {
	h.opLatency.Record(ctx, float64(d.Microseconds())/1000.0, metric.WithAttributes(toOtelAttrs(op, attrs)...))
}

func (h *otelHandle) OpErrorCount(ctx context.Context, op string, errnoName string, attrs []Attr) {
	all := append([]Attr{{Key: "errno", Value: errnoName}}, attrs...)
	h.opErrorCount.Add(ctx, 1, metric.WithAttributes(toOtelAttrs(op, all)...))
}

func (h *otelHandle) WorkerQueueDepth(ctx context.Context, workerID uint32, depth int64) {
	h.queueDepth.Add(ctx, depth, metric.WithAttributes(attribute.String("worker", strconv.FormatUint(uint64(workerID), 10))))
}
