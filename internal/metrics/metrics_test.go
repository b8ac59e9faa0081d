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

package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewOtelHandle_RecordsThroughRealInstruments(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))

	h, err := NewOtelHandle(provider)
	require.NoError(t, err)

	ctx := context.Background()
	h.OpCount(ctx, "write", 1, nil)
	h.OpLatency(ctx, "write", 5*time.Millisecond, nil)
	h.OpErrorCount(ctx, "write", "Enospc", []Attr{{Key: "ino", Value: "7"}})
	h.WorkerQueueDepth(ctx, 3, 2)

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &data))

	var names []string
	for _, sm := range data.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	assert.Contains(t, names, "fsclient/leader/op_count")
	assert.Contains(t, names, "fsclient/leader/op_latency_ms")
	assert.Contains(t, names, "fsclient/leader/op_error_count")
	assert.Contains(t, names, "fsclient/ioengine/worker_queue_depth")
}

func TestNoopHandle_DoesNotPanic(t *testing.T) {
	h := NewNoopHandle()
	ctx := context.Background()
	h.OpCount(ctx, "read", 1, nil)
	h.OpLatency(ctx, "read", time.Millisecond, nil)
	h.OpErrorCount(ctx, "read", "Enoent", nil)
	h.WorkerQueueDepth(ctx, 0, 1)
}
