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

package cfg

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	viper.Reset()
	fs := pflag.NewFlagSet("fsclientd", pflag.ContinueOnError)
	require.NoError(t, BindFlags(fs))
	require.NoError(t, fs.Parse(args))
	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	c, err := loadWithArgs(t, "--metadata.machine=host-a")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.Metadata.URL)
	assert.Equal(t, 3, c.Metadata.Retries)
	assert.EqualValues(t, 64, c.Segment.MaxSizeMB)
	assert.EqualValues(t, 8, c.Segment.WorkerPool)
	assert.Equal(t, "text", c.Logging.Format)
	assert.False(t, c.Metrics.Enabled)
}

func TestLoad_FlagOverride(t *testing.T) {
	c, err := loadWithArgs(t, "--metadata.machine=host-a", "--segment.worker-pool=32", "--logging.format=json", "--metrics.enabled=true")
	require.NoError(t, err)
	assert.Equal(t, 32, c.Segment.WorkerPool)
	assert.Equal(t, "json", c.Logging.Format)
	assert.True(t, c.Metrics.Enabled)
}

func TestLoad_MissingMachineFails(t *testing.T) {
	_, err := loadWithArgs(t)
	assert.Error(t, err)
}

func TestLoad_BackendEnabledWithoutBucketFails(t *testing.T) {
	_, err := loadWithArgs(t, "--metadata.machine=host-a", "--backend.enabled=true")
	assert.Error(t, err)
}

func TestLoad_InvalidLoggingFormatFails(t *testing.T) {
	_, err := loadWithArgs(t, "--metadata.machine=host-a", "--logging.format=xml")
	assert.Error(t, err)
}

func TestSegmentConfig_MaxSizeBytes(t *testing.T) {
	s := SegmentConfig{MaxSizeMB: 2}
	assert.EqualValues(t, 2*1024*1024, s.MaxSizeBytes())
}
