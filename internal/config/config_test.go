// Copyright © 2024 KubeStack-AI Authors
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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
kafka:
  brokers:
    - "localhost:9092"
commitListener:
  topic: "__consumer_offsets"
metadataPoller:
  interval: 45s
hostResolver:
  backend: "memory"
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_AppliesDefaultsAndOverrides(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 45*time.Second, cfg.MetadataPoller.Interval)
	assert.Equal(t, 10*time.Second, cfg.LogEndPoller.Interval, "unset fields should fall back to defaults")
	assert.Equal(t, "memory", cfg.HostResolver.Backend)
}

func TestLoad_RejectsMissingBrokers(t *testing.T) {
	path := writeTempConfig(t, "commitListener:\n  topic: \"__consumer_offsets\"\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownHostResolverBackend(t *testing.T) {
	path := writeTempConfig(t, "kafka:\n  brokers:\n    - \"localhost:9092\"\nhostResolver:\n  backend: \"carrier-pigeon\"\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)
	t.Setenv("OFFSETTRACKER_HOSTRESOLVER_BACKEND", "redis")
	t.Setenv("OFFSETTRACKER_HOSTRESOLVER_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.HostResolver.Backend)
	assert.Equal(t, "localhost:6379", cfg.HostResolver.Redis.Addr)
}
