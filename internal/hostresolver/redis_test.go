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

package hostresolver

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kadaan/kafka-offset-monitor/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisResolver(t *testing.T) (*RedisResolver, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &RedisResolver{client: client, ttl: time.Minute, log: discardLogger{}}, mr
}

func TestRedisResolver_CachesAcrossInstances(t *testing.T) {
	r, mr := newTestRedisResolver(t)
	defer mr.Close()
	ctx := context.Background()

	got := r.Resolve(ctx, "203.0.113.5")
	require.Equal(t, "203.0.113.5", got)

	val, err := r.client.Get(ctx, keyPrefix+"203.0.113.5").Result()
	require.NoError(t, err)
	require.Equal(t, "203.0.113.5", val)

	// A second resolver sharing the same Redis instance should hit the cache.
	client2 := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r2 := &RedisResolver{client: client2, ttl: time.Minute, log: discardLogger{}}
	got2 := r2.Resolve(ctx, "203.0.113.5")
	require.Equal(t, "203.0.113.5", got2)
}

// discardLogger satisfies logging.Logger for tests without pulling in the
// global logrus configuration.
type discardLogger struct{}

func (d discardLogger) WithField(string, interface{}) logging.Logger   { return d }
func (d discardLogger) WithFields(map[string]interface{}) logging.Logger { return d }
func (discardLogger) Debug(...interface{})                    {}
func (discardLogger) Info(...interface{})                     {}
func (discardLogger) Warn(...interface{})                     {}
func (discardLogger) Error(...interface{})                    {}
func (discardLogger) Fatal(...interface{})                    {}
func (discardLogger) Debugf(string, ...interface{})           {}
func (discardLogger) Infof(string, ...interface{})            {}
func (discardLogger) Warnf(string, ...interface{})            {}
func (discardLogger) Errorf(string, ...interface{})           {}
func (discardLogger) Fatalf(string, ...interface{})           {}
