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
	"fmt"
	"time"

	"github.com/kadaan/kafka-offset-monitor/internal/logging"
	"github.com/redis/go-redis/v9"
)

// RedisResolver shares a reverse-DNS cache across multiple tracker
// instances through Redis, so a cold-started replica doesn't have to
// re-resolve every address a warm one already looked up.
type RedisResolver struct {
	client *redis.Client
	ttl    time.Duration
	log    logging.Logger
}

// RedisOptions configures the connection to the shared cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisResolver connects to Redis and verifies the connection with a
// Ping before returning.
func NewRedisResolver(ctx context.Context, opts RedisOptions, ttl time.Duration) (*RedisResolver, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("hostresolver: redis ping failed: %w", err)
	}
	return &RedisResolver{client: client, ttl: ttl, log: logging.For("hostresolver.redis")}, nil
}

const keyPrefix = "offsettracker:host:"

// Resolve looks up addr in the shared cache first; on a miss it performs a
// local reverse lookup and publishes the result back to Redis for other
// instances to reuse.
func (r *RedisResolver) Resolve(ctx context.Context, addr string) string {
	key := keyPrefix + addr
	if cached, err := r.client.Get(ctx, key).Result(); err == nil {
		return cached
	} else if err != redis.Nil {
		r.log.Warnf("redis lookup for %s failed, falling back to direct resolution: %v", addr, err)
	}

	host := lookup(ctx, addr)

	if err := r.client.Set(ctx, key, host, r.ttl).Err(); err != nil {
		r.log.Warnf("failed to cache resolution for %s: %v", addr, err)
	}

	return host
}

// Close releases the underlying Redis connection pool.
func (r *RedisResolver) Close() error {
	return r.client.Close()
}
