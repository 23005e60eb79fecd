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

	"github.com/kadaan/kafka-offset-monitor/internal/config"
	trackererrors "github.com/kadaan/kafka-offset-monitor/internal/errors"
)

// New builds the Resolver selected by cfg.Backend.
func New(ctx context.Context, cfg config.HostResolverConfig) (Resolver, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedisResolver(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.TTL)
	case "memory", "":
		return NewMemoryResolver(cfg.TTL), nil
	default:
		return nil, fmt.Errorf("hostresolver: backend %q: %w", cfg.Backend, trackererrors.ErrUnknownHostResolverBackend)
	}
}
