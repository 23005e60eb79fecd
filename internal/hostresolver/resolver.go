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

// Package hostresolver caches reverse-DNS lookups of client hosts seen in
// consumer-group descriptions, so MetadataPoller doesn't re-resolve the
// same address every cycle.
package hostresolver

import (
	"context"
	"net"
	"sync"
	"time"
)

// Resolver maps an IP or hostname to the hostname reported for display.
// Implementations never return an error to callers: a failed lookup just
// falls back to returning the input unchanged.
type Resolver interface {
	Resolve(ctx context.Context, addr string) string
	Close() error
}

type entry struct {
	host    string
	expires time.Time
}

// MemoryResolver is an in-process TTL cache over net.LookupAddr.
type MemoryResolver struct {
	ttl  time.Duration
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

// NewMemoryResolver builds a resolver that caches successful and failed
// lookups for ttl.
func NewMemoryResolver(ttl time.Duration) *MemoryResolver {
	return &MemoryResolver{
		ttl:  ttl,
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Resolve reverse-resolves addr, falling back to addr itself if the lookup
// fails or times out.
func (m *MemoryResolver) Resolve(ctx context.Context, addr string) string {
	m.mu.Lock()
	if e, ok := m.data[addr]; ok && m.now().Before(e.expires) {
		m.mu.Unlock()
		return e.host
	}
	m.mu.Unlock()

	host := lookup(ctx, addr)

	m.mu.Lock()
	m.data[addr] = entry{host: host, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()

	return host
}

// Close is a no-op for MemoryResolver; it satisfies Resolver.
func (m *MemoryResolver) Close() error { return nil }

func lookup(ctx context.Context, addr string) string {
	resolver := net.DefaultResolver
	names, err := resolver.LookupAddr(ctx, addr)
	if err != nil || len(names) == 0 {
		return addr
	}
	name := names[0]
	// LookupAddr returns names with a trailing dot; trim it so callers get
	// a bare hostname.
	if n := len(name); n > 0 && name[n-1] == '.' {
		name = name[:n-1]
	}
	return name
}
