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

package offsettracker

import (
	"sync"
	"sync/atomic"
)

// committedOffsets is the CommittedOffsets projection: GroupTopicPartition
// -> OffsetRecord, written only by CommitListener. Single-key reads/writes
// are serialised by a mutex; there is no wholesale-replace operation since
// this projection only ever grows or overwrites individual keys.
type committedOffsets struct {
	mu   sync.RWMutex
	data map[GroupTopicPartition]OffsetRecord
}

func newCommittedOffsets() *committedOffsets {
	return &committedOffsets{data: make(map[GroupTopicPartition]OffsetRecord)}
}

func (c *committedOffsets) get(key GroupTopicPartition) (OffsetRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.data[key]
	return rec, ok
}

// putIfChanged applies the CommitListener write rule from spec.md §4.2:
// write only if the key is absent or the offset differs from what's
// stored. Returns true if a write happened.
func (c *committedOffsets) putIfChanged(key GroupTopicPartition, rec OffsetRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.data[key]
	if ok && existing.Offset == rec.Offset {
		return false
	}
	c.data[key] = rec
	return true
}

// all returns a snapshot copy of every stored (key, record) pair. Safe for
// the caller to range over without holding any lock.
func (c *committedOffsets) all() map[GroupTopicPartition]OffsetRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[GroupTopicPartition]OffsetRecord, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

// snapshotKeys returns a snapshot copy of every stored key, for callers
// that only need to range over keys (e.g. to project out topic or group
// names) without touching the associated records.
func (c *committedOffsets) snapshotKeys() map[GroupTopicPartition]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[GroupTopicPartition]struct{}, len(c.data))
	for k := range c.data {
		out[k] = struct{}{}
	}
	return out
}

// logEnds is the LogEnds projection: TopicPartition -> int64, written only
// by LogEndPoller. Entries are added and overwritten but never removed
// within a process lifetime, per spec.md §4.4.
type logEnds struct {
	mu   sync.RWMutex
	data map[TopicPartition]int64
}

func newLogEnds() *logEnds {
	return &logEnds{data: make(map[TopicPartition]int64)}
}

func (l *logEnds) get(key TopicPartition) (int64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.data[key]
	return v, ok
}

func (l *logEnds) put(key TopicPartition, offset int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[key] = offset
}

// snapshot[T] holds a wholesale-replaceable, atomically published value.
// Readers always see either the pre-cycle or post-cycle snapshot, never a
// partial merge, per spec.md §5.
type snapshot[T any] struct {
	v atomic.Value
}

func newSnapshot[T any](initial T) *snapshot[T] {
	s := &snapshot[T]{}
	s.v.Store(initial)
	return s
}

func (s *snapshot[T]) load() T {
	return s.v.Load().(T)
}

func (s *snapshot[T]) store(val T) {
	s.v.Store(val)
}

// TrackerState bundles the four projections described in spec.md §3. Each
// field is written by exactly one poller. CommitListener and LogEndPoller
// are handed only the fields they write; MetadataPoller holds the whole
// TrackerState and writes only clients, topicAndGroups, and
// activeTopicPartitions. Fields are read by the QueryLayer, and
// LogEndPoller reads its own previous topicPartitionsMap when a topology
// fetch fails.
type TrackerState struct {
	committed *committedOffsets
	logEnds   *logEnds

	clients               *snapshot[[]*ClientGroup]
	topicAndGroups        *snapshot[[]TopicAndGroup]
	activeTopicPartitions *snapshot[map[TopicPartition]struct{}]
	topicPartitionsMap    *snapshot[map[string][]PartitionInfo]
}

// NewTrackerState creates all four projections empty, as specified by
// spec.md §3's lifecycle note: "projections are created empty at startup
// and live for the process lifetime."
func NewTrackerState() *TrackerState {
	return &TrackerState{
		committed:             newCommittedOffsets(),
		logEnds:               newLogEnds(),
		clients:               newSnapshot[[]*ClientGroup](nil),
		topicAndGroups:        newSnapshot[[]TopicAndGroup](nil),
		activeTopicPartitions: newSnapshot(map[TopicPartition]struct{}{}),
		topicPartitionsMap:    newSnapshot(map[string][]PartitionInfo{}),
	}
}
