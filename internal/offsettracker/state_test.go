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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommittedOffsets_PutIfChanged(t *testing.T) {
	c := newCommittedOffsets()
	key := GroupTopicPartition{Group: "g", Topic: "t", Partition: 0}

	assert.True(t, c.putIfChanged(key, OffsetRecord{Offset: 1}), "first write should apply")
	assert.False(t, c.putIfChanged(key, OffsetRecord{Offset: 1}), "same offset should not rewrite")
	assert.True(t, c.putIfChanged(key, OffsetRecord{Offset: 2}), "changed offset should rewrite")

	rec, ok := c.get(key)
	assert.True(t, ok)
	assert.Equal(t, int64(2), rec.Offset)
}

func TestSnapshot_PublishesWholesaleReplacement(t *testing.T) {
	s := newSnapshot(map[string]int{"a": 1})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.store(map[string]int{"b": 2})
	}()
	wg.Wait()

	got := s.load()
	_, hasA := got["a"]
	_, hasB := got["b"]
	assert.False(t, hasA && !hasB, "reader must never see a torn mix of pre/post snapshot state")
}

func TestTrackerState_ProjectionsStartEmpty(t *testing.T) {
	state := NewTrackerState()

	assert.Empty(t, state.clients.load())
	assert.Empty(t, state.topicAndGroups.load())
	assert.Empty(t, state.activeTopicPartitions.load())
	assert.Empty(t, state.topicPartitionsMap.load())

	_, ok := state.logEnds.get(TopicPartition{Topic: "t", Partition: 0})
	assert.False(t, ok)
}
