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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedState() *TrackerState {
	state := NewTrackerState()

	state.committed.putIfChanged(GroupTopicPartition{Group: "billing", Topic: "orders", Partition: 0}, OffsetRecord{Offset: 100, CommitTimestamp: 10, ExpireTimestamp: 2000})
	state.committed.putIfChanged(GroupTopicPartition{Group: "billing", Topic: "orders", Partition: 1}, OffsetRecord{Offset: 50, CommitTimestamp: 20, ExpireTimestamp: 3000})
	state.committed.putIfChanged(GroupTopicPartition{Group: "stale-group", Topic: "archived-topic", Partition: 0}, OffsetRecord{Offset: 5, CommitTimestamp: 1})

	state.logEnds.put(TopicPartition{Topic: "orders", Partition: 0}, 120)
	state.logEnds.put(TopicPartition{Topic: "orders", Partition: 1}, 50)

	state.clients.store([]*ClientGroup{
		{
			Group:      "billing",
			ClientID:   "billing-worker-1",
			ClientHost: "client-host-1",
			TopicPartitions: map[TopicPartition]struct{}{
				{Topic: "orders", Partition: 0}: {},
			},
		},
	})
	state.topicAndGroups.store([]TopicAndGroup{{Topic: "orders", Group: "billing"}})
	state.topicPartitionsMap.store(map[string][]PartitionInfo{
		"orders": {
			{Topic: "orders", Partition: 0, LeaderHost: "broker-1", LeaderPort: 9092, Replicas: []int32{1, 2}, ISR: []int32{1, 2}},
			{Topic: "orders", Partition: 1, LeaderHost: "broker-2", LeaderPort: 9092, Replicas: []int32{2, 3}, ISR: []int32{2, 3}},
		},
		"payments": {
			{Topic: "payments", Partition: 0, LeaderHost: "broker-2", LeaderPort: 9092, Replicas: []int32{2, 3}, ISR: []int32{2, 3}},
		},
	})

	return state
}

func TestQueryLayer_ListGroups(t *testing.T) {
	q := NewQueryLayer(seedState())
	assert.Equal(t, []string{"billing"}, q.ListGroups())
}

func TestQueryLayer_ListTopicsOfGroup_IncludesStaleCommits(t *testing.T) {
	q := NewQueryLayer(seedState())
	// stale-group has a stored commit but is not an active member anywhere.
	assert.Equal(t, []string{"archived-topic"}, q.ListTopicsOfGroup("stale-group"))
}

func TestQueryLayer_ListActiveTopicsOfGroup_ExcludesStaleCommits(t *testing.T) {
	q := NewQueryLayer(seedState())
	assert.Empty(t, q.ListActiveTopicsOfGroup("stale-group"), "a group with no active members has no active topics")
	assert.Equal(t, []string{"orders"}, q.ListActiveTopicsOfGroup("billing"))
}

func TestQueryLayer_TopicToGroups(t *testing.T) {
	q := NewQueryLayer(seedState())
	assert.Equal(t, []string{"billing"}, q.TopicToGroups("orders"))
}

func TestQueryLayer_PartitionOffsetInfo_ReportsOwnerAndLag(t *testing.T) {
	q := NewQueryLayer(seedState())

	info := q.PartitionOffsetInfo("billing", "orders", 0)
	require.NotNil(t, info)
	assert.Equal(t, int32(0), info.Partition)
	assert.Equal(t, int64(100), info.Offset)
	assert.Equal(t, int64(120), info.LogSize)
	assert.Equal(t, "billing-worker-1 / client-host-1", info.Owner)
	assert.Equal(t, int64(2000), info.Creation)
	assert.Equal(t, int64(10), info.Modified)

	noOwner := q.PartitionOffsetInfo("billing", "orders", 1)
	require.NotNil(t, noOwner)
	assert.Equal(t, ownerNA, noOwner.Owner, "a partition with no claiming client reports NA, not an empty row")

	assert.Nil(t, q.PartitionOffsetInfo("billing", "orders", 99), "no stored commit means no row")
}

func TestQueryLayer_PartitionOffsetInfo_CorrectsStaleLogEnd(t *testing.T) {
	state := seedState()
	// LogEnds hasn't caught up with the latest commit for partition 0:
	// logEnd(90) < offset(100), giving a negative raw lag.
	state.logEnds.put(TopicPartition{Topic: "orders", Partition: 0}, 90)

	q := NewQueryLayer(state)
	info := q.PartitionOffsetInfo("billing", "orders", 0)
	require.NotNil(t, info)
	assert.Equal(t, int64(100), info.Offset)
	assert.Equal(t, int64(110), info.LogSize, "logSize must be corrected to preserve logSize >= offset")
}

func TestQueryLayer_ClusterTopology(t *testing.T) {
	q := NewQueryLayer(seedState())
	root := q.ClusterTopology()
	assert.Equal(t, "KafkaCluster", root.Name)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "broker-1:9092", root.Children[0].Name)
	assert.Equal(t, "broker-2:9092", root.Children[1].Name)
}
