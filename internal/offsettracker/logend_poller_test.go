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

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSaramaClient struct {
	mock.Mock
	sarama.Client
}

func (m *mockSaramaClient) Topics() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockSaramaClient) Partitions(topic string) ([]int32, error) {
	args := m.Called(topic)
	return args.Get(0).([]int32), args.Error(1)
}

func (m *mockSaramaClient) Leader(topic string, partition int32) (*sarama.Broker, error) {
	args := m.Called(topic, partition)
	broker, _ := args.Get(0).(*sarama.Broker)
	return broker, args.Error(1)
}

func (m *mockSaramaClient) Replicas(topic string, partition int32) ([]int32, error) {
	args := m.Called(topic, partition)
	return args.Get(0).([]int32), args.Error(1)
}

func (m *mockSaramaClient) InSyncReplicas(topic string, partition int32) ([]int32, error) {
	args := m.Called(topic, partition)
	return args.Get(0).([]int32), args.Error(1)
}

func (m *mockSaramaClient) GetOffset(topic string, partition int32, time int64) (int64, error) {
	args := m.Called(topic, partition, time)
	return args.Get(0).(int64), args.Error(1)
}

func TestLogEndPoller_PopulatesTopologyAndLogEnds(t *testing.T) {
	client := new(mockSaramaClient)
	client.On("Topics").Return([]string{"orders"}, nil)
	client.On("Partitions", "orders").Return([]int32{0}, nil)
	client.On("Leader", "orders", int32(0)).Return((*sarama.Broker)(nil), sarama.ErrNotLeaderForPartition)
	client.On("Replicas", "orders", int32(0)).Return([]int32{1, 2}, nil)
	client.On("InSyncReplicas", "orders", int32(0)).Return([]int32{1, 2}, nil)
	client.On("GetOffset", "orders", int32(0), sarama.OffsetNewest).Return(int64(150), nil)

	state := NewTrackerState()
	poller := NewLogEndPoller(client, 0, state)
	poller.poll()

	topology := state.topicPartitionsMap.load()
	require.Contains(t, topology, "orders")
	assert.Equal(t, []int32{1, 2}, topology["orders"][0].Replicas)

	got, ok := state.logEnds.get(TopicPartition{Topic: "orders", Partition: 0})
	assert.True(t, ok)
	assert.Equal(t, int64(150), got)

	client.AssertExpectations(t)
}

func TestLogEndPoller_IgnoresFailedOffsetLookup(t *testing.T) {
	client := new(mockSaramaClient)
	client.On("Topics").Return([]string{"orders"}, nil)
	client.On("Partitions", "orders").Return([]int32{0}, nil)
	client.On("Leader", "orders", int32(0)).Return((*sarama.Broker)(nil), sarama.ErrNotLeaderForPartition)
	client.On("Replicas", "orders", int32(0)).Return([]int32{1, 2}, nil)
	client.On("InSyncReplicas", "orders", int32(0)).Return([]int32{1, 2}, nil)
	client.On("GetOffset", "orders", int32(0), sarama.OffsetNewest).Return(int64(0), assert.AnError)

	state := NewTrackerState()
	poller := NewLogEndPoller(client, 0, state)
	poller.poll()

	_, ok := state.logEnds.get(TopicPartition{Topic: "orders", Partition: 0})
	assert.False(t, ok, "a failed lookup must not write a bogus entry")
}

func TestLogEndPoller_KeepsStaleTopologyAndStillRefreshesLogEnds(t *testing.T) {
	client := new(mockSaramaClient)
	client.On("Topics").Return([]string(nil), assert.AnError)
	client.On("GetOffset", "orders", int32(0), sarama.OffsetNewest).Return(int64(200), nil)

	state := NewTrackerState()
	state.topicPartitionsMap.store(map[string][]PartitionInfo{
		"orders": {{Topic: "orders", Partition: 0}},
	})

	poller := NewLogEndPoller(client, 0, state)
	poller.poll()

	topology := state.topicPartitionsMap.load()
	require.Contains(t, topology, "orders", "a topology-fetch failure must not clear the previous snapshot")

	got, ok := state.logEnds.get(TopicPartition{Topic: "orders", Partition: 0})
	assert.True(t, ok, "log-end refresh must still run against the last known partition set")
	assert.Equal(t, int64(200), got)
}
