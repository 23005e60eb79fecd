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

// Package offsettracker maintains a live picture of consumer-group progress
// for a Kafka cluster: committed offsets, log-end offsets, and group
// membership, joined on demand into per-partition lag records.
package offsettracker

// GroupTopicPartition identifies one (consumer group, topic, partition)
// triple. It is the key of the CommittedOffsets projection.
type GroupTopicPartition struct {
	Group     string
	Topic     string
	Partition int32
}

// OffsetRecord is a decoded offset-commit value: the committed offset plus
// the metadata and timestamps that came with it.
type OffsetRecord struct {
	Offset          int64
	Metadata        string
	CommitTimestamp int64
	ExpireTimestamp int64
}

// TopicPartition identifies one partition of one topic, independent of any
// consumer group. It is the key of the LogEnds projection.
type TopicPartition struct {
	Topic     string
	Partition int32
}

// TopicAndGroup records that a group has at least one active member
// assigned to a partition of a topic. Membership in this set implies
// nothing about CommittedOffsets (spec invariant: a stored commit can
// outlive its group's activity).
type TopicAndGroup struct {
	Topic string
	Group string
}

// ClientGroup is one active consumer-group member: a client instance and
// the topic-partitions currently assigned to it.
type ClientGroup struct {
	Group           string
	ClientID        string
	ClientHost      string
	TopicPartitions map[TopicPartition]struct{}
}

// HasTopicPartition reports whether tp is one of this client's assignments.
func (c *ClientGroup) HasTopicPartition(tp TopicPartition) bool {
	_, ok := c.TopicPartitions[tp]
	return ok
}

// PartitionInfo is a cluster-metadata snapshot for one partition: its
// leader broker and (opaque, unparsed beyond counts) replica/ISR sets.
type PartitionInfo struct {
	Topic      string
	Partition  int32
	LeaderHost string
	LeaderPort int32
	Replicas   []int32
	ISR        []int32
}

// OffsetInfo is the computed, joined result of QueryLayer.partitionOffsetInfo.
type OffsetInfo struct {
	Group     string
	Topic     string
	Partition int32
	Offset    int64
	LogSize   int64
	Owner     string
	Creation  int64
	Modified  int64
}

// Node is one entry of the tree returned by QueryLayer.clusterTopology.
type Node struct {
	Name     string
	Children []*Node
}

// ownerNA is the owner string rendered when no ClientGroup claims a
// partition, per spec.
const ownerNA = "NA"
