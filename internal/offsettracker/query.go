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
	"fmt"
	"sort"
)

// QueryLayer answers read-only questions by joining the four projections
// on demand. It never calls into any poller and never mutates state; it
// is safe to call from any number of goroutines concurrently with the
// pollers writing.
type QueryLayer struct {
	state *TrackerState
}

// NewQueryLayer builds a query layer over state.
func NewQueryLayer(state *TrackerState) *QueryLayer {
	return &QueryLayer{state: state}
}

// ListGroups returns the distinct consumer-group names with at least one
// active member, sorted for stable output.
func (q *QueryLayer) ListGroups() []string {
	set := make(map[string]struct{})
	for _, c := range q.state.clients.load() {
		set[c.Group] = struct{}{}
	}
	return sortedKeys(set)
}

// ListTopicsOfGroup returns every topic group has a stored committed
// offset for, regardless of whether the group is currently active. This
// deliberately diverges from ListActiveTopicsOfGroup: a stored commit can
// outlive the group's membership.
func (q *QueryLayer) ListTopicsOfGroup(group string) []string {
	set := make(map[string]struct{})
	for gtp := range q.state.committed.snapshotKeys() {
		if gtp.Group == group {
			set[gtp.Topic] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// ListActiveTopicsOfGroup returns only the topics group is actively
// consuming right now, per the TopicAndGroups projection.
func (q *QueryLayer) ListActiveTopicsOfGroup(group string) []string {
	set := make(map[string]struct{})
	for _, tag := range q.state.topicAndGroups.load() {
		if tag.Group == group {
			set[tag.Topic] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// TopicToGroups returns every consumer group that has committed an offset
// for topic.
func (q *QueryLayer) TopicToGroups(topic string) []string {
	set := make(map[string]struct{})
	for gtp := range q.state.committed.snapshotKeys() {
		if gtp.Topic == topic {
			set[gtp.Group] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// ListTopics returns every topic known from the cluster-topology
// projection.
func (q *QueryLayer) ListTopics() []string {
	set := make(map[string]struct{})
	for topic := range q.state.topicPartitionsMap.load() {
		set[topic] = struct{}{}
	}
	return sortedKeys(set)
}

// ClusterTopology renders the tree rooted at the synthetic "KafkaCluster"
// node, whose children are the distinct, sorted leader "host:port" strings
// drawn from the first partition of each topic in TopicPartitionsMap.
func (q *QueryLayer) ClusterTopology() *Node {
	topics := q.state.topicPartitionsMap.load()

	leaderSet := make(map[string]struct{}, len(topics))
	for _, partitions := range topics {
		if len(partitions) == 0 {
			continue
		}
		first := partitions[0]
		leaderSet[fmt.Sprintf("%s:%d", first.LeaderHost, first.LeaderPort)] = struct{}{}
	}

	leaders := make([]string, 0, len(leaderSet))
	for leader := range leaderSet {
		leaders = append(leaders, leader)
	}
	sort.Strings(leaders)

	root := &Node{Name: "KafkaCluster"}
	for _, leader := range leaders {
		root.Children = append(root.Children, &Node{Name: leader})
	}
	return root
}

// PartitionOffsetInfo joins CommittedOffsets and LogEnds for one
// (group, topic, partition) key, returning nil if no commit is stored for
// it — a missing commit means there is nothing to report, not a zero-value
// row.
func (q *QueryLayer) PartitionOffsetInfo(group, topic string, partition int32) *OffsetInfo {
	gtp := GroupTopicPartition{Group: group, Topic: topic, Partition: partition}
	rec, ok := q.state.committed.get(gtp)
	if !ok {
		return nil
	}

	tp := TopicPartition{Topic: topic, Partition: partition}
	logEnd, _ := q.state.logEnds.get(tp)

	lag := logEnd - rec.Offset
	logSize := logEnd
	if lag < 0 {
		// LogEnds hasn't caught up with this commit yet: report the
		// corrected size that preserves logSize >= offset rather than the
		// stale raw value.
		logSize = rec.Offset - lag
	}

	owner := ownerNA
	for _, c := range q.state.clients.load() {
		if c.Group == group && c.HasTopicPartition(tp) {
			owner = fmt.Sprintf("%s / %s", c.ClientID, c.ClientHost)
			break
		}
	}

	return &OffsetInfo{
		Group:     group,
		Topic:     topic,
		Partition: partition,
		Offset:    rec.Offset,
		LogSize:   logSize,
		Owner:     owner,
		Creation:  rec.ExpireTimestamp,
		Modified:  rec.CommitTimestamp,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
