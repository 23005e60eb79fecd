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
	"context"
	"net"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/kadaan/kafka-offset-monitor/internal/logging"
)

// LogEndPoller periodically refreshes cluster topic metadata
// (TopicPartitionsMap) and the log-end (high watermark) offset of every
// partition the cluster currently has (LogEnds), so lag can be computed
// without blocking on a broker round trip at query time.
//
// sarama.Client has no manual assign/seek/position API; Client.GetOffset
// with sarama.OffsetNewest is its idiomatic equivalent of seeking to the
// end of a partition and reading back the resulting position in one call.
type LogEndPoller struct {
	client             sarama.Client
	interval           time.Duration
	logEnds            *logEnds
	topicPartitionsMap *snapshot[map[string][]PartitionInfo]
	log                logging.Logger
}

// NewLogEndPoller builds a poller over the given sarama Client.
func NewLogEndPoller(client sarama.Client, interval time.Duration, state *TrackerState) *LogEndPoller {
	return &LogEndPoller{
		client:             client,
		interval:           interval,
		logEnds:            state.logEnds,
		topicPartitionsMap: state.topicPartitionsMap,
		log:                logging.For("logendpoller"),
	}
}

// Run polls until ctx is cancelled.
func (p *LogEndPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *LogEndPoller) poll() {
	topology, all, ok := p.fetchTopology()
	if ok {
		p.topicPartitionsMap.store(topology)
	}
	// A topology-fetch failure must not stop log-end refresh for
	// partitions we already know about: fall back to the existing
	// projection rather than skipping the cycle entirely.
	if all == nil {
		for topic, partitions := range p.topicPartitionsMap.load() {
			for _, part := range partitions {
				if all == nil {
					all = make(map[TopicPartition]struct{})
				}
				all[TopicPartition{Topic: topic, Partition: part.Partition}] = struct{}{}
			}
		}
	}

	for tp := range all {
		offset, err := p.client.GetOffset(tp.Topic, tp.Partition, sarama.OffsetNewest)
		if err != nil {
			p.log.Warnf("failed to fetch log-end offset for %s/%d: %v", tp.Topic, tp.Partition, err)
			continue
		}
		p.logEnds.put(tp, offset)
	}
}

// fetchTopology lists every topic and partition visible to the client,
// returning the TopicPartitionsMap projection plus the flattened set of
// every (topic, partition) pair. ok is false on any listing failure,
// signalling the caller to keep the previous TopicPartitionsMap snapshot —
// stale data is preferred to empty data.
func (p *LogEndPoller) fetchTopology() (map[string][]PartitionInfo, map[TopicPartition]struct{}, bool) {
	topics, err := p.client.Topics()
	if err != nil {
		p.log.Errorf("failed to list topics: %v", err)
		return nil, nil, false
	}

	result := make(map[string][]PartitionInfo, len(topics))
	all := make(map[TopicPartition]struct{})

	for _, topic := range topics {
		partitions, err := p.client.Partitions(topic)
		if err != nil {
			p.log.Warnf("failed to list partitions for topic %s: %v", topic, err)
			continue
		}

		infos := make([]PartitionInfo, 0, len(partitions))
		for _, partition := range partitions {
			leaderHost, leaderPort := p.leaderEndpoint(topic, partition)
			replicas, _ := p.client.Replicas(topic, partition)
			isr, _ := p.client.InSyncReplicas(topic, partition)

			infos = append(infos, PartitionInfo{
				Topic:      topic,
				Partition:  partition,
				LeaderHost: leaderHost,
				LeaderPort: leaderPort,
				Replicas:   replicas,
				ISR:        isr,
			})
			all[TopicPartition{Topic: topic, Partition: partition}] = struct{}{}
		}
		result[topic] = infos
	}

	return result, all, true
}

func (p *LogEndPoller) leaderEndpoint(topic string, partition int32) (string, int32) {
	broker, err := p.client.Leader(topic, partition)
	if err != nil || broker == nil {
		return "", 0
	}
	host, portStr, err := net.SplitHostPort(broker.Addr())
	if err != nil {
		return broker.Addr(), 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, int32(port)
}
