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
	"regexp"
	"time"

	"github.com/IBM/sarama"
	"github.com/kadaan/kafka-offset-monitor/internal/hostresolver"
	"github.com/kadaan/kafka-offset-monitor/internal/logging"
)

// MetadataPoller periodically refreshes consumer-group membership: the
// active clients, the topics each group is actively consuming, and the set
// of topic-partitions currently assigned to some member. Each cycle builds
// its projections from scratch and publishes them atomically, so readers
// never observe a half-built cycle. On any failure the previous snapshots
// are left untouched, since stale data is preferred to empty data.
type MetadataPoller struct {
	admin    sarama.ClusterAdmin
	resolver hostresolver.Resolver
	interval time.Duration
	state    *TrackerState
	log      logging.Logger
}

// NewMetadataPoller builds a poller over the given ClusterAdmin.
func NewMetadataPoller(admin sarama.ClusterAdmin, resolver hostresolver.Resolver, interval time.Duration, state *TrackerState) *MetadataPoller {
	return &MetadataPoller{
		admin:    admin,
		resolver: resolver,
		interval: interval,
		state:    state,
		log:      logging.For("metadatapoller"),
	}
}

// Run polls until ctx is cancelled.
func (p *MetadataPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *MetadataPoller) poll(ctx context.Context) {
	clients, topicAndGroups, activeTPs, ok := p.pollGroups(ctx)
	if !ok {
		// Admin call failed: keep the previous snapshots rather than
		// wiping them — stale data is preferred to empty data.
		return
	}
	p.state.clients.store(clients)
	p.state.topicAndGroups.store(topicAndGroups)
	p.state.activeTopicPartitions.store(activeTPs)
}

// pollGroups lists every consumer group, describes its members, and derives
// ClientGroups (one per active member), TopicAndGroups (one per topic a
// group is actively consuming), and ActiveTopicPartitions (the union of
// every member's assigned topic-partitions). ok is false if any admin call
// failed, signalling the caller to keep the previous projections.
func (p *MetadataPoller) pollGroups(ctx context.Context) (clients []*ClientGroup, tags []TopicAndGroup, activeTPs map[TopicPartition]struct{}, ok bool) {
	groups, err := p.admin.ListConsumerGroups()
	if err != nil {
		p.log.Errorf("failed to list consumer groups: %v", err)
		return nil, nil, nil, false
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, nil, map[TopicPartition]struct{}{}, true
	}

	descriptions, err := p.admin.DescribeConsumerGroups(names)
	if err != nil {
		p.log.Errorf("failed to describe consumer groups: %v", err)
		return nil, nil, nil, false
	}

	tagSet := make(map[TopicAndGroup]struct{})
	activeTPs = make(map[TopicPartition]struct{})

	for _, desc := range descriptions {
		if desc.Err != sarama.ErrNoError {
			continue
		}
		for _, member := range desc.Members {
			assignment, err := member.GetMemberAssignment()
			if err != nil {
				p.log.Warnf("failed to decode member assignment for group %s: %v", desc.GroupId, err)
				continue
			}

			tps := make(map[TopicPartition]struct{})
			if assignment != nil {
				for topic, partitions := range assignment.Topics {
					tagSet[TopicAndGroup{Topic: topic, Group: desc.GroupId}] = struct{}{}
					for _, partition := range partitions {
						tp := TopicPartition{Topic: topic, Partition: partition}
						tps[tp] = struct{}{}
						activeTPs[tp] = struct{}{}
					}
				}
			}

			clients = append(clients, &ClientGroup{
				Group:           desc.GroupId,
				ClientID:        member.ClientId,
				ClientHost:      normalizeClientHost(ctx, p.resolver, member.ClientHost),
				TopicPartitions: tps,
			})
		}
	}

	tags = make([]TopicAndGroup, 0, len(tagSet))
	for tag := range tagSet {
		tags = append(tags, tag)
	}

	return clients, tags, activeTPs, true
}

// ipv4LiteralHost matches the "/N.N.N.N" shape brokers report for a
// member's ClientHost when it's an IPv4 literal (Java's
// InetAddress.toString()). Any other shape — bare hostnames, IPv6
// literals, anything unanticipated — is left untouched per spec: the
// strip-and-resolve behavior applies only to this one case.
var ipv4LiteralHost = regexp.MustCompile(`^/(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})$`)

// normalizeClientHost strips the leading "/" and reverse-resolves the
// address only when raw is an IPv4 dotted-quad literal; any other form,
// including the leading slash, is returned unchanged.
func normalizeClientHost(ctx context.Context, resolver hostresolver.Resolver, raw string) string {
	m := ipv4LiteralHost.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	return resolver.Resolve(ctx, m[1])
}
