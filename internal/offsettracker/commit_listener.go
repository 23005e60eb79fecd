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

	"github.com/IBM/sarama"
	"github.com/kadaan/kafka-offset-monitor/internal/logging"
)

// ConsumerGroupFactory builds a fresh sarama.ConsumerGroup. CommitListener
// calls it once per NoConsumer->Subscribed transition, so every retry gets
// a brand new group rather than reusing one that failed.
type ConsumerGroupFactory func() (sarama.ConsumerGroup, error)

// CommitListener consumes the __consumer_offsets topic as its own consumer
// group member and feeds decoded offset-commit records into the
// CommittedOffsets projection. It never commits its own offsets back to
// Kafka for the records it reads, since the records are its payload, not
// its own progress marker, and it never writes any projection other than
// committed offsets.
type CommitListener struct {
	newGroup ConsumerGroupFactory
	topic    string
	decoder  *OffsetMessageDecoder
	state    *committedOffsets
	log      logging.Logger
}

// NewCommitListener builds a listener that creates a fresh consumer group
// from newGroup every time it needs to (re)connect.
func NewCommitListener(newGroup ConsumerGroupFactory, topic string, state *TrackerState) *CommitListener {
	log := logging.For("commitlistener")
	return &CommitListener{
		newGroup: newGroup,
		topic:    topic,
		decoder:  NewOffsetMessageDecoder(log),
		state:    state.committed,
		log:      log,
	}
}

// Run implements the {NoConsumer -> Subscribed -> Polling} state machine:
// any error from the consumer (network, broker restart, metadata refresh)
// closes the consumer group best-effort and returns to NoConsumer, where
// the loop immediately reiterates to recreate it. There is no backoff
// between reconnects beyond the natural cost of constructing a new group —
// the design tolerates tight retry. No error escapes this loop except
// context cancellation.
func (l *CommitListener) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := l.runOnce(ctx); err != nil {
			l.log.Errorf("consumer group error, reconnecting: %v", err)
		}
	}
}

func (l *CommitListener) runOnce(ctx context.Context) error {
	group, err := l.newGroup()
	if err != nil {
		l.log.Errorf("failed to create consumer group: %v", err)
		return err
	}
	defer group.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for err := range group.Errors() {
			l.log.Errorf("consumer group error: %v", err)
		}
	}()

	for {
		if err := group.Consume(ctx, []string{l.topic}, l); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Setup is called at the beginning of a new session, before ConsumeClaim.
func (l *CommitListener) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup is called at the end of a session, once all ConsumeClaim
// goroutines have exited.
func (l *CommitListener) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim decodes every message on the claim and applies the
// CommittedOffsets write rule. The claim's own consumption offset is
// marked after every message so sarama's auto-commit (if enabled) advances
// normally; the listener's progress through __consumer_offsets is
// incidental to its job, not the thing it's tracking.
func (l *CommitListener) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if gtp, rec, ok := l.decoder.Decode(msg.Key, msg.Value); ok {
				l.state.putIfChanged(gtp, rec)
			}
			sess.MarkMessage(msg, "")
		case <-sess.Context().Done():
			return nil
		}
	}
}
