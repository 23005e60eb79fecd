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

	"github.com/kadaan/kafka-offset-monitor/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Poller is anything with a cancellable run loop: CommitListener,
// MetadataPoller, and LogEndPoller all satisfy it.
type Poller interface {
	Run(ctx context.Context) error
}

// Runner owns the lifecycle of the three pollers: it starts them
// concurrently and, if any one returns an error, cancels the shared
// context so the others wind down too, rather than leaving orphaned
// goroutines running against a half-shut-down process. A poller that
// returns nil does not cancel the others.
type Runner struct {
	pollers []Poller
	log     logging.Logger
}

// NewRunner builds a runner over the given pollers.
func NewRunner(pollers ...Poller) *Runner {
	return &Runner{pollers: pollers, log: logging.For("runner")}
}

// Run starts every poller and blocks until ctx is cancelled or one of them
// returns a non-context error, in which case it returns that error after
// the rest have wound down.
func (r *Runner) Run(ctx context.Context) error {
	group, gctx := errgroup.WithContext(ctx)

	for _, p := range r.pollers {
		p := p
		group.Go(func() error {
			err := p.Run(gctx)
			if err != nil && gctx.Err() == nil {
				r.log.Errorf("poller exited with error: %v", err)
			}
			return err
		})
	}

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
