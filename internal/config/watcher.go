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

package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kadaan/kafka-offset-monitor/internal/logging"
)

// debounceWindow absorbs the burst of write+chmod events a single "save"
// in most editors produces, so a single edit yields a single reload.
const debounceWindow = 200 * time.Millisecond

// Watcher reloads Config from cfgFile whenever it changes on disk and
// publishes the new value on Changes. Failed reloads are logged and the
// previous Config keeps being used.
type Watcher struct {
	cfgFile string
	log     logging.Logger
	Changes chan *Config
}

// NewWatcher builds a watcher for cfgFile. Nothing is watched until Run is
// called.
func NewWatcher(cfgFile string) *Watcher {
	return &Watcher{
		cfgFile: cfgFile,
		log:     logging.For("config.watcher"),
		Changes: make(chan *Config, 1),
	}
}

// Run watches the config file until ctx is cancelled. It is intended to be
// run in its own goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfgFile); err != nil {
		return err
	}

	var timer *time.Timer
	reload := func() {
		cfg, err := Load(w.cfgFile)
		if err != nil {
			w.log.Errorf("config reload failed, keeping previous configuration: %v", err)
			return
		}
		select {
		case w.Changes <- cfg:
		default:
			// drop the stale pending reload, the new one supersedes it.
			select {
			case <-w.Changes:
			default:
			}
			w.Changes <- cfg
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(debounceWindow, reload)
			} else {
				timer.Reset(debounceWindow)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("config watcher error: %v", err)
		}
	}
}
