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

// This is the main entrypoint for the kafka-offset-monitor daemon.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/kadaan/kafka-offset-monitor/internal/config"
	"github.com/kadaan/kafka-offset-monitor/internal/hostresolver"
	"github.com/kadaan/kafka-offset-monitor/internal/logging"
	"github.com/kadaan/kafka-offset-monitor/internal/offsettracker"
	"github.com/kadaan/kafka-offset-monitor/pkg/version"
)

func main() {
	cfgFile := flag.String("config", "", "path to the YAML configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.Logger)
	log := logging.For("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *cfgFile, cfg, log); err != nil && ctx.Err() == nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run(ctx context.Context, cfgFile string, cfg *config.Config, log logging.Logger) error {
	if cfgFile != "" {
		watcher := config.NewWatcher(cfgFile)
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				log.Warnf("config watcher stopped: %v", err)
			}
		}()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case newCfg, ok := <-watcher.Changes:
					if !ok {
						return
					}
					// Only the logger settings are applied on reload;
					// everything else (brokers, TLS, SASL, polling
					// intervals) takes effect after a process restart.
					logging.Init(newCfg.Logger)
					log.Infof("configuration file reloaded")
				}
			}
		}()
	}


	saramaCfg, err := buildSaramaConfig(cfg)
	if err != nil {
		return fmt.Errorf("building sarama config: %w", err)
	}

	client, err := sarama.NewClient(cfg.Kafka.Brokers, saramaCfg)
	if err != nil {
		return fmt.Errorf("connecting to kafka: %w", err)
	}
	defer client.Close()

	admin, err := sarama.NewClusterAdminFromClient(client)
	if err != nil {
		return fmt.Errorf("creating cluster admin: %w", err)
	}
	defer admin.Close()

	resolver, err := hostresolver.New(ctx, cfg.HostResolver)
	if err != nil {
		return fmt.Errorf("creating host resolver: %w", err)
	}
	defer resolver.Close()

	state := offsettracker.NewTrackerState()

	newConsumerGroup := func() (sarama.ConsumerGroup, error) {
		return sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.CommitListener.GroupID, saramaCfg)
	}
	listener := offsettracker.NewCommitListener(newConsumerGroup, cfg.CommitListener.Topic, state)
	metadataPoller := offsettracker.NewMetadataPoller(admin, resolver, cfg.MetadataPoller.Interval, state)
	logEndPoller := offsettracker.NewLogEndPoller(client, cfg.LogEndPoller.Interval, state)

	query := offsettracker.NewQueryLayer(state)
	_ = query // exposed to whatever transport embeds this daemon; wiring a transport is out of scope here.

	log.Info("kafka-offset-monitor starting")
	runner := offsettracker.NewRunner(listener, metadataPoller, logEndPoller)
	return runner.Run(ctx)
}

func buildSaramaConfig(cfg *config.Config) (*sarama.Config, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = cfg.Kafka.ClientID
	saramaCfg.Net.DialTimeout = cfg.Kafka.DialTimeout

	version, err := sarama.ParseKafkaVersion(cfg.Kafka.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid kafka.version %q: %w", cfg.Kafka.Version, err)
	}
	saramaCfg.Version = version

	if cfg.Kafka.SASL.Enabled {
		saramaCfg.Net.SASL.Enable = true
		saramaCfg.Net.SASL.User = cfg.Kafka.SASL.User
		saramaCfg.Net.SASL.Password = cfg.Kafka.SASL.Password
		saramaCfg.Net.SASL.Mechanism = sarama.SASLMechanism(cfg.Kafka.SASL.Mechanism)
	}

	if cfg.Kafka.TLS.Enabled {
		tlsConfig, err := buildTLSConfig(cfg.Kafka.TLS)
		if err != nil {
			return nil, err
		}
		saramaCfg.Net.TLS.Enable = true
		saramaCfg.Net.TLS.Config = tlsConfig
	}

	// auto.offset.reset = latest: a fresh consumer group starts at the log
	// end, so CommittedOffsets is rebuilt only from commits observed after
	// start-up — historical commits are not recovered.
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaCfg.Consumer.Offsets.AutoCommit.Enable = false
	saramaCfg.Consumer.Group.Session.Timeout = cfg.CommitListener.SessionTimeout

	return saramaCfg, nil
}

func buildTLSConfig(cfg config.TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no valid certificates found in %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}
