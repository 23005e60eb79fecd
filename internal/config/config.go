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

// Package config loads and validates the offset tracker's configuration
// from a YAML file, environment variables, and defaults, via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	trackererrors "github.com/kadaan/kafka-offset-monitor/internal/errors"
	"github.com/kadaan/kafka-offset-monitor/internal/logging"
	"github.com/spf13/viper"
)

// Config is the top-level configuration for the offset tracker process.
type Config struct {
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	CommitListener  CommitListenerConfig  `mapstructure:"commitListener"`
	MetadataPoller  MetadataPollerConfig  `mapstructure:"metadataPoller"`
	LogEndPoller    LogEndPollerConfig    `mapstructure:"logEndPoller"`
	HostResolver    HostResolverConfig    `mapstructure:"hostResolver"`
	Logger          logging.Config        `mapstructure:"logger"`
}

// KafkaConfig describes how to reach the cluster.
type KafkaConfig struct {
	Brokers          []string      `mapstructure:"brokers"`
	ClientID         string        `mapstructure:"clientId"`
	Version          string        `mapstructure:"version"`
	TLS              TLSConfig     `mapstructure:"tls"`
	SASL             SASLConfig    `mapstructure:"sasl"`
	DialTimeout      time.Duration `mapstructure:"dialTimeout"`
}

// TLSConfig controls transport encryption to the brokers.
type TLSConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	CertFile           string `mapstructure:"certFile"`
	KeyFile            string `mapstructure:"keyFile"`
	CAFile             string `mapstructure:"caFile"`
	InsecureSkipVerify bool   `mapstructure:"insecureSkipVerify"`
}

// SASLConfig controls broker authentication.
type SASLConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Mechanism string `mapstructure:"mechanism"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
}

// CommitListenerConfig controls the __consumer_offsets consumer group.
type CommitListenerConfig struct {
	GroupID           string        `mapstructure:"groupId"`
	Topic             string        `mapstructure:"topic"`
	CommitInterval    time.Duration `mapstructure:"commitInterval"`
	SessionTimeout    time.Duration `mapstructure:"sessionTimeout"`
}

// MetadataPollerConfig controls consumer-group/topic metadata polling.
type MetadataPollerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LogEndPollerConfig controls log-end-offset polling.
type LogEndPollerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// HostResolverConfig selects and configures the reverse-DNS cache backend.
type HostResolverConfig struct {
	Backend string              `mapstructure:"backend"` // "memory" or "redis"
	TTL     time.Duration       `mapstructure:"ttl"`
	Redis   HostResolverRedis   `mapstructure:"redis"`
}

// HostResolverRedis configures the redis-backed HostResolver.
type HostResolverRedis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.clientId", "kafka-offset-monitor")
	v.SetDefault("kafka.version", "3.6.0")
	v.SetDefault("kafka.dialTimeout", 30*time.Second)

	v.SetDefault("commitListener.groupId", "kafka-offset-monitor")
	v.SetDefault("commitListener.topic", "__consumer_offsets")
	v.SetDefault("commitListener.sessionTimeout", 30*time.Second)

	v.SetDefault("metadataPoller.interval", 30*time.Second)
	v.SetDefault("logEndPoller.interval", 10*time.Second)

	v.SetDefault("hostResolver.backend", "memory")
	v.SetDefault("hostResolver.ttl", 1*time.Hour)
	v.SetDefault("hostResolver.redis.addr", "")
	v.SetDefault("hostResolver.redis.password", "")
	v.SetDefault("hostResolver.redis.db", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "console")
}

// Load reads configuration from cfgFile (a YAML path), overlaying
// OFFSETTRACKER_-prefixed environment variables, and validates the result.
// An environment variable is picked up only for a key that has a default
// or appears in the file.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OFFSETTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must contain at least one address: %w", trackererrors.ErrNoBrokers)
	}
	if c.CommitListener.Topic == "" {
		return fmt.Errorf("commitListener.topic must not be empty: %w", trackererrors.ErrInvalidConfig)
	}
	switch c.HostResolver.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("hostResolver.backend %q: %w", c.HostResolver.Backend, trackererrors.ErrUnknownHostResolverBackend)
	}
	return nil
}
