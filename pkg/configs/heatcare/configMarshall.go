package heatcare

import (
	"fmt"
	"strings"
	"time"

	"github.com/heatcare/heatcare/pkg/mandantsync"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/heatcare.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

// Configuration of heatcare commands.
//
// This type is marshalling value and mutable.
// Consider to use immutable version, `Config`.
type ConfigMarshall struct {
	Database string                `yaml:"database,omitempty"`
	Pool     *PoolConfigMarshall   `yaml:"pool,omitempty"`
	Sync     *SyncConfigMarshall   `yaml:"sync,omitempty"`
	Server   *ServerConfigMarshall `yaml:"server,omitempty"`
	Grafana  string                `yaml:"grafana,omitempty"`
}

var _ Marshalled[*Config] = &ConfigMarshall{}

func (c *ConfigMarshall) trySeal(path string) *Config {
	return &Config{
		database: strings.TrimSpace(c.Database),
		pool:     orZero(c.Pool).trySeal(path + ".pool"),
		sync:     orZero(c.Sync).trySeal(path + ".sync"),
		server:   orZero(c.Server).trySeal(path + ".server"),
		grafana:  c.Grafana,
	}
}

type PoolConfigMarshall struct {
	MaxConns int32 `yaml:"maxConns,omitempty"`
}

var _ Marshalled[*PoolConfig] = &PoolConfigMarshall{}

func (p *PoolConfigMarshall) trySeal(path string) *PoolConfig {
	if p.MaxConns < 0 {
		panic(fmt.Sprintf("%s.maxConns should not be negative: %d", path, p.MaxConns))
	}
	return &PoolConfig{maxConns: p.MaxConns}
}

type SyncConfigMarshall struct {
	// nil means default.
	ProgressEvery  *int   `yaml:"progressEvery,omitempty"`
	ConflictPolicy string `yaml:"conflictPolicy,omitempty"`
	MissingConfig  string `yaml:"missingConfig,omitempty"`

	// duration string, like "30m". empty means no limit.
	Timeout string `yaml:"timeout,omitempty"`
}

var _ Marshalled[*SyncConfig] = &SyncConfigMarshall{}

func (s *SyncConfigMarshall) trySeal(path string) *SyncConfig {
	progressEvery := mandantsync.DefaultProgressEvery
	if s.ProgressEvery != nil {
		progressEvery = *s.ProgressEvery
	}
	if progressEvery < 0 {
		panic(fmt.Sprintf("%s.progressEvery should not be negative: %d", path, progressEvery))
	}

	conflict, err := mandantsync.ParseConflictPolicy(s.ConflictPolicy)
	if err != nil {
		panic(path + ".conflictPolicy: " + err.Error())
	}
	missing, err := mandantsync.ParseMissingConfigPolicy(s.MissingConfig)
	if err != nil {
		panic(path + ".missingConfig: " + err.Error())
	}

	var timeout time.Duration
	if s.Timeout != "" {
		timeout, err = time.ParseDuration(s.Timeout)
		if err != nil {
			panic(path + ".timeout: " + err.Error())
		}
		if timeout <= 0 {
			panic(fmt.Sprintf("%s.timeout should be positive: %s", path, s.Timeout))
		}
	}

	return &SyncConfig{
		progressEvery:  progressEvery,
		conflictPolicy: conflict,
		missingConfig:  missing,
		timeout:        timeout,
	}
}

type ServerConfigMarshall struct {
	Port     int32  `yaml:"port,omitempty"`
	Loglevel string `yaml:"loglevel,omitempty"`
}

var _ Marshalled[*ServerConfig] = &ServerConfigMarshall{}

func (s *ServerConfigMarshall) trySeal(path string) *ServerConfig {
	port := s.Port
	if port == 0 {
		port = 8080
	}
	if port < 0 || 65535 < port {
		panic(fmt.Sprintf("%s.port is out of range: %d", path, port))
	}

	loglevel := strings.ToLower(s.Loglevel)
	switch loglevel {
	case "":
		loglevel = "info"
	case "debug", "info", "warn", "error", "off":
	default:
		panic(fmt.Sprintf("%s.loglevel is unknown: %s (should be one of -- debug|info|warn|error|off)", path, s.Loglevel))
	}

	return &ServerConfig{port: port, loglevel: loglevel}
}

func orZero[T any](v *T) *T {
	if v == nil {
		return new(T)
	}
	return v
}
