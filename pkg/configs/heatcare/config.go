package heatcare

import (
	"time"

	"github.com/heatcare/heatcare/pkg/mandantsync"
)

// Config is the sealed configuration of heatcare commands.
//
// to get Config instance, use Unmarshal or Load.
type Config struct {
	database string
	pool     *PoolConfig
	sync     *SyncConfig
	server   *ServerConfig
	grafana  string
}

// Connection string for database.
//
// Empty means that connection parameters are taken from libpq environment variables (PGHOST, PGUSER, ...).
func (c *Config) Database() string {
	return c.database
}

func (c *Config) Pool() *PoolConfig {
	return c.pool
}

func (c *Config) Sync() *SyncConfig {
	return c.sync
}

func (c *Config) Server() *ServerConfig {
	return c.server
}

// Filepath to grafana configuration. Empty when not configured.
func (c *Config) Grafana() string {
	return c.grafana
}

type PoolConfig struct {
	maxConns int32
}

// max size of the connection pool. 0 means the default of pgxpool.
func (p *PoolConfig) MaxConns() int32 {
	return p.maxConns
}

type SyncConfig struct {
	progressEvery  int
	conflictPolicy mandantsync.ConflictPolicy
	missingConfig  mandantsync.MissingConfigPolicy
	timeout        time.Duration
}

// log progress every this many objects. default = 50, 0 disables.
func (s *SyncConfig) ProgressEvery() int {
	return s.progressEvery
}

func (s *SyncConfig) ConflictPolicy() mandantsync.ConflictPolicy {
	return s.conflictPolicy
}

func (s *SyncConfig) MissingConfig() mandantsync.MissingConfigPolicy {
	return s.missingConfig
}

// time limit of a synchronization run. 0 means no limit.
func (s *SyncConfig) Timeout() time.Duration {
	return s.timeout
}

// Options converts this into options of mandantsync.New .
func (s *SyncConfig) Options() []mandantsync.Option {
	return []mandantsync.Option{
		mandantsync.WithProgressEvery(s.progressEvery),
		mandantsync.WithConflictPolicy(s.conflictPolicy),
		mandantsync.WithMissingConfigPolicy(s.missingConfig),
	}
}

type ServerConfig struct {
	port     int32
	loglevel string
}

// port number to listen. default = 8080
func (s *ServerConfig) Port() int32 {
	return s.port
}

// one of debug, info, warn, error or off. default = info
func (s *ServerConfig) Loglevel() string {
	return s.loglevel
}

// WithDatabase returns a copy of this config with database replaced.
//
// Empty database makes no change.
func (c *Config) WithDatabase(database string) *Config {
	if database == "" {
		return c
	}
	cp := *c
	cp.database = database
	return &cp
}
