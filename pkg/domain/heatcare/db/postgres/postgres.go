package postgres

import (
	"context"

	kpool "github.com/heatcare/heatcare/pkg/conn/db/postgres/pool"
	kassoc "github.com/heatcare/heatcare/pkg/domain/association/db"
	kpgassoc "github.com/heatcare/heatcare/pkg/domain/association/db/postgres"
	dbInterface "github.com/heatcare/heatcare/pkg/domain/heatcare/db"
	kmandant "github.com/heatcare/heatcare/pkg/domain/mandant/db"
	kpgmandant "github.com/heatcare/heatcare/pkg/domain/mandant/db/postgres"
	kobject "github.com/heatcare/heatcare/pkg/domain/object/db"
	kpgobject "github.com/heatcare/heatcare/pkg/domain/object/db/postgres"
	kschema "github.com/heatcare/heatcare/pkg/domain/schema/db"
	kpgschema "github.com/heatcare/heatcare/pkg/domain/schema/db/postgres"
	xe "github.com/heatcare/heatcare/pkg/errors"
	"github.com/jackc/pgx/v4/pgxpool"
)

type heatcareDBPostgres struct {
	pool        *pgxpool.Pool
	object      kobject.Interface
	mandant     kmandant.Interface
	association kassoc.Interface
	schema      kschema.SchemaInterface
}

type Config struct {
	SchemaRepository string

	// MaxConns overrides the pool size when positive.
	MaxConns int32
}

type Option func(*Config) *Config

func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func WithMaxConns(n int32) Option {
	return func(c *Config) *Config {
		c.MaxConns = n
		return c
	}
}

// New connects to PostgreSQL at url and returns Database on it.
//
// Failure to connect is returned as error.
func New(ctx context.Context, url string, options ...Option) (dbInterface.Database, error) {
	c := &Config{}
	for _, option := range options {
		c = option(c)
	}

	pconf, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	if 0 < c.MaxConns {
		pconf.MaxConns = c.MaxConns
	}

	pool, err := pgxpool.ConnectConfig(ctx, pconf)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	return Attach(pool, options...), nil
}

// Attach builds Database on a connected pool.
//
// Closing the Database closes the pool.
func Attach(pool *pgxpool.Pool, options ...Option) dbInterface.Database {
	c := &Config{}
	for _, option := range options {
		c = option(c)
	}

	p := kpool.Wrap(pool)
	schema := kpgschema.Null()
	if c.SchemaRepository != "" {
		schema = kpgschema.New(p, c.SchemaRepository)
	}

	return &heatcareDBPostgres{
		pool:        pool,
		object:      kpgobject.New(p),
		mandant:     kpgmandant.New(p),
		association: kpgassoc.New(p),
		schema:      schema,
	}
}

func (h *heatcareDBPostgres) Object() kobject.Interface {
	return h.object
}

func (h *heatcareDBPostgres) Mandant() kmandant.Interface {
	return h.mandant
}

func (h *heatcareDBPostgres) Association() kassoc.Interface {
	return h.association
}

func (h *heatcareDBPostgres) Schema() kschema.SchemaInterface {
	return h.schema
}

func (h *heatcareDBPostgres) Close() error {
	h.pool.Close()
	return nil
}
