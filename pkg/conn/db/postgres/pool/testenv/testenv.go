// Package testenv provides PostgreSQL pools for tests.
//
// Tests using this package are skipped unless HEATCARE_TEST_DATABASE is set
// to a connection string of a database which can be wiped out.
package testenv

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	kpool "github.com/heatcare/heatcare/pkg/conn/db/postgres/pool"
	kpgschema "github.com/heatcare/heatcare/pkg/domain/schema/db/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
)

const EnvTestDatabase = "HEATCARE_TEST_DATABASE"

// PoolBroaker is a interface to get a pool.
type PoolBroaker interface {
	// GetPool returns a pool.
	//
	// Tables are cleaned up before returning and after t.
	GetPool(ctx context.Context, t *testing.T) kpool.Pool

	// Raw returns the pool behind.
	Raw() *pgxpool.Pool
}

type pg struct {
	pool *pgxpool.Pool
}

func (p *pg) GetPool(ctx context.Context, t *testing.T) kpool.Pool {
	t.Helper()
	t.Cleanup(func() {
		ClearTables(context.Background(), p.pool, t)
	})

	ClearTables(ctx, p.pool, t)
	return kpool.Wrap(p.pool)
}

func (p *pg) Raw() *pgxpool.Pool {
	return p.pool
}

// SchemaRepository returns the path to the schema repository of this module.
//
// HEATCARE_SCHEMA overrides it.
func SchemaRepository() string {
	if repo := os.Getenv("HEATCARE_SCHEMA"); repo != "" {
		return repo
	}
	_, file, _, _ := runtime.Caller(0)
	// pkg/conn/db/postgres/pool/testenv/testenv.go -> module root
	root := filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "..", "..")
	return filepath.Join(root, "schema", "postgres")
}

// NewPoolBroaker connects to the test database, and upgrades its schema.
//
// When HEATCARE_TEST_DATABASE is not set, t is skipped.
func NewPoolBroaker(ctx context.Context, t *testing.T) PoolBroaker {
	t.Helper()

	url := os.Getenv(EnvTestDatabase)
	if url == "" {
		t.Skipf("%s is not set", EnvTestDatabase)
	}

	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if err := kpgschema.New(kpool.Wrap(pool), SchemaRepository()).Upgrade(ctx); err != nil {
		t.Fatal(err)
	}

	return &pg{pool: pool}
}

// ClearTables truncates all tables except "schema_version".
func ClearTables(ctx context.Context, p *pgxpool.Pool, t *testing.T) {
	t.Helper()

	// by cascade, "object_mandant" is truncated too.
	if _, err := p.Exec(ctx, `truncate "object", "mandant" restart identity cascade`); err != nil {
		t.Errorf("fail to clean-up tables.: %v", err)
	}
}

// Exec runs queries to prepare data.
func Exec(ctx context.Context, t *testing.T, q kpool.Queryer, queries ...string) {
	t.Helper()
	for _, query := range queries {
		if _, err := q.Exec(ctx, query); err != nil {
			t.Fatalf("fail to run %s: %v", query, err)
		}
	}
}
