package db

import "context"

// SchemaInterface manages the version of the database schema.
type SchemaInterface interface {
	// Upgrade applies all schema versions newer than the one in the database.
	Upgrade(ctx context.Context) error

	// Version returns the version of the schema in the database.
	//
	// It is 0 when no schema has been applied.
	Version(ctx context.Context) (int, error)

	// Latest returns the newest version in the schema repository.
	Latest() (int, error)

	// Context returns a context which is cancelled when the schema in the database gets older
	// than the schema repository.
	//
	// Processes working on the database should run in this context,
	// and stop when a new schema is deployed.
	Context(ctx context.Context) (context.Context, context.CancelFunc)
}
