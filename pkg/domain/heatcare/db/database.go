package db

import (
	kassoc "github.com/heatcare/heatcare/pkg/domain/association/db"
	kmandant "github.com/heatcare/heatcare/pkg/domain/mandant/db"
	kobject "github.com/heatcare/heatcare/pkg/domain/object/db"
	kschema "github.com/heatcare/heatcare/pkg/domain/schema/db"
)

// Database is the root of the stores of heatcare.
//
// It owns a connection pool. Close it when the process no longer needs the database.
type Database interface {
	Object() kobject.Interface
	Mandant() kmandant.Interface
	Association() kassoc.Interface
	Schema() kschema.SchemaInterface
	Close() error
}
