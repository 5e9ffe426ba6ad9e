// Package domain contains the domain models of heatcare.
//
// `domain/ENTITY.go` has entities and functions on them.
// For example, `domain/object.go` contains the `Object` entity and the decoder of its configuration.
//
// `domain/ENTITY/db` contains the client interface to handle the entity in the RDB,
// `domain/ENTITY/db/postgres` its PostgreSQL implementation,
// and `domain/ENTITY/db/mock` a mock for tests.
//
// `domain/heatcare/db` bundles them, and entrypoints of applications should open it.
//
// # Entities
//
// - `object`: a managed building or facility. It has a configuration (column `objanlage`),
// a semi-structured JSON document naming parties in roles (craftsman, owner, operator, caretaker).
//
// - `mandant`: an organizational party (tenant). Mandants are referred from objects by name.
//
// - `association`: a link between an object and a mandant.
// Associations are derived from objects' configurations and regenerated by the synchronizer (`pkg/mandantsync`).
package domain
