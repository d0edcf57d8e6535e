// Package mapping resolves entity metadata for the DAO layer.
//
// A Registry is the list of entity types that are persisted in a database.
// Table and column metadata come from bun; the registry only decides which
// types are mapped and checks that each has exactly one primary key:
//
//	registry, err := mapping.NewRegistry(db, (*User)(nil), (*Order)(nil))
//	meta, err := mapping.Resolve[User](registry)
//	meta.PrimaryKeyPropertyName() // "ID"
//
// Resolve fails with errors.ErrConfiguration for unmapped types, which is
// how DAO construction fails fast.
package mapping
