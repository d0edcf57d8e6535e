package testsupport

import (
	"time"

	"github.com/uptrace/bun"
)

// Dummy is the reference entity used across DAO tests: a generated integer
// identifier, a string property and a collection stored as JSON.
type Dummy struct {
	bun.BaseModel `bun:"table:dummies,alias:d"`

	ID       *int64 `bun:"id,pk,autoincrement" json:"id,omitempty"`
	String   string `bun:"string" json:"string"`
	Number   int    `bun:"number" json:"number"`
	Elements []int  `bun:"elements" json:"elements"`
}

// NewDummy creates a transient Dummy.
func NewDummy(s string, elements ...int) *Dummy {
	return &Dummy{String: s, Elements: elements}
}

// Label is an entity with an assigned string identifier.
type Label struct {
	bun.BaseModel `bun:"table:labels,alias:l"`

	Code      string    `bun:"code,pk" json:"code"`
	Title     string    `bun:"title" json:"title"`
	CreatedAt time.Time `bun:"created_at,nullzero" json:"created_at"`
}

// Pair has a composite primary key and cannot back a DAO.
type Pair struct {
	bun.BaseModel `bun:"table:pairs"`

	Left  int64 `bun:"left,pk"`
	Right int64 `bun:"right,pk"`
}

// Unkeyed has no primary key and cannot back a DAO.
type Unkeyed struct {
	bun.BaseModel `bun:"table:unkeyed"`

	Name string `bun:"name"`
}

// Models returns the entity types that have a table in test databases.
func Models() []any {
	return []any{(*Dummy)(nil), (*Label)(nil)}
}
