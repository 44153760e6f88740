package pg

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Timestamps provides common timestamp fields that can be embedded in other
// models alongside bun.BaseModel.
type Timestamps struct {
	// CreatedAt stores the timestamp when the record was created.
	CreatedAt time.Time `bun:",nullzero" json:"created_at"`
	// UpdatedAt stores the timestamp when the record was last updated.
	UpdatedAt time.Time `bun:",nullzero" json:"updated_at"`
}

var _ bun.BeforeAppendModelHook = (*Timestamps)(nil)

// BeforeAppendModel implements bun.BeforeAppendModelHook to maintain the
// timestamp fields on insert and update.
func (m *Timestamps) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		m.CreatedAt = time.Now()
		m.UpdatedAt = time.Now()
	case *bun.UpdateQuery:
		m.UpdatedAt = time.Now()
	}
	return nil
}

// Touch sets the timestamp fields directly. Catalog backends that do not
// go through bun (e.g. the in-memory one) call it on writes.
func (m *Timestamps) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}
