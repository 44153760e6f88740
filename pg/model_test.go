package pg_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rise-and-shine/contentstore/pg"
)

func TestTimestampsTouch(t *testing.T) {
	var ts pg.Timestamps

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	ts.Touch(first)
	assert.Equal(t, first, ts.CreatedAt)
	assert.Equal(t, first, ts.UpdatedAt)

	later := first.Add(time.Hour)
	ts.Touch(later)
	assert.Equal(t, first, ts.CreatedAt, "creation time must not move on later writes")
	assert.Equal(t, later, ts.UpdatedAt)
}
