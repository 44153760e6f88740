// Package val_test contains tests for the val package.
package val_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/contentstore/val"
)

type uploadForm struct {
	OwnerID string `json:"owner_id" validate:"required"`
	Name    string `json:"name"     validate:"required,max=16"`
	Size    int64  `json:"size"     validate:"gte=0"`
}

func TestValidateSchema(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		err := val.ValidateSchema(uploadForm{OwnerID: "u1", Name: "file.txt", Size: 10})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := val.ValidateSchema(uploadForm{Name: "file.txt"})
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, val.CodeValidationFailed))

		e := errx.AsErrorX(err)
		assert.Equal(t, errx.T_Validation, e.Type())
		assert.Contains(t, e.Fields(), "owner_id")
		assert.Equal(t, "This field is required", e.Fields()["owner_id"])
	})

	t.Run("field names come from json tags", func(t *testing.T) {
		err := val.ValidateSchema(uploadForm{OwnerID: "u1", Name: "a-very-long-file-name.txt"})
		require.Error(t, err)

		e := errx.AsErrorX(err)
		assert.Contains(t, e.Fields(), "name")
		assert.Equal(t, "Must be at most 16 characters", e.Fields()["name"])
	})

	t.Run("negative size", func(t *testing.T) {
		err := val.ValidateSchema(uploadForm{OwnerID: "u1", Name: "f", Size: -1})
		require.Error(t, err)

		e := errx.AsErrorX(err)
		assert.Contains(t, e.Fields(), "size")
	})
}
