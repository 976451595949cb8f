package typederrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	base := errors.New("disk I/O error")

	ext := NewExtractionError(base, "employee_2024.csv", "read %s", "employee_2024.csv")
	assert.True(t, IsExtractionError(ext))
	assert.False(t, IsLoadError(ext))
	assert.ErrorIs(t, ext, base)
	assert.Contains(t, ext.Error(), "employee_2024.csv")

	load := NewLoadError(base, "stg_timesheet", "b-123", "insert chunk %d", 3)
	wrapped := fmt.Errorf("stage timesheets: %w", load)
	assert.True(t, IsLoadError(wrapped))
	le, ok := AsLoadError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "stg_timesheet", le.Table)
	assert.Equal(t, "b-123", le.BatchID)
	assert.Contains(t, wrapped.Error(), "batch=b-123")

	st := NewStructuralError(nil, "no source files in %s", "datasets")
	assert.True(t, IsStructuralError(st))
	assert.Equal(t, "no source files in datasets", st.Error())
}
