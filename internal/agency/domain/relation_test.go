package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handicraft-marketplace/backend/internal/platform/errs"
)

func TestCapacityExceededError(t *testing.T) {
	err := fmt.Errorf("assign agent: %w", &CapacityExceededError{AgentID: "gp1", Active: 2, Max: 2})

	assert.ErrorIs(t, err, errs.ErrCapacityExceeded)
	assert.True(t, errs.IsDomainValidation(err))

	var capErr *CapacityExceededError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 2, capErr.Max)
	assert.Contains(t, err.Error(), "manages 2 of 2")
}
