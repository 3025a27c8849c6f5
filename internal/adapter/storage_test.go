package adapter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveMIMEType(t *testing.T) {
	assert.Equal(t, DefaultMIMEType, ResolveMIMEType(""))
	assert.Equal(t, "text/plain", ResolveMIMEType("text/plain"))
}

func TestErrorKindsAreDistinct(t *testing.T) {
	kinds := []error{ErrConfiguration, ErrMissingCredentials, ErrAuthentication, ErrTransfer, ErrNotFound}
	for i, a := range kinds {
		for j, b := range kinds {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}

	wrapped := fmt.Errorf("%w: unable to download file: boom", ErrTransfer)
	assert.ErrorIs(t, wrapped, ErrTransfer)
	assert.NotErrorIs(t, wrapped, ErrAuthentication)
}
