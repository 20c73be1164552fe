package gifstream

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	err := newErr(KindInvalidLzwData, "bad code")
	assert.True(t, errors.Is(err, ErrInvalidLzwData))
	assert.False(t, errors.Is(err, ErrMalformedHeader))
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := wrapIOErr(cause)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, IsKind(err, KindIO))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "unsupported version", KindUnsupportedVersion.String())
	assert.Equal(t, "unknown", Kind(999).String())
}
