package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValueSigner(t *testing.T) {
	v := NewValueSigner[string]()

	val, ok := v.Verify(v.Sign("edit-widgets.1", time.Hour))
	assert.True(t, ok)
	assert.Equal(t, "edit-widgets.1", val)

	other := NewValueSigner[string]()
	_, ok = v.Verify(other.Sign("edit-widgets.1", time.Hour))
	assert.False(t, ok)

	_, ok = v.Verify(v.Sign("edit-widgets.1", -time.Second))
	assert.False(t, ok)

	_, ok = v.Verify("invalid")
	assert.False(t, ok)

	_, ok = v.Verify("inv@lid.sig")
	assert.False(t, ok)
}
