package httpmiddleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowLimiter(t *testing.T) {
	l := NewWindowLimiter(3, time.Minute)

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))

	// Other clients have their own window.
	assert.True(t, l.allow("b"))
}

func TestWindowLimiterReset(t *testing.T) {
	l := NewWindowLimiter(1, 10*time.Millisecond)

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, l.allow("a"))
}
