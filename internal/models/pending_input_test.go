package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPendingInputManager(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewPendingInputManager(10)
	m.now = func() time.Time { return now }

	m.Expect(1, InputBroadcast)
	assert.Equal(t, InputBroadcast, m.Peek(1))
	assert.Equal(t, InputBroadcast, m.Take(1))
	assert.Equal(t, InputNone, m.Take(1), "take clears the entry")

	m.Expect(2, InputHelpText)
	now = now.Add(11 * time.Minute)
	assert.Equal(t, InputNone, m.Peek(2))
	assert.Equal(t, 1, m.CleanupExpired())
	assert.Equal(t, InputNone, m.Take(2))

	m.Expect(3, InputStartText)
	m.Clear(3)
	assert.Equal(t, InputNone, m.Peek(3))
}
