package models

import (
	"sync"
	"time"
)

// InputKind names what the bot expects as a user's next message
type InputKind string

const (
	InputNone      InputKind = ""
	InputBroadcast InputKind = "broadcast"
	InputStartText InputKind = "start_text"
	InputHelpText  InputKind = "help_text"
)

// PendingInputManager remembers, per user, which free-form input the bot is
// waiting for. Entries expire so an abandoned prompt does not capture a much
// later message.
type PendingInputManager struct {
	inputs     map[int64]pendingInput
	expireMins int
	now        func() time.Time
	mu         sync.RWMutex
}

type pendingInput struct {
	kind      InputKind
	expiresAt time.Time
}

// NewPendingInputManager creates an empty manager
func NewPendingInputManager(expireMins int) *PendingInputManager {
	return &PendingInputManager{
		inputs:     make(map[int64]pendingInput),
		expireMins: expireMins,
		now:        time.Now,
	}
}

// Expect records that userID's next message answers kind
func (m *PendingInputManager) Expect(userID int64, kind InputKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputs[userID] = pendingInput{
		kind:      kind,
		expiresAt: m.now().Add(time.Duration(m.expireMins) * time.Minute),
	}
}

// Take returns and clears the pending input for userID
func (m *PendingInputManager) Take(userID int64) InputKind {
	m.mu.Lock()
	defer m.mu.Unlock()

	input, ok := m.inputs[userID]
	if !ok {
		return InputNone
	}
	delete(m.inputs, userID)
	if m.now().After(input.expiresAt) {
		return InputNone
	}
	return input.kind
}

// Peek returns the pending input for userID without clearing it
func (m *PendingInputManager) Peek(userID int64) InputKind {
	m.mu.RLock()
	defer m.mu.RUnlock()

	input, ok := m.inputs[userID]
	if !ok || m.now().After(input.expiresAt) {
		return InputNone
	}
	return input.kind
}

// Clear drops any pending input for userID
func (m *PendingInputManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.inputs, userID)
}

// CleanupExpired removes expired entries and returns how many were dropped
func (m *PendingInputManager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for userID, input := range m.inputs {
		if now.After(input.expiresAt) {
			delete(m.inputs, userID)
			removed++
		}
	}
	return removed
}
