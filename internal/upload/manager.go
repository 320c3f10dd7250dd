// Package upload runs the owner's interactive collection flow that turns a
// batch of files into a stored session.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tg-filedrop/internal/config"
	"tg-filedrop/internal/logger"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/storage"
)

// State is a step of the collection flow
type State int

const (
	StateIdle State = iota
	StateCollectingFiles
	StateChoosingProtection
	StateChoosingDeleteTimer
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollectingFiles:
		return "collecting_files"
	case StateChoosingProtection:
		return "choosing_protection"
	case StateChoosingDeleteTimer:
		return "choosing_delete_timer"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Pending is the batch being assembled by one operator. It is never persisted.
type Pending struct {
	Items          []models.FileItem
	ProtectContent bool
	// UIMessageIDs are prompts and acknowledgements sent during the flow
	UIMessageIDs []int
}

// Kinds returns the distinct kinds in upload order
func (p Pending) Kinds() []models.MediaKind {
	seen := make(map[models.MediaKind]bool)
	var kinds []models.MediaKind
	for _, item := range p.Items {
		if !seen[item.Kind] {
			seen[item.Kind] = true
			kinds = append(kinds, item.Kind)
		}
	}
	return kinds
}

func (p Pending) clone() Pending {
	return Pending{
		Items:          append([]models.FileItem(nil), p.Items...),
		ProtectContent: p.ProtectContent,
		UIMessageIDs:   append([]int(nil), p.UIMessageIDs...),
	}
}

// Result is what a committed flow produced
type Result struct {
	Session      *models.UploadSession
	UIMessageIDs []int
}

type flow struct {
	mu      sync.Mutex
	state   State
	pending Pending
}

// Manager holds one flow per operator. Flows of different operators never
// share state; calls for the same operator are serialized.
type Manager struct {
	store       storage.SessionStore
	idLength    int
	maxAttempts int
	newID       func(length int) (string, error)

	mu    sync.Mutex
	flows map[int64]*flow
}

// NewManager creates a Manager that commits sessions into store
func NewManager(store storage.SessionStore, cfg config.UploadConfig) *Manager {
	idLength := cfg.SessionIDLength
	if idLength <= 0 {
		idLength = 12
	}
	maxAttempts := cfg.MaxIDAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Manager{
		store:       store,
		idLength:    idLength,
		maxAttempts: maxAttempts,
		newID:       GenerateSessionID,
		flows:       make(map[int64]*flow),
	}
}

// Start opens a new flow for operatorID. A second start while a flow is
// active is rejected, not queued.
func (m *Manager) Start(operatorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.flows[operatorID]; ok {
		f.mu.Lock()
		active := f.state != StateIdle
		f.mu.Unlock()
		if active {
			return ErrAlreadyInProgress
		}
	}

	m.flows[operatorID] = &flow{state: StateCollectingFiles}
	logger.Debugf("Upload flow started for %d", operatorID)
	return nil
}

// AddFile appends item to the batch and returns the new file count
func (m *Manager) AddFile(operatorID int64, item models.FileItem) (int, error) {
	var count int
	err := m.withFlow(operatorID, func(f *flow) error {
		if f.state != StateCollectingFiles {
			return wrongState(f.state)
		}
		if !item.Kind.Uploadable() {
			return fmt.Errorf("%w: %q", ErrUnsupportedKind, item.Kind)
		}
		f.pending.Items = append(f.pending.Items, item)
		count = len(f.pending.Items)
		return nil
	})
	return count, err
}

// TrackMessage remembers a UI message sent during the flow
func (m *Manager) TrackMessage(operatorID int64, messageID int) {
	_ = m.withFlow(operatorID, func(f *flow) error {
		f.pending.UIMessageIDs = append(f.pending.UIMessageIDs, messageID)
		return nil
	})
}

// FinishCollecting closes the file list. An empty batch ends the flow.
func (m *Manager) FinishCollecting(operatorID int64) (Pending, error) {
	var snapshot Pending
	err := m.withFlow(operatorID, func(f *flow) error {
		if f.state != StateCollectingFiles {
			return wrongState(f.state)
		}
		if len(f.pending.Items) == 0 {
			f.state = StateIdle
			return ErrEmptyBatch
		}
		f.state = StateChoosingProtection
		snapshot = f.pending.clone()
		return nil
	})
	return snapshot, err
}

// SetProtection stores the protect-content choice
func (m *Manager) SetProtection(operatorID int64, protect bool) error {
	return m.withFlow(operatorID, func(f *flow) error {
		if f.state != StateChoosingProtection {
			return wrongState(f.state)
		}
		f.pending.ProtectContent = protect
		f.state = StateChoosingDeleteTimer
		return nil
	})
}

// SetDeleteTimer validates the delay, stores the batch as a new session and
// ends the flow. On a persistence failure the flow stays at this step so the
// operator can pick again.
func (m *Manager) SetDeleteTimer(ctx context.Context, operatorID int64, minutes int) (*Result, error) {
	var result *Result
	err := m.withFlow(operatorID, func(f *flow) error {
		if f.state != StateChoosingDeleteTimer {
			return wrongState(f.state)
		}
		if !models.ValidDeleteTimer(minutes) {
			return fmt.Errorf("%w: %d", ErrInvalidTimer, minutes)
		}

		session, err := m.commit(ctx, operatorID, f.pending, minutes)
		if err != nil {
			return err
		}

		result = &Result{Session: session, UIMessageIDs: append([]int(nil), f.pending.UIMessageIDs...)}
		f.state = StateIdle
		f.pending = Pending{}
		return nil
	})
	return result, err
}

func (m *Manager) commit(ctx context.Context, operatorID int64, pending Pending, minutes int) (*models.UploadSession, error) {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		sessionID, err := m.newID(m.idLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrPersistence, err)
		}

		session := models.NewUploadSession(sessionID, operatorID, pending.Items, pending.ProtectContent, minutes)
		err = m.store.Create(ctx, session)
		if errors.Is(err, storage.ErrDuplicateSessionID) {
			logger.Warningf("Session id collision on attempt %d, regenerating", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		logger.Infof("Upload session %s created by %d with %d files", sessionID, operatorID, len(pending.Items))
		return session, nil
	}
	return nil, fmt.Errorf("%w: no free session id after %d attempts", storage.ErrPersistence, m.maxAttempts)
}

// Cancel discards the active flow and returns what it held
func (m *Manager) Cancel(operatorID int64) (Pending, error) {
	var discarded Pending
	err := m.withFlow(operatorID, func(f *flow) error {
		discarded = f.pending.clone()
		f.state = StateIdle
		f.pending = Pending{}
		return nil
	})
	return discarded, err
}

// State returns operatorID's current step
func (m *Manager) State(operatorID int64) State {
	f := m.lookup(operatorID)
	if f == nil {
		return StateIdle
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Active returns the number of operators with a flow in progress
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.flows)
}

func (m *Manager) lookup(operatorID int64) *flow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flows[operatorID]
}

// withFlow runs fn under the flow lock and drops the flow once it is idle
func (m *Manager) withFlow(operatorID int64, fn func(f *flow) error) error {
	f := m.lookup(operatorID)
	if f == nil {
		return ErrNotInProgress
	}

	f.mu.Lock()
	if f.state == StateIdle {
		f.mu.Unlock()
		return ErrNotInProgress
	}
	err := fn(f)
	done := f.state == StateIdle
	f.mu.Unlock()

	if done {
		m.mu.Lock()
		if m.flows[operatorID] == f {
			delete(m.flows, operatorID)
		}
		m.mu.Unlock()
	}
	return err
}

func wrongState(s State) error {
	return fmt.Errorf("%w (current step: %s)", ErrWrongState, s)
}
