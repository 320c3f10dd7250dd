package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"tg-filedrop/internal/config"
	"tg-filedrop/internal/models"
	"tg-filedrop/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operator int64 = 42

type memStore struct {
	mu         sync.Mutex
	sessions   map[string]*models.UploadSession
	collisions int
	createErr  error
	creates    int
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*models.UploadSession)}
}

func (s *memStore) Create(_ context.Context, session *models.UploadSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	if s.collisions > 0 {
		s.collisions--
		return storage.ErrDuplicateSessionID
	}
	if _, ok := s.sessions[session.SessionID]; ok {
		return storage.ErrDuplicateSessionID
	}
	s.sessions[session.SessionID] = session
	return nil
}

func (s *memStore) Get(_ context.Context, sessionID string) (*models.UploadSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	session.AccessCount++
	return session, nil
}

func newTestManager(store storage.SessionStore) *Manager {
	return NewManager(store, config.UploadConfig{SessionIDLength: 12, MaxIDAttempts: 3})
}

func TestFullFlowCommitsManifestInOrder(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	items := []models.FileItem{
		{FileID: "p1", Kind: models.MediaPhoto, Caption: "first"},
		{FileID: "v1", Kind: models.MediaVideo},
		{FileID: "d1", Kind: models.MediaDocument, Caption: "third"},
	}

	require.NoError(t, m.Start(operator))
	for i, item := range items {
		count, err := m.AddFile(operator, item)
		require.NoError(t, err)
		assert.Equal(t, i+1, count)
	}

	pending, err := m.FinishCollecting(operator)
	require.NoError(t, err)
	assert.Len(t, pending.Items, 3)
	assert.Equal(t, []models.MediaKind{models.MediaPhoto, models.MediaVideo, models.MediaDocument}, pending.Kinds())
	assert.Equal(t, StateChoosingProtection, m.State(operator))

	require.NoError(t, m.SetProtection(operator, true))
	assert.Equal(t, StateChoosingDeleteTimer, m.State(operator))

	result, err := m.SetDeleteTimer(context.Background(), operator, 60)
	require.NoError(t, err)
	require.NotNil(t, result.Session)

	session := result.Session
	assert.Len(t, session.SessionID, 12)
	assert.Equal(t, operator, session.OwnerID)
	assert.True(t, session.ProtectContent)
	assert.Equal(t, 60, session.AutoDeleteMinutes)
	assert.Equal(t, items, session.Items())
	assert.Equal(t, StateIdle, m.State(operator))
	assert.Equal(t, 0, m.Active())

	stored, err := store.Get(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, items, stored.Items())
}

func TestStartTwiceIsRejected(t *testing.T) {
	m := newTestManager(newMemStore())

	require.NoError(t, m.Start(operator))
	require.ErrorIs(t, m.Start(operator), ErrAlreadyInProgress)

	// another operator is unaffected
	require.NoError(t, m.Start(operator+1))
}

func TestEmptyBatchResetsToIdle(t *testing.T) {
	m := newTestManager(newMemStore())
	require.NoError(t, m.Start(operator))

	_, err := m.FinishCollecting(operator)
	require.ErrorIs(t, err, ErrEmptyBatch)
	assert.True(t, IsUserInputError(err))
	assert.Equal(t, StateIdle, m.State(operator))

	require.NoError(t, m.Start(operator))
}

func TestAddFileRejectsUnsupportedKind(t *testing.T) {
	m := newTestManager(newMemStore())
	require.NoError(t, m.Start(operator))

	for _, kind := range []models.MediaKind{models.MediaText, "sticker", ""} {
		_, err := m.AddFile(operator, models.FileItem{FileID: "x", Kind: kind})
		require.ErrorIs(t, err, ErrUnsupportedKind)
		assert.True(t, IsUserInputError(err))
	}

	count, err := m.AddFile(operator, models.FileItem{FileID: "a", Kind: models.MediaAudio})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, StateCollectingFiles, m.State(operator))
}

func TestSetDeleteTimerRejectsUnknownValues(t *testing.T) {
	m := newTestManager(newMemStore())
	require.NoError(t, m.Start(operator))
	_, err := m.AddFile(operator, models.FileItem{FileID: "f", Kind: models.MediaDocument})
	require.NoError(t, err)
	_, err = m.FinishCollecting(operator)
	require.NoError(t, err)
	require.NoError(t, m.SetProtection(operator, false))

	for _, minutes := range []int{-1, 1, 30, 61, 1441, 10081} {
		_, err := m.SetDeleteTimer(context.Background(), operator, minutes)
		require.ErrorIs(t, err, ErrInvalidTimer, "minutes=%d", minutes)
		assert.Equal(t, StateChoosingDeleteTimer, m.State(operator))
	}

	for _, minutes := range models.DeleteTimerChoices {
		assert.True(t, models.ValidDeleteTimer(minutes))
	}

	result, err := m.SetDeleteTimer(context.Background(), operator, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Session.AutoDeleteMinutes)
	assert.False(t, result.Session.ProtectContent)
}

func TestStepsOutOfOrder(t *testing.T) {
	m := newTestManager(newMemStore())

	_, err := m.AddFile(operator, models.FileItem{FileID: "f", Kind: models.MediaPhoto})
	require.ErrorIs(t, err, ErrNotInProgress)
	_, err = m.Cancel(operator)
	require.ErrorIs(t, err, ErrNotInProgress)

	require.NoError(t, m.Start(operator))
	require.ErrorIs(t, m.SetProtection(operator, true), ErrWrongState)
	_, err = m.SetDeleteTimer(context.Background(), operator, 5)
	require.ErrorIs(t, err, ErrWrongState)
	assert.False(t, IsUserInputError(err))
	assert.Equal(t, StateCollectingFiles, m.State(operator))
}

func TestCancelDiscardsBatch(t *testing.T) {
	m := newTestManager(newMemStore())
	require.NoError(t, m.Start(operator))
	_, err := m.AddFile(operator, models.FileItem{FileID: "f", Kind: models.MediaPhoto})
	require.NoError(t, err)
	m.TrackMessage(operator, 501)
	m.TrackMessage(operator, 502)

	discarded, err := m.Cancel(operator)
	require.NoError(t, err)
	assert.Len(t, discarded.Items, 1)
	assert.Equal(t, []int{501, 502}, discarded.UIMessageIDs)
	assert.Equal(t, StateIdle, m.State(operator))

	require.NoError(t, m.Start(operator))
	_, err = m.FinishCollecting(operator)
	require.ErrorIs(t, err, ErrEmptyBatch)
}

func readyToCommit(t *testing.T, m *Manager) {
	t.Helper()
	require.NoError(t, m.Start(operator))
	_, err := m.AddFile(operator, models.FileItem{FileID: "f", Kind: models.MediaVideo})
	require.NoError(t, err)
	_, err = m.FinishCollecting(operator)
	require.NoError(t, err)
	require.NoError(t, m.SetProtection(operator, true))
}

func TestCommitRetriesOnCollision(t *testing.T) {
	store := newMemStore()
	store.collisions = 2
	m := newTestManager(store)

	var generated []string
	m.newID = func(length int) (string, error) {
		id := fmt.Sprintf("id-%d", len(generated))
		generated = append(generated, id)
		return id, nil
	}

	readyToCommit(t, m)
	result, err := m.SetDeleteTimer(context.Background(), operator, 5)
	require.NoError(t, err)
	assert.Equal(t, "id-2", result.Session.SessionID)
	assert.Equal(t, 3, store.creates)
}

func TestCommitGivesUpAfterMaxAttempts(t *testing.T) {
	store := newMemStore()
	store.collisions = 10
	m := newTestManager(store)

	readyToCommit(t, m)
	_, err := m.SetDeleteTimer(context.Background(), operator, 5)
	require.ErrorIs(t, err, storage.ErrPersistence)
	assert.Equal(t, 3, store.creates)
	assert.Equal(t, StateChoosingDeleteTimer, m.State(operator))
}

func TestCommitPersistenceFailureKeepsFlow(t *testing.T) {
	store := newMemStore()
	store.createErr = fmt.Errorf("insert: %w: %w", storage.ErrPersistence, errors.New("disk full"))
	m := newTestManager(store)

	readyToCommit(t, m)
	_, err := m.SetDeleteTimer(context.Background(), operator, 60)
	require.ErrorIs(t, err, storage.ErrPersistence)
	assert.Equal(t, StateChoosingDeleteTimer, m.State(operator))

	store.createErr = nil
	result, err := m.SetDeleteTimer(context.Background(), operator, 60)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Session.FileCount)
}

func TestConcurrentOperatorsAreIndependent(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for op := int64(1); op <= 20; op++ {
		wg.Add(1)
		go func(op int64) {
			defer wg.Done()
			if err := m.Start(op); err != nil {
				errs <- err
				return
			}
			for i := 0; i < int(op%3)+1; i++ {
				if _, err := m.AddFile(op, models.FileItem{FileID: fmt.Sprintf("%d-%d", op, i), Kind: models.MediaDocument}); err != nil {
					errs <- err
					return
				}
			}
			if _, err := m.FinishCollecting(op); err != nil {
				errs <- err
				return
			}
			if err := m.SetProtection(op, op%2 == 0); err != nil {
				errs <- err
				return
			}
			result, err := m.SetDeleteTimer(context.Background(), op, 5)
			if err != nil {
				errs <- err
				return
			}
			if result.Session.OwnerID != op || result.Session.FileCount != int(op%3)+1 {
				errs <- fmt.Errorf("operator %d got wrong session", op)
			}
		}(op)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, store.sessions, 20)
	assert.Equal(t, 0, m.Active())
}

func TestGenerateSessionID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id, err := GenerateSessionID(12)
		require.NoError(t, err)
		require.Len(t, id, 12)
		for _, r := range id {
			require.Contains(t, sessionIDAlphabet, string(r))
		}
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestDeepLink(t *testing.T) {
	assert.Equal(t, "https://t.me/drop_bot?start=Ab3dEf9hIj2k", BuildDeepLink("@drop_bot", "Ab3dEf9hIj2k"))

	cases := []struct {
		text string
		id   string
		ok   bool
	}{
		{"/start Ab3dEf9hIj2k", "Ab3dEf9hIj2k", true},
		{"/start@drop_bot Ab3dEf9hIj2k", "Ab3dEf9hIj2k", true},
		{"/start  spaced  ", "spaced", true},
		{"/start a-b_c d", "a-b_c d", true},
		{"/start", "", false},
		{"/start   ", "", false},
		{"/help abc", "", false},
		{"/startx abc", "", false},
		{"/started@drop_bot abc", "", false},
	}
	for _, tc := range cases {
		id, ok := SessionIDFromStart(tc.text)
		assert.Equal(t, tc.ok, ok, tc.text)
		assert.Equal(t, tc.id, id, tc.text)
	}
}
