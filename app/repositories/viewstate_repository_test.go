package repositories

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"blogdesk/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.DB {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBadgerViewStateRepository(t *testing.T) {
	repo := NewBadgerViewStateRepository(setupTestDB(t), 0)

	t.Run("unknown session starts in create mode", func(t *testing.T) {
		state, err := repo.Load("nobody")
		require.NoError(t, err)
		assert.Equal(t, "nobody", state.SessionID)
		assert.Equal(t, models.ModeCreate, state.Mode())
	})

	t.Run("save and load", func(t *testing.T) {
		state := models.NewViewState("s1")
		state.StartEdit(&models.Post{ID: "p1", Title: "T", Body: "B", Author: "A"})
		require.NoError(t, repo.Save(state))

		loaded, err := repo.Load("s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", loaded.SessionID)
		assert.Equal(t, "p1", loaded.ActivePostID)
		assert.Equal(t, models.ModeEdit, loaded.Mode())
		assert.Equal(t, "T", loaded.Form.Title)
	})

	t.Run("save without session", func(t *testing.T) {
		assert.Error(t, repo.Save(&models.ViewState{}))
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		loaded, err := repo.Load("s2")
		require.NoError(t, err)
		assert.Empty(t, loaded.ActivePostID)
	})
}

func TestBadgerViewStateRepositorySubmitMarker(t *testing.T) {
	repo := NewBadgerViewStateRepository(setupTestDB(t), 0)

	require.NoError(t, repo.BeginSubmit("s1"))
	assert.ErrorIs(t, repo.BeginSubmit("s1"), ErrBusy)

	// other sessions are not blocked
	require.NoError(t, repo.BeginSubmit("s2"))

	require.NoError(t, repo.EndSubmit("s1"))
	assert.NoError(t, repo.BeginSubmit("s1"))
}

func TestBadgerViewStateRepositoryConcurrentSubmits(t *testing.T) {
	repo := NewBadgerViewStateRepository(setupTestDB(t), 0)

	const workers = 16
	var won, busy atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.BeginSubmit("s1")
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, ErrBusy):
				busy.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, int32(workers-1), busy.Load())
}

func TestBadgerViewStateRepositoryFlash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgerViewStateRepository(db, 3*time.Second)

	flash, err := repo.GetFlash("s1")
	require.NoError(t, err)
	assert.Nil(t, flash)

	require.NoError(t, repo.SetFlash("s1", models.Flash{Text: "Saved", Kind: models.FlashSuccess}))

	flash, err = repo.GetFlash("s1")
	require.NoError(t, err)
	require.NotNil(t, flash)
	assert.Equal(t, "Saved", flash.Text)
	assert.Equal(t, models.FlashSuccess, flash.Kind)
	assert.WithinDuration(t, time.Now().Add(3*time.Second), flash.ExpiresAt, time.Second)

	// reading does not consume the message; it lives until it expires
	flash, err = repo.GetFlash("s1")
	require.NoError(t, err)
	assert.NotNil(t, flash)

	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(flashKey("s1"))
		if err != nil {
			return err
		}
		expires := time.Unix(int64(item.ExpiresAt()), 0)
		assert.WithinDuration(t, time.Now().Add(3*time.Second), expires, 2*time.Second)
		return nil
	})
	require.NoError(t, err)
}

func TestBadgerViewStateRepositoryFlashExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for flash expiry")
	}
	repo := NewBadgerViewStateRepository(setupTestDB(t), time.Second)

	require.NoError(t, repo.SetFlash("s1", models.Flash{Text: "gone soon", Kind: models.FlashError}))
	time.Sleep(2100 * time.Millisecond)

	flash, err := repo.GetFlash("s1")
	require.NoError(t, err)
	assert.Nil(t, flash)
}
