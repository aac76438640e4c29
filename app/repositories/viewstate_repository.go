package repositories

import (
	"errors"
	"time"

	"blogdesk/app/models"

	"github.com/dgraph-io/badger/v4"
)

const (
	// DefaultFlashTTL is how long a flash message stays visible.
	DefaultFlashTTL = 5 * time.Second

	// submitTTL bounds how long an abandoned in-flight marker blocks a session.
	submitTTL = time.Minute
)

// BadgerViewStateRepository implements ViewStateRepository using BadgerDB
type BadgerViewStateRepository struct {
	db       *badger.DB
	flashTTL time.Duration
}

// NewBadgerViewStateRepository creates a new BadgerViewStateRepository
func NewBadgerViewStateRepository(db *badger.DB, flashTTL time.Duration) *BadgerViewStateRepository {
	if flashTTL <= 0 {
		flashTTL = DefaultFlashTTL
	}
	return &BadgerViewStateRepository{db: db, flashTTL: flashTTL}
}

// Load returns the state of a session. Unknown sessions start in create mode.
func (r *BadgerViewStateRepository) Load(sessionID string) (*models.ViewState, error) {
	state := models.NewViewState(sessionID)

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(viewKey(sessionID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, state)
		})
	})
	if err != nil {
		return nil, err
	}

	state.SessionID = sessionID
	return state, nil
}

// Save stores the state of a session
func (r *BadgerViewStateRepository) Save(state *models.ViewState) error {
	if state.SessionID == "" {
		return errors.New("view state has no session")
	}
	data, err := marshalEntity(state)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(viewKey(state.SessionID), data)
	})
}

// BeginSubmit marks a submit as in flight for the session. It returns ErrBusy
// if one already is.
func (r *BadgerViewStateRepository) BeginSubmit(sessionID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(submitKey(sessionID))
		if err == nil {
			return ErrBusy
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		e := badger.NewEntry(submitKey(sessionID), []byte{1}).WithTTL(submitTTL)
		return txn.SetEntry(e)
	})
	if errors.Is(err, badger.ErrConflict) {
		return ErrBusy
	}
	return err
}

// EndSubmit clears the in-flight marker
func (r *BadgerViewStateRepository) EndSubmit(sessionID string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(submitKey(sessionID))
	})
}

// SetFlash stores a message that expires after the flash TTL.
func (r *BadgerViewStateRepository) SetFlash(sessionID string, flash models.Flash) error {
	flash.ExpiresAt = time.Now().Add(r.flashTTL)
	data, err := marshalEntity(flash)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(flashKey(sessionID), data).WithTTL(r.flashTTL)
		return txn.SetEntry(e)
	})
}

// GetFlash returns the pending message, or nil once it has expired.
func (r *BadgerViewStateRepository) GetFlash(sessionID string) (*models.Flash, error) {
	var flash *models.Flash

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(flashKey(sessionID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		flash = &models.Flash{}
		return item.Value(func(val []byte) error {
			return unmarshalEntity(val, flash)
		})
	})
	if err != nil {
		return nil, err
	}
	return flash, nil
}
