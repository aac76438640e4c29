package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blogdesk/app/models"
	"blogdesk/app/repositories"
)

// PostRepository is an in-memory stand-in for the blog API.
type PostRepository struct {
	posts  []*models.Post
	nextID int
	calls  []string
	mutex  sync.RWMutex

	// Err, when set, is returned by every call as a failed request.
	Err error
	// Message is returned as the envelope message of successful mutations.
	Message string
	// Hook runs at the start of every call.
	Hook func(op string)
}

func NewPostRepository() *PostRepository {
	return &PostRepository{nextID: 1}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = nil
	m.nextID = 1
	m.calls = nil
}

// Calls returns the operations made so far, in order.
func (m *PostRepository) Calls() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]string(nil), m.calls...)
}

// Seed stores posts as if the API already held them.
func (m *PostRepository) Seed(posts ...*models.Post) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = append(m.posts, posts...)
}

func (m *PostRepository) record(op string) error {
	if m.Hook != nil {
		m.Hook(op)
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.calls = append(m.calls, op)
	if m.Err != nil {
		return &repositories.RequestError{Op: op, Message: m.Err.Error(), Err: m.Err}
	}
	return nil
}

func (m *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	if err := m.record("list"); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]*models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if err := m.record("get"); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, p := range m.posts {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, &repositories.RequestError{Op: "get", Status: 404, Message: "Blog post not found"}
}

func (m *PostRepository) Create(ctx context.Context, in models.PostInput) (string, error) {
	if err := m.record("create"); err != nil {
		return "", err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = append(m.posts, &models.Post{
		ID:        fmt.Sprintf("%d", m.nextID),
		Title:     in.Title,
		Body:      in.Body,
		Author:    in.Author,
		CreatedAt: time.Now(),
	})
	m.nextID++
	return m.Message, nil
}

func (m *PostRepository) Update(ctx context.Context, id string, in models.PostInput) (string, error) {
	if err := m.record("update"); err != nil {
		return "", err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, p := range m.posts {
		if p.ID == id {
			now := time.Now()
			p.Title, p.Body, p.Author = in.Title, in.Body, in.Author
			p.UpdatedAt = &now
			return m.Message, nil
		}
	}
	return "", &repositories.RequestError{Op: "update", Status: 404, Message: "Blog post not found"}
}

func (m *PostRepository) Delete(ctx context.Context, id string) (string, error) {
	if err := m.record("delete"); err != nil {
		return "", err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for i, p := range m.posts {
		if p.ID == id {
			m.posts = append(m.posts[:i], m.posts[i+1:]...)
			return m.Message, nil
		}
	}
	return "", &repositories.RequestError{Op: "delete", Status: 404, Message: "Blog post not found"}
}

// FlashTTL is the expiry stamped on mock flashes. They are never removed.
const FlashTTL = 5 * time.Second

// ViewStateRepository keeps view state in memory.
type ViewStateRepository struct {
	states   map[string]models.ViewState
	flashes  map[string]models.Flash
	inFlight map[string]bool
	mutex    sync.Mutex
}

func NewViewStateRepository() *ViewStateRepository {
	return &ViewStateRepository{
		states:   make(map[string]models.ViewState),
		flashes:  make(map[string]models.Flash),
		inFlight: make(map[string]bool),
	}
}

func (m *ViewStateRepository) Load(sessionID string) (*models.ViewState, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	state, ok := m.states[sessionID]
	if !ok {
		return models.NewViewState(sessionID), nil
	}
	state.SessionID = sessionID
	return &state, nil
}

func (m *ViewStateRepository) Save(state *models.ViewState) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.states[state.SessionID] = *state
	return nil
}

func (m *ViewStateRepository) BeginSubmit(sessionID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.inFlight[sessionID] {
		return repositories.ErrBusy
	}
	m.inFlight[sessionID] = true
	return nil
}

func (m *ViewStateRepository) EndSubmit(sessionID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.inFlight, sessionID)
	return nil
}

// InFlight reports whether a submit is marked for the session.
func (m *ViewStateRepository) InFlight(sessionID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.inFlight[sessionID]
}

func (m *ViewStateRepository) SetFlash(sessionID string, flash models.Flash) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	flash.ExpiresAt = time.Now().Add(FlashTTL)
	m.flashes[sessionID] = flash
	return nil
}

func (m *ViewStateRepository) GetFlash(sessionID string) (*models.Flash, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	flash, ok := m.flashes[sessionID]
	if !ok {
		return nil, nil
	}
	return &flash, nil
}
