package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"blogdesk/app/lib/errs"
	"blogdesk/app/models"
	"blogdesk/app/repositories"
)

var (
	// ErrValidation is returned when the form misses a required field.
	ErrValidation = errors.New("missing required fields")

	// ErrSubmitInFlight is returned when the session already has a submit running.
	ErrSubmitInFlight = errors.New("submit already in progress")
)

const (
	msgRequiredFields = "Please fill in all required fields"
	msgProcessing     = "Processing..."
	msgCreated        = "Blog post created successfully!"
	msgUpdated        = "Blog post updated successfully!"
	msgDeleted        = "Blog post deleted successfully!"
)

// ListView is the rendered state of the post list.
type ListView struct {
	Posts []*models.Post `json:"posts"`
	Empty bool           `json:"empty"`
	Error string         `json:"error,omitempty"`
}

// Page is everything the index view needs.
type Page struct {
	Mode         models.FormMode  `json:"-"`
	ModeName     string           `json:"mode"`
	ActivePostID string           `json:"active_post_id,omitempty"`
	Form         models.PostInput `json:"form"`
	Flash        *models.Flash    `json:"flash,omitempty"`
	List         *ListView        `json:"list"`

	// FlashDismissMS is how long the page keeps the message visible.
	FlashDismissMS int64 `json:"flash_dismiss_ms,omitempty"`
}

// BlogService drives the list view and the post form
type BlogService struct {
	posts  repositories.PostRepository
	states repositories.ViewStateRepository
	log    *slog.Logger
}

// NewBlogService creates a new BlogService
func NewBlogService(posts repositories.PostRepository, states repositories.ViewStateRepository, log *slog.Logger) *BlogService {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BlogService{
		posts:  posts,
		states: states,
		log:    log,
	}
}

// LoadBlogs fetches the collection. On failure the returned view still
// carries the message to display.
func (s *BlogService) LoadBlogs(ctx context.Context) (*ListView, error) {
	const op = "services.LoadBlogs"

	posts, err := s.posts.List(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "error loading blogs", slog.String("op", op), slog.Any("error", err))
		return &ListView{Error: repositories.Message(err)}, errs.Fail(op, err)
	}

	return &ListView{
		Posts: posts,
		Empty: len(posts) == 0,
	}, nil
}

// Page assembles the form state, the pending message and a fresh list.
func (s *BlogService) Page(ctx context.Context, sessionID string) (*Page, error) {
	const op = "services.Page"

	state, err := s.states.Load(sessionID)
	if err != nil {
		return nil, errs.Fail(op, err)
	}
	flash, err := s.states.GetFlash(sessionID)
	if err != nil {
		return nil, errs.Fail(op, err)
	}

	// a failed load is shown in place of the list
	list, _ := s.LoadBlogs(ctx)

	page := &Page{
		Mode:         state.Mode(),
		ModeName:     state.Mode().String(),
		ActivePostID: state.ActivePostID,
		Form:         state.Form,
		Flash:        flash,
		List:         list,
	}
	if flash != nil {
		page.FlashDismissMS = flash.DismissIn(time.Now()).Milliseconds()
	}
	return page, nil
}

// SubmitForm creates a post, or updates the active one when the form is in
// edit mode. Invalid input never reaches the API.
func (s *BlogService) SubmitForm(ctx context.Context, sessionID string, input models.PostInput) (*models.ViewState, error) {
	const op = "services.SubmitForm"

	state, err := s.states.Load(sessionID)
	if err != nil {
		return nil, errs.Fail(op, err)
	}

	post := input.Normalize()
	if err := post.Validate(); err != nil {
		state.Form = input
		if err := s.saveWithFlash(state, msgRequiredFields, models.FlashError); err != nil {
			return nil, errs.Fail(op, err)
		}
		return state, errs.Fail(op, ErrValidation)
	}

	if err := s.states.BeginSubmit(sessionID); err != nil {
		if errors.Is(err, repositories.ErrBusy) {
			s.ShowMessage(sessionID, msgProcessing, models.FlashError)
			return state, errs.Fail(op, ErrSubmitInFlight)
		}
		return nil, errs.Fail(op, err)
	}
	defer func() {
		if err := s.states.EndSubmit(sessionID); err != nil {
			s.log.Error("failed to clear submit marker", slog.String("op", op), slog.Any("error", err))
		}
	}()

	var msg, fallback string
	if state.ActivePostID != "" {
		msg, err = s.posts.Update(ctx, state.ActivePostID, post)
		fallback = msgUpdated
	} else {
		msg, err = s.posts.Create(ctx, post)
		fallback = msgCreated
	}

	if err != nil {
		s.log.ErrorContext(ctx, "error submitting form",
			slog.String("op", op),
			slog.String("mode", state.Mode().String()),
			slog.Any("error", err),
		)
		state.Form = input
		if err := s.saveWithFlash(state, "Error: "+repositories.Message(err), models.FlashError); err != nil {
			return nil, errs.Fail(op, err)
		}
		return state, errs.Fail(op, err)
	}

	if msg == "" {
		msg = fallback
	}
	state.Reset()
	if err := s.saveWithFlash(state, msg, models.FlashSuccess); err != nil {
		return nil, errs.Fail(op, err)
	}
	return state, nil
}

// StartEdit loads a post into the form and switches it to edit mode.
func (s *BlogService) StartEdit(ctx context.Context, sessionID, id string) (*models.ViewState, error) {
	const op = "services.StartEdit"

	state, err := s.states.Load(sessionID)
	if err != nil {
		return nil, errs.Fail(op, err)
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "error loading post for edit",
			slog.String("op", op),
			slog.String("id", id),
			slog.Any("error", err),
		)
		s.ShowMessage(sessionID, "Error: "+repositories.Message(err), models.FlashError)
		return state, errs.Fail(op, err)
	}

	state.StartEdit(post)
	if err := s.states.Save(state); err != nil {
		return nil, errs.Fail(op, err)
	}
	return state, nil
}

// DeletePost deletes a post once the user has confirmed. It reports whether
// a delete request was made.
func (s *BlogService) DeletePost(ctx context.Context, sessionID, id string, confirmed bool) (bool, error) {
	const op = "services.DeletePost"

	if !confirmed {
		return false, nil
	}

	_, err := s.posts.Delete(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "error deleting post",
			slog.String("op", op),
			slog.String("id", id),
			slog.Any("error", err),
		)
		s.ShowMessage(sessionID, "Error: "+repositories.Message(err), models.FlashError)
		return true, errs.Fail(op, err)
	}

	s.ShowMessage(sessionID, msgDeleted, models.FlashSuccess)
	return true, nil
}

// ResetForm clears the form and returns it to create mode.
func (s *BlogService) ResetForm(sessionID string) (*models.ViewState, error) {
	const op = "services.ResetForm"

	state, err := s.states.Load(sessionID)
	if err != nil {
		return nil, errs.Fail(op, err)
	}
	state.Reset()
	if err := s.states.Save(state); err != nil {
		return nil, errs.Fail(op, err)
	}
	return state, nil
}

// ShowMessage stores a transient message for the session. Storage failures
// are logged; a lost message never fails the request.
func (s *BlogService) ShowMessage(sessionID, text string, kind models.FlashKind) {
	if err := s.states.SetFlash(sessionID, models.Flash{Text: text, Kind: kind}); err != nil {
		s.log.Error("failed to store message",
			slog.String("op", "services.ShowMessage"),
			slog.Any("error", err),
		)
	}
}

func (s *BlogService) saveWithFlash(state *models.ViewState, text string, kind models.FlashKind) error {
	if err := s.states.Save(state); err != nil {
		return err
	}
	s.ShowMessage(state.SessionID, text, kind)
	return nil
}
