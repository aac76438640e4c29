package models

import "time"

// FormMode is the mode of the post form.
type FormMode int

const (
	ModeCreate FormMode = iota
	ModeEdit
)

func (m FormMode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Heading returns the form title for the mode.
func (m FormMode) Heading() string {
	if m == ModeEdit {
		return "Edit Blog Post"
	}
	return "Create New Blog Post"
}

// SubmitLabel returns the submit button text for the mode.
func (m FormMode) SubmitLabel() string {
	if m == ModeEdit {
		return "Update Post"
	}
	return "Create Post"
}

// ShowCancel reports whether the cancel control is visible.
func (m FormMode) ShowCancel() bool {
	return m == ModeEdit
}

// NewViewState returns an empty state in create mode.
func NewViewState(sessionID string) *ViewState {
	return &ViewState{SessionID: sessionID}
}

// Mode derives the form mode from the active post.
func (s *ViewState) Mode() FormMode {
	if s.ActivePostID != "" {
		return ModeEdit
	}
	return ModeCreate
}

// StartEdit makes post the active post and fills the form from it.
func (s *ViewState) StartEdit(post *Post) {
	s.ActivePostID = post.ID
	s.Form = post.Input()
}

// Reset clears the form and returns it to create mode.
func (s *ViewState) Reset() {
	s.ActivePostID = ""
	s.Form = PostInput{}
}

// CSSClass returns the class used to style the message.
func (f *Flash) CSSClass() string {
	if f.Kind == FlashError {
		return "error-message"
	}
	return "success-message"
}

// DismissIn is how long the message stays on screen from now. Zero means it
// is never dismissed on the page.
func (f *Flash) DismissIn(now time.Time) time.Duration {
	if f.ExpiresAt.IsZero() {
		return 0
	}
	if d := f.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return time.Millisecond
}
