package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"blogdesk/app/middleware"
	"blogdesk/app/models"
	"blogdesk/app/repositories"
	"blogdesk/app/services"
	"blogdesk/app/views"

	"github.com/gorilla/mux"
)

// BlogController handles the browser events of the blog page
type BlogController struct {
	service *services.BlogService
	views   *views.Renderer
	log     *slog.Logger
}

// NewBlogController creates a new BlogController
func NewBlogController(service *services.BlogService, renderer *views.Renderer, log *slog.Logger) *BlogController {
	return &BlogController{
		service: service,
		views:   renderer,
		log:     log,
	}
}

// Index renders the form, the pending message and the post list
func (c *BlogController) Index(w http.ResponseWriter, r *http.Request) {
	page, err := c.service.Page(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		c.sendError(w, r, "Failed to load page", http.StatusInternalServerError, err)
		return
	}

	if wantsJSON(r) {
		c.sendJSON(w, http.StatusOK, page)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.views.Render(w, "index", page); err != nil {
		c.sendError(w, r, "Template error", http.StatusInternalServerError, err)
	}
}

// Create handles a form submit, creating or updating depending on the form mode
func (c *BlogController) Create(w http.ResponseWriter, r *http.Request) {
	var input models.PostInput
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			c.sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest, nil)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			c.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest, nil)
			return
		}
		input = models.PostInput{
			Title:  r.PostFormValue("title"),
			Body:   r.PostFormValue("body"),
			Author: r.PostFormValue("author"),
		}
	}

	state, err := c.service.SubmitForm(r.Context(), middleware.SessionID(r.Context()), input)
	c.respond(w, r, state, err)
}

// Edit loads a post into the form
func (c *BlogController) Edit(w http.ResponseWriter, r *http.Request) {
	state, err := c.service.StartEdit(r.Context(), middleware.SessionID(r.Context()), postID(r))
	c.respond(w, r, state, err)
}

// ConfirmDelete asks the user before anything is deleted
func (c *BlogController) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	data := struct{ ID string }{ID: postID(r)}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.views.Render(w, "confirm", data); err != nil {
		c.sendError(w, r, "Template error", http.StatusInternalServerError, err)
	}
}

// Delete deletes a post when the request carries confirm=yes
func (c *BlogController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest, nil)
		return
	}
	confirmed := r.FormValue("confirm") == "yes"

	requested, err := c.service.DeletePost(r.Context(), middleware.SessionID(r.Context()), postID(r), confirmed)
	if err == nil && !requested && wantsJSON(r) {
		c.sendError(w, r, "confirmation required", http.StatusBadRequest, nil)
		return
	}
	c.respond(w, r, nil, err)
}

// Reset returns the form to create mode
func (c *BlogController) Reset(w http.ResponseWriter, r *http.Request) {
	state, err := c.service.ResetForm(middleware.SessionID(r.Context()))
	c.respond(w, r, state, err)
}

// Health reports liveness
func (c *BlogController) Health(w http.ResponseWriter, r *http.Request) {
	c.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respond finishes a mutating event. Browsers go back to the page, where the
// outcome shows up as a message; JSON clients get a status code.
func (c *BlogController) respond(w http.ResponseWriter, r *http.Request, state *models.ViewState, err error) {
	if !wantsJSON(r) {
		if err != nil && state == nil && !errors.Is(err, repositories.ErrRequestFailed) {
			c.sendError(w, r, "Internal Server Error", http.StatusInternalServerError, err)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err != nil {
		c.sendError(w, r, errorMessage(err), statusFor(err), err)
		return
	}
	if state == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	c.sendJSON(w, http.StatusOK, map[string]interface{}{
		"mode":           state.Mode().String(),
		"active_post_id": state.ActivePostID,
		"form":           state.Form,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrSubmitInFlight):
		return http.StatusConflict
	case errors.Is(err, repositories.ErrRequestFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "Please fill in all required fields"
	case errors.Is(err, services.ErrSubmitInFlight):
		return "Processing..."
	case errors.Is(err, repositories.ErrRequestFailed):
		return repositories.Message(err)
	default:
		return "Internal Server Error"
	}
}

// postID returns the decoded {id} route variable. Routes match on the
// encoded path, so an id may carry an escaped "/".
func postID(r *http.Request) string {
	id := mux.Vars(r)["id"]
	if decoded, err := url.PathUnescape(id); err == nil {
		return decoded
	}
	return id
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// Helper methods for consistent response handling

func (c *BlogController) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (c *BlogController) sendError(w http.ResponseWriter, r *http.Request, message string, status int, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		c.log.ErrorContext(r.Context(), message,
			slog.Any("error", err),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.RequestID(r.Context())),
		)
	}
	if wantsJSON(r) {
		c.sendJSON(w, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}
