package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogdesk/app/middleware"
	"blogdesk/app/models"
	"blogdesk/app/repositories/mock"
	"blogdesk/app/services"
	"blogdesk/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestBlogController(t *testing.T) (*BlogController, *mock.PostRepository, *mock.ViewStateRepository) {
	posts := mock.NewPostRepository()
	states := mock.NewViewStateRepository()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := services.NewBlogService(posts, states, log)
	return NewBlogController(service, views.MustNew(time.UTC), log), posts, states
}

func setupRouter(controller *BlogController) *mux.Router {
	router := mux.NewRouter().UseEncodedPath()
	router.Use(middleware.Sessions("sid"))

	// Register routes manually so the controller is tested on its own
	router.HandleFunc("/", controller.Index).Methods("GET")
	router.HandleFunc("/posts", controller.Create).Methods("POST")
	router.HandleFunc("/posts/{id}/edit", controller.Edit).Methods("POST")
	router.HandleFunc("/posts/{id}/delete", controller.ConfirmDelete).Methods("GET")
	router.HandleFunc("/posts/{id}/delete", controller.Delete).Methods("POST")
	router.HandleFunc("/form/reset", controller.Reset).Methods("POST")
	router.HandleFunc("/healthz", controller.Health).Methods("GET")

	return router
}

func jsonRequest(method, path, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestBlogControllerJSON(t *testing.T) {
	controller, posts, _ := setupTestBlogController(t)
	router := setupRouter(controller)

	t.Run("index", func(t *testing.T) {
		posts.Seed(&models.Post{ID: "p1", Title: "Hello", Body: "World", CreatedAt: time.Now()})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodGet, "/", ""))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var page struct {
			Mode string `json:"mode"`
			List struct {
				Posts []models.Post `json:"posts"`
				Empty bool          `json:"empty"`
			} `json:"list"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, "create", page.Mode)
		require.Len(t, page.List.Posts, 1)
		assert.Equal(t, "Hello", page.List.Posts[0].Title)
		assert.False(t, page.List.Empty)
	})

	t.Run("create", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/posts", `{"title":"A","body":"B"}`))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"mode":"create","active_post_id":"","form":{"title":"","body":"","author":""}}`, w.Body.String())
		assert.Contains(t, posts.Calls(), "create")
	})

	t.Run("create with missing fields", func(t *testing.T) {
		posts.Clear()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/posts", `{"title":"A"}`))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{"error":"Please fill in all required fields"}`, w.Body.String())
		assert.Empty(t, posts.Calls())
	})

	t.Run("invalid json", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/posts", `{`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("api failure", func(t *testing.T) {
		posts.Err = errors.New("Validation failed")
		defer func() { posts.Err = nil }()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/posts", `{"title":"A","body":"B"}`))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"error":"Validation failed"}`, w.Body.String())
	})

	t.Run("edit", func(t *testing.T) {
		posts.Seed(&models.Post{ID: "p9", Title: "T", Body: "B", Author: "A"})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(http.MethodPost, "/posts/p9/edit", ""))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"mode":"edit","active_post_id":"p9","form":{"title":"T","body":"B","author":"A"}}`, w.Body.String())
	})

	t.Run("delete without confirmation", func(t *testing.T) {
		posts.Clear()
		posts.Seed(&models.Post{ID: "p9", Title: "T", Body: "B", Author: "A"})

		req := httptest.NewRequest(http.MethodPost, "/posts/p9/delete", strings.NewReader(""))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"confirmation required"}`, w.Body.String())
		assert.Empty(t, posts.Calls())
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/posts/p9/delete", strings.NewReader("confirm=yes"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, posts.Calls(), "delete")
	})

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})
}

func TestBlogControllerInFlight(t *testing.T) {
	controller, posts, states := setupTestBlogController(t)
	router := setupRouter(controller)

	// a first request establishes the session
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := w.Result().Cookies()[0]
	require.NoError(t, states.BeginSubmit(cookie.Value))
	posts.Clear()

	req := jsonRequest(http.MethodPost, "/posts", `{"title":"A","body":"B"}`)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, posts.Calls())
}

func TestBlogControllerBrowserRedirects(t *testing.T) {
	controller, posts, _ := setupTestBlogController(t)
	router := setupRouter(controller)

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "create", path: "/posts", body: "title=A&body=B"},
		{name: "invalid create", path: "/posts", body: "title=&body="},
		{name: "edit missing post", path: "/posts/missing/edit"},
		{name: "delete unconfirmed", path: "/posts/1/delete"},
		{name: "reset", path: "/form/reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/", w.Header().Get("Location"))
		})
	}

	assert.NotContains(t, posts.Calls(), "delete")
}

func TestBlogControllerConfirmDelete(t *testing.T) {
	controller, posts, _ := setupTestBlogController(t)
	router := setupRouter(controller)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/a%3Cb/delete", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `name="confirm" value="yes"`)
	assert.NotContains(t, w.Body.String(), "a<b")
	assert.Empty(t, posts.Calls())
}

func TestBlogControllerEscapedID(t *testing.T) {
	controller, posts, _ := setupTestBlogController(t)
	router := setupRouter(controller)
	posts.Seed(&models.Post{ID: "a/b", Title: "Slashed", Body: "B"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPost, "/posts/a%2Fb/edit", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mode":"edit","active_post_id":"a/b","form":{"title":"Slashed","body":"B","author":""}}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(services.ErrValidation))
	assert.Equal(t, http.StatusConflict, statusFor(services.ErrSubmitInFlight))
	assert.Equal(t, http.StatusInternalServerError, statusFor(context.Canceled))
}
