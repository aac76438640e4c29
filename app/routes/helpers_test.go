package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"blogdesk/app/controllers"
	"blogdesk/app/repositories"
	"blogdesk/app/repositories/mock"
	"blogdesk/app/services"
	"blogdesk/app/views"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.DB {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestRouter(t *testing.T) (*mux.Router, *mock.PostRepository) {
	posts := mock.NewPostRepository()
	states := repositories.NewBadgerViewStateRepository(setupTestDB(t), time.Minute)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := services.NewBlogService(posts, states, log)
	blog := controllers.NewBlogController(service, views.MustNew(time.UTC), log)
	return SetupRoutes(blog, log, ""), posts
}

// browser replays the session cookie the way a real browser would.
type browser struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == DefaultCookieName {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) page() string {
	w := b.do(http.MethodGet, "/", nil)
	require.Equal(b.t, http.StatusOK, w.Code)
	return w.Body.String()
}
