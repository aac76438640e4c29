package routes

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"blogdesk/app/controllers"
	"blogdesk/app/middleware"
	"blogdesk/app/views"

	"github.com/gorilla/mux"
)

// DefaultCookieName names the session cookie when none is configured.
const DefaultCookieName = "blogdesk_session"

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(blog *controllers.BlogController, log *slog.Logger, cookieName string) *mux.Router {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	// post ids may contain "/" once escaped, so match on the encoded path
	router := mux.NewRouter().UseEncodedPath()

	// Apply global middleware
	router.Use(middleware.RequestIDs)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recoverer(log))
	router.Use(middleware.NoStore)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "application/json" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
			return
		}
		http.NotFound(w, r)
	})

	// Serve static files
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", views.Static()))
	router.HandleFunc("/healthz", blog.Health).Methods("GET")

	// Page and form events, keyed by the session cookie
	web := router.PathPrefix("/").Subrouter()
	web.Use(middleware.Sessions(cookieName))

	web.HandleFunc("/", blog.Index).Methods("GET")
	web.HandleFunc("/form/reset", blog.Reset).Methods("POST")

	posts := web.PathPrefix("/posts").Subrouter()
	posts.HandleFunc("", blog.Create).Methods("POST")
	posts.HandleFunc("/{id}/edit", blog.Edit).Methods("POST")
	posts.HandleFunc("/{id}/delete", blog.ConfirmDelete).Methods("GET")
	posts.HandleFunc("/{id}/delete", blog.Delete).Methods("POST")

	return router
}
