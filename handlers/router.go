// Cat-Corner/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func SetupRouter(app App) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(NewStructuredLogger(app.Logger()))
	mux.Use(middleware.Recoverer)

	// Static file servers
	mux.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.UploadDir()))))
	mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))

	// Public pages
	mux.Get("/", MakeHandler(app, HandleFeed))
	mux.Get("/about", MakeHandler(app, HandleAbout))
	mux.Get("/posts/{postID}", MakeHandler(app, HandlePostPage))
	mux.Get("/profile/{userID}", MakeHandler(app, HandleProfile))
	mux.Get("/register", MakeHandler(app, HandleRegister))
	mux.Post("/register", MakeHandler(app, HandleRegister))
	mux.Get("/login", MakeHandler(app, HandleLogin))
	mux.Post("/login", MakeHandler(app, HandleLogin))

	// Anything below needs a session
	mux.Group(func(r chi.Router) {
		r.Use(RequireUser)
		r.Post("/logout", MakeHandler(app, HandleLogout))
		r.Get("/posts/new", MakeHandler(app, HandleNewPost))
		r.Post("/posts/new", MakeHandler(app, HandleNewPost))
		r.Post("/posts/{postID}/comments", MakeHandler(app, HandleNewComment))
		r.Post("/api/vote", MakeHandler(app, HandleVote))
		r.Post("/report", MakeHandler(app, HandleReport))
		r.Post("/delete", MakeHandler(app, HandleDeleteOwn))
		r.Get("/reviews", MakeHandler(app, HandleMyReviews))
		r.Post("/profile/{userID}", MakeHandler(app, HandleUpdateProfile))
	})

	// Moderation handlers
	mux.Route("/mod", func(r chi.Router) {
		r.Use(RequireModerator)
		r.Get("/queue", MakeHandler(app, HandleModQueue))
		r.Post("/resolve", MakeHandler(app, HandleResolve))
		r.Post("/flag", MakeHandler(app, HandleFlag))
	})

	// Admin handlers
	mux.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin)
		r.Get("/logs", MakeHandler(app, HandleAdminLogs))
		r.Get("/promote", MakeHandler(app, HandlePromote))
		r.Post("/promote", MakeHandler(app, HandlePromote))
	})

	return mux
}
