// Cat-Corner/handlers/handlers.go

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/meeshellyo/Cat-Corner/database"
	"github.com/meeshellyo/Cat-Corner/lexicon"
	"github.com/meeshellyo/Cat-Corner/models"
)

// App is an interface that defines the dependencies our handlers need.
type App interface {
	DB() *database.DatabaseService
	Lexicon() *lexicon.Lexicon
	RateLimiter() *models.RateLimiter
	Validator() *validator.Validate
	Storage() models.StorageService
	Logger() *slog.Logger
	UploadDir() string
}

// respondJSON sends a JSON response with a given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}, app App) {
	response, err := json.Marshal(payload)
	if err != nil {
		app.Logger().Error("Failed to marshal JSON payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(`{"error":"Failed to marshal JSON response"}`)); werr != nil {
			app.Logger().Error("Failed to write internal server error response", "error", werr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		app.Logger().Error("Failed to write JSON response", "error", err)
	}
}

// MakeHandler adapts an App-aware handler function to http.HandlerFunc.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}

// HandleFeed serves the homepage: live posts, optionally scoped to a main
// category slug and re-sorted by the query parameters.
func HandleFeed(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleFeed")

	page, _ := strconv.Atoi(r.URL.Query().Get("p"))
	if page < 1 {
		page = 1
	}
	const pageSize = 20

	sort := r.URL.Query().Get("sort")
	switch sort {
	case database.SortLiked, database.SortTea:
	default:
		sort = database.SortRecent
	}

	var mainCatID int64
	var activeSlug string
	if slug := r.URL.Query().Get("main"); slug != "" {
		cat, err := app.DB().GetCategoryBySlug(slug)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		mainCatID = cat.ID
		activeSlug = cat.Slug
	}

	var viewerID int64
	if user := CurrentUser(r); user != nil {
		viewerID = user.ID
	}

	posts, err := app.DB().ListFeed(mainCatID, viewerID, sort, pageSize, (page-1)*pageSize)
	if err != nil {
		logger.Error("DB error listing feed", "error", err)
		http.Error(w, "Database error loading feed.", 500)
		return
	}

	total, err := app.DB().CountFeed(mainCatID)
	if err != nil {
		logger.Error("DB error counting feed", "error", err)
	}
	totalPages := (total + pageSize - 1) / pageSize

	render(w, r, app, "layout.html", "feed.html", map[string]interface{}{
		"Title":      "Cat Corner",
		"Posts":      posts,
		"Sort":       sort,
		"ActiveSlug": activeSlug,
		"Pagination": generatePagination(page, totalPages),
	})
}

// HandleAbout serves the static "About" page.
func HandleAbout(w http.ResponseWriter, r *http.Request, app App) {
	render(w, r, app, "layout.html", "about.html", map[string]interface{}{
		"Title": "About Cat Corner",
	})
}

// HandlePostPage serves one post with its comments. Non-live posts are only
// visible to their owner and to moderators.
func HandlePostPage(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandlePostPage")

	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	user := CurrentUser(r)
	var viewerID int64
	isModerator := false
	if user != nil {
		viewerID = user.ID
		isModerator = user.Role.AtLeast(models.RoleModerator)
	}

	post, err := app.DB().GetPost(postID, viewerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.Error("DB error fetching post", "post_id", postID, "error", err)
		http.Error(w, "Database error loading post.", 500)
		return
	}

	isOwner := user != nil && user.ID == post.UserID
	if post.Status != models.StatusLive && !isOwner && !isModerator {
		http.NotFound(w, r)
		return
	}

	// Non-moderators only see approved media.
	if !isModerator {
		approved := post.Media[:0]
		for _, m := range post.Media {
			if m.Status == models.MediaApproved {
				approved = append(approved, m)
			}
		}
		post.Media = approved
	}

	comments, err := app.DB().ListComments(postID)
	if err != nil {
		logger.Error("DB error listing comments", "post_id", postID, "error", err)
		http.Error(w, "Database error loading comments.", 500)
		return
	}

	render(w, r, app, "layout.html", "post.html", map[string]interface{}{
		"Title":       post.Title,
		"Post":        post,
		"Comments":    comments,
		"IsOwner":     isOwner,
		"IsModerator": isModerator,
	})
}

// HandleProfile serves a user's public profile with their live posts. The
// owner can edit their display name and avatar through the POST branch in
// the actions file.
func HandleProfile(w http.ResponseWriter, r *http.Request, app App) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	profile, err := app.DB().GetUserByID(userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.Logger().Error("DB error fetching profile", "user_id", userID, "error", err)
		http.Error(w, "Database error loading profile.", 500)
		return
	}

	posts, err := app.DB().ListUserPosts(userID, 50)
	if err != nil {
		app.Logger().Error("DB error listing profile posts", "user_id", userID, "error", err)
		http.Error(w, "Database error loading profile.", 500)
		return
	}

	viewer := CurrentUser(r)
	render(w, r, app, "layout.html", "profile.html", map[string]interface{}{
		"Title":   profile.Username,
		"Profile": profile,
		"Posts":   posts,
		"IsOwner": viewer != nil && viewer.ID == profile.ID,
	})
}

// HandleMyReviews shows the caller their own content still waiting on
// moderation.
func HandleMyReviews(w http.ResponseWriter, r *http.Request, app App) {
	user := CurrentUser(r)

	posts, comments, err := app.DB().ListOwnPending(user.ID)
	if err != nil {
		app.Logger().Error("DB error listing own pending content", "user_id", user.ID, "error", err)
		http.Error(w, "Database error loading reviews.", 500)
		return
	}

	render(w, r, app, "layout.html", "reviews.html", map[string]interface{}{
		"Title":           "My Reviews",
		"PendingPosts":    posts,
		"PendingComments": comments,
	})
}

// generatePagination creates the list of page links for the UI.
func generatePagination(currentPage, totalPages int) []models.Page {
	if totalPages <= 1 {
		return nil
	}

	const pagesToShow = 2

	var pages []models.Page

	start := currentPage - pagesToShow
	end := currentPage + pagesToShow

	if start < 1 {
		end += (1 - start)
		start = 1
	}

	if end > totalPages {
		start -= (end - totalPages)
		end = totalPages
	}

	if start < 1 {
		start = 1
	}

	if start > 1 {
		pages = append(pages, models.Page{Number: 1})
		if start > 2 {
			pages = append(pages, models.Page{IsEllipsis: true})
		}
	}

	for i := start; i <= end; i++ {
		pages = append(pages, models.Page{Number: i, IsCurrent: i == currentPage})
	}

	if end < totalPages {
		if end < totalPages-1 {
			pages = append(pages, models.Page{IsEllipsis: true})
		}
		pages = append(pages, models.Page{Number: totalPages})
	}

	return pages
}
