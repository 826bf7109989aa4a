// Cat-Corner/handlers/moderation.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/meeshellyo/Cat-Corner/database"
	"github.com/meeshellyo/Cat-Corner/models"
)

// Comments carry no media, so the comment queue omits that filter.
var (
	postQueueFilters = []string{
		database.FilterAll,
		database.FilterLexicon,
		database.FilterUser,
		database.FilterMedia,
	}
	commentQueueFilters = []string{
		database.FilterAll,
		database.FilterLexicon,
		database.FilterUser,
	}
)

// HandleModQueue renders the moderation queue. kind selects posts or
// comments, filter narrows by what put the item in the queue. Items the
// moderator authored or flagged themselves render without action buttons.
func HandleModQueue(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleModQueue")
	user := CurrentUser(r)

	kind := r.URL.Query().Get("kind")
	if kind != "comments" {
		kind = "posts"
	}
	filters := postQueueFilters
	if kind == "comments" {
		filters = commentQueueFilters
	}
	filter := r.URL.Query().Get("filter")
	valid := false
	for _, f := range filters {
		if filter == f {
			valid = true
			break
		}
	}
	if !valid {
		filter = database.FilterAll
	}

	var items []models.QueueItem
	var err error
	if kind == "comments" {
		items, err = app.DB().ListCommentQueue(user.ID, filter)
	} else {
		items, err = app.DB().ListPostQueue(user.ID, filter)
	}
	if err != nil {
		logger.Error("Failed to load moderation queue", "kind", kind, "filter", filter, "error", err)
		http.Error(w, "Could not load the queue.", http.StatusInternalServerError)
		return
	}

	render(w, r, app, "layout.html", "mod_queue.html", map[string]interface{}{
		"Title":   "Moderation Queue",
		"Items":   items,
		"Kind":    kind,
		"Filter":  filter,
		"Filters": filters,
		"Notice":  r.URL.Query().Get("notice"),
	})
}

// HandleResolve applies a moderator decision to a queued post or comment.
func HandleResolve(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleResolve")
	user := CurrentUser(r)

	action := r.FormValue("action")
	if action != database.ActionApproved && action != database.ActionRejected {
		http.Error(w, "Unknown action.", http.StatusBadRequest)
		return
	}
	reason := strings.TrimSpace(r.FormValue("reason"))
	kind := r.FormValue("kind")
	if kind != "comments" {
		kind = "posts"
	}

	var err error
	var targetID int64
	if kind == "comments" {
		targetID, _ = strconv.ParseInt(r.FormValue("comment_id"), 10, 64)
		if targetID == 0 {
			http.Error(w, "Missing comment ID.", http.StatusBadRequest)
			return
		}
		err = app.DB().ResolveComment(user.ID, targetID, action, reason)
	} else {
		targetID, _ = strconv.ParseInt(r.FormValue("post_id"), 10, 64)
		if targetID == 0 {
			http.Error(w, "Missing post ID.", http.StatusBadRequest)
			return
		}
		err = app.DB().ResolvePost(user.ID, targetID, action, reason)
	}

	back := func(notice string) {
		http.Redirect(w, r, "/mod/queue?kind="+kind+"&notice="+notice, http.StatusSeeOther)
	}

	switch {
	case err == nil:
		logger.Info("Moderation decision applied", "kind", kind, "target_id", targetID, "action", action, "moderator_id", user.ID)
		back("resolved")
	case errors.Is(err, database.ErrSelfModeration):
		back("self")
	case errors.Is(err, database.ErrAlreadyResolved):
		back("already")
	case errors.Is(err, database.ErrNotFound):
		http.NotFound(w, r)
	default:
		logger.Error("Failed to apply decision", "kind", kind, "target_id", targetID, "action", action, "error", err)
		http.Error(w, "Could not apply the decision.", http.StatusInternalServerError)
	}
}

// HandleFlag lets a moderator flag live content out of view pending review.
func HandleFlag(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleFlag")
	user := CurrentUser(r)

	postID, err := strconv.ParseInt(r.FormValue("post_id"), 10, 64)
	if err != nil || postID == 0 {
		http.Error(w, "Invalid post ID.", http.StatusBadRequest)
		return
	}
	reason := strings.TrimSpace(r.FormValue("reason"))
	if reason == "" {
		http.Error(w, "A reason is required to flag content.", http.StatusBadRequest)
		return
	}

	commentID, _ := strconv.ParseInt(r.FormValue("comment_id"), 10, 64)
	if commentID != 0 {
		err = app.DB().FlagComment(user.ID, postID, commentID, reason)
	} else {
		err = app.DB().FlagPost(user.ID, postID, reason)
	}
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if errors.Is(err, database.ErrAlreadyResolved) {
			http.Error(w, "This content has already been moderated.", http.StatusConflict)
			return
		}
		logger.Error("Failed to flag content", "post_id", postID, "comment_id", commentID, "error", err)
		http.Error(w, "Could not flag the content.", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d", postID), http.StatusSeeOther)
}

// HandleAdminLogs shows the moderation audit trail with an action filter.
func HandleAdminLogs(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleAdminLogs")

	action := r.URL.Query().Get("action")
	if action != database.ActionApproved && action != database.ActionRejected {
		action = ""
	}

	logs, err := app.DB().ListModerationLogs(action, 200)
	if err != nil {
		logger.Error("Failed to load moderation logs", "error", err)
		http.Error(w, "Could not load logs.", http.StatusInternalServerError)
		return
	}
	approved, rejected, err := app.DB().ModerationLogCounts()
	if err != nil {
		logger.Error("Failed to count moderation logs", "error", err)
		http.Error(w, "Could not load logs.", http.StatusInternalServerError)
		return
	}

	render(w, r, app, "layout.html", "admin_logs.html", map[string]interface{}{
		"Title":         "Moderation Logs",
		"Logs":          logs,
		"Action":        action,
		"ApprovedCount": approved,
		"RejectedCount": rejected,
	})
}

// HandlePromote lets an admin change a user's role between registered
// and moderator. Admin accounts cannot be touched from here.
func HandlePromote(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandlePromote")
	user := CurrentUser(r)

	if r.Method == http.MethodGet {
		render(w, r, app, "layout.html", "admin_promote.html", map[string]interface{}{
			"Title": "Manage Roles",
		})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	role := models.Role(r.FormValue("role"))
	if username == "" {
		http.Error(w, "Username is required.", http.StatusBadRequest)
		return
	}

	err := app.DB().SetUserRole(user.ID, username, role)
	data := map[string]interface{}{"Title": "Manage Roles", "Username": username}
	switch {
	case err == nil:
		logger.Info("Role changed", "username", username, "role", role, "admin_id", user.ID)
		data["Notice"] = fmt.Sprintf("%s is now a %s.", username, role)
	case errors.Is(err, database.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		data["Error"] = "No such user, or the account cannot be changed."
	default:
		logger.Error("Failed to change role", "username", username, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		data["Error"] = "Could not change the role."
	}
	render(w, r, app, "layout.html", "admin_promote.html", data)
}
