// Cat-Corner/handlers/actions.go
package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders for media sniffing
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/meeshellyo/Cat-Corner/config"
	"github.com/meeshellyo/Cat-Corner/database"
	"github.com/meeshellyo/Cat-Corner/models"
	"github.com/meeshellyo/Cat-Corner/utils"
)

// Validation rules for submitted content, sized by the config limits.
var (
	titleRules    = fmt.Sprintf("required,min=3,max=%d", config.MaxTitleLen)
	postBodyRules = fmt.Sprintf("required,min=1,max=%d", config.MaxBodyLen)
	commentRules  = fmt.Sprintf("required,min=1,max=%d", config.MaxCommentLen)
)

type postForm struct {
	Title string
	Body  string
}

// HandleNewPost serves the create-post form and handles submission. The
// whole submission is one database transaction; media files are written to
// storage first and removed again if the transaction fails.
func HandleNewPost(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleNewPost")
	user := CurrentUser(r)

	if r.Method == http.MethodGet {
		render(w, r, app, "layout.html", "new_post.html", map[string]interface{}{
			"Title": "New Post",
		})
		return
	}

	if err := r.ParseMultipartForm(config.MaxMediaSize + 1024); err != nil {
		logger.Warn("Form parsing error", "error", err)
		http.Error(w, "Form parsing error.", http.StatusBadRequest)
		return
	}

	form := postForm{
		Title: strings.TrimSpace(r.FormValue("title")),
		Body:  strings.TrimSpace(r.FormValue("body")),
	}

	fail := func(status int, msg string) {
		w.WriteHeader(status)
		render(w, r, app, "layout.html", "new_post.html", map[string]interface{}{
			"Title":     "New Post",
			"Error":     msg,
			"FormTitle": form.Title,
			"FormBody":  form.Body,
		})
	}

	if app.Validator().Var(form.Title, titleRules) != nil || app.Validator().Var(form.Body, postBodyRules) != nil {
		fail(http.StatusBadRequest, fmt.Sprintf("A title (3-%d characters) and a body are required.", config.MaxTitleLen))
		return
	}

	ip := utils.GetIPAddress(r)
	if !app.RateLimiter().GetLimiter(ip).Allow() {
		fail(http.StatusTooManyRequests, "You are posting too fast. Please wait a moment.")
		return
	}

	mainCatID, err := strconv.ParseInt(r.FormValue("main_category"), 10, 64)
	if err != nil || mainCatID == 0 {
		fail(http.StatusBadRequest, "Please choose a main category.")
		return
	}

	var subcatIDs []int64
	for _, raw := range r.Form["subcategories"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			subcatIDs = append(subcatIDs, id)
		}
	}

	media, savedPaths, err := processMedia(r, app, logger)
	if err != nil {
		fail(http.StatusBadRequest, "Upload failed: "+err.Error())
		return
	}

	postID, status, err := app.DB().CreatePost(app.Lexicon(), user.ID, mainCatID, form.Title, form.Body, subcatIDs, media)
	if err != nil {
		for _, p := range savedPaths {
			if derr := app.Storage().DeleteFile(p); derr != nil {
				logger.Warn("Failed to clean up media after rollback", "path", p, "error", derr)
			}
		}
		logger.Error("Failed to create post", "error", err)
		fail(http.StatusInternalServerError, "Database error saving post.")
		return
	}

	logger.Info("New post created", "post_id", postID, "status", status, "user_id", user.ID)
	if status == models.StatusLive {
		http.Redirect(w, r, fmt.Sprintf("/posts/%d", postID), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/reviews", http.StatusSeeOther)
}

// HandleNewComment adds a comment to a live post.
func HandleNewComment(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleNewComment")
	user := CurrentUser(r)

	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	body := strings.TrimSpace(r.FormValue("body"))
	if err := app.Validator().Var(body, commentRules); err != nil {
		http.Error(w, "Comment body is required.", http.StatusBadRequest)
		return
	}

	ip := utils.GetIPAddress(r)
	if !app.RateLimiter().GetLimiter(ip).Allow() {
		http.Error(w, "You are posting too fast.", http.StatusTooManyRequests)
		return
	}

	_, status, err := app.DB().CreateComment(app.Lexicon(), postID, user.ID, body)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.Error("Failed to create comment", "post_id", postID, "error", err)
		http.Error(w, "Could not save comment.", http.StatusInternalServerError)
		return
	}

	if status == models.StatusFlagged {
		http.Redirect(w, r, "/reviews", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d", postID), http.StatusSeeOther)
}

// HandleVote is the JSON vote endpoint: {"post_id": 1, "value": 1}.
func HandleVote(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleVote")
	user := CurrentUser(r)
	if user == nil {
		respondJSON(w, http.StatusUnauthorized, map[string]interface{}{"ok": false, "error": "Login required."}, app)
		return
	}

	var req struct {
		PostID int64 `json:"post_id"`
		Value  int   `json:"value"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1024)).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Invalid request body."}, app)
		return
	}

	result, err := app.DB().CastVote(req.PostID, user.ID, req.Value)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]interface{}{"ok": false, "error": "Post not found."}, app)
			return
		}
		logger.Warn("Vote rejected", "post_id", req.PostID, "value", req.Value, "error", err)
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Vote rejected."}, app)
		return
	}
	respondJSON(w, http.StatusOK, result, app)
}

// HandleReport lets any logged-in user report a post or comment. The
// content stays live; the open flag routes it to the moderation queue.
func HandleReport(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleReport")
	user := CurrentUser(r)

	postID, err := strconv.ParseInt(r.FormValue("post_id"), 10, 64)
	if err != nil || postID == 0 {
		http.Error(w, "Invalid post ID.", http.StatusBadRequest)
		return
	}
	reason := strings.TrimSpace(r.FormValue("reason"))
	if reason == "" {
		http.Error(w, "Reason for reporting cannot be empty.", http.StatusBadRequest)
		return
	}

	commentID, _ := strconv.ParseInt(r.FormValue("comment_id"), 10, 64)
	if commentID != 0 {
		err = app.DB().ReportComment(user.ID, postID, commentID, reason)
	} else {
		err = app.DB().ReportPost(user.ID, postID, reason)
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
		logger.Error("Failed to file report", "post_id", postID, "comment_id", commentID, "error", err)
		http.Error(w, "Failed to submit report.", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/posts/%d", postID), http.StatusSeeOther)
}

// HandleDeleteOwn lets an author (or an admin) remove their post or comment.
func HandleDeleteOwn(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleDeleteOwn")
	user := CurrentUser(r)
	isAdmin := user.Role == models.RoleAdmin

	postID, _ := strconv.ParseInt(r.FormValue("post_id"), 10, 64)
	commentID, _ := strconv.ParseInt(r.FormValue("comment_id"), 10, 64)

	var err error
	redirect := "/"
	if commentID != 0 {
		err = app.DB().DeleteOwnComment(user.ID, commentID, isAdmin)
		if postID != 0 {
			redirect = fmt.Sprintf("/posts/%d", postID)
		}
	} else if postID != 0 {
		err = app.DB().DeleteOwnPost(user.ID, postID, isAdmin)
	} else {
		http.Error(w, "Nothing to delete.", http.StatusBadRequest)
		return
	}

	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.Warn("Deletion refused", "post_id", postID, "comment_id", commentID, "user_id", user.ID, "error", err)
		http.Error(w, "You do not have permission to delete this.", http.StatusForbidden)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// HandleUpdateProfile lets the owner change their display name and avatar.
func HandleUpdateProfile(w http.ResponseWriter, r *http.Request, app App) {
	user := CurrentUser(r)
	profileID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || profileID != user.ID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	displayName := strings.TrimSpace(r.FormValue("display_name"))
	if len(displayName) > config.MaxDisplayNameLen {
		http.Error(w, "Display name is too long.", http.StatusBadRequest)
		return
	}
	avatar := strings.TrimSpace(r.FormValue("avatar"))

	if err := app.DB().UpdateProfile(user.ID, displayName, avatar); err != nil {
		app.Logger().Error("Failed to update profile", "user_id", user.ID, "error", err)
		http.Error(w, "Could not update profile.", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/profile/%d", user.ID), http.StatusSeeOther)
}

// --- Internal Helper Functions ---

// processMedia reads uploaded files, validates them by magic bytes against
// the allow-list, writes them (and image thumbnails) to storage, and
// returns the rows for the database plus the stored paths for cleanup.
func processMedia(r *http.Request, app App, logger *slog.Logger) ([]database.NewMedia, []string, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}
	files := r.MultipartForm.File["media"]
	if len(files) == 0 {
		return nil, nil, nil
	}

	var media []database.NewMedia
	var savedPaths []string
	cleanup := func() {
		for _, p := range savedPaths {
			if err := app.Storage().DeleteFile(p); err != nil {
				logger.Warn("Failed to remove media during cleanup", "path", p, "error", err)
			}
		}
	}

	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("could not open upload: %w", err)
		}

		limitedReader := &io.LimitedReader{R: file, N: config.MaxMediaSize + 1}
		data, err := io.ReadAll(limitedReader)
		if cerr := file.Close(); cerr != nil {
			logger.Error("Failed to close upload file", "error", cerr)
		}
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("could not read file data: %w", err)
		}
		if limitedReader.N == 0 {
			cleanup()
			return nil, nil, fmt.Errorf("file is larger than the %dMB limit", config.MaxMediaSize/1024/1024)
		}
		if len(data) == 0 {
			cleanup()
			return nil, nil, fmt.Errorf("file is empty")
		}

		// Magic byte validation
		contentType := http.DetectContentType(data)
		mediaType, ok := config.AllowedMediaTypes[contentType]
		if !ok {
			logger.Warn("User uploaded file with invalid MIME type", "detected_type", contentType, "filename", header.Filename)
			cleanup()
			return nil, nil, fmt.Errorf("unsupported file type %s: only JPEG, PNG, GIF, and MP4 are allowed", contentType)
		}

		hash := sha256.Sum256(data)
		hashStr := hex.EncodeToString(hash[:])
		ext := extensionFor(contentType)
		filename := fmt.Sprintf("%d_%s%s", utils.GetTime().UnixNano(), hashStr[:12], ext)

		if mediaType == "image" || mediaType == "gif" {
			cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("invalid image: %w", err)
			}
			if cfg.Width > config.MaxWidth || cfg.Height > config.MaxHeight {
				cleanup()
				return nil, nil, fmt.Errorf("image dimensions (%dx%d) exceed maximum (%dx%d)",
					cfg.Width, cfg.Height, config.MaxWidth, config.MaxHeight)
			}
		}

		path, err := app.Storage().SaveFile(filename, data, contentType)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("could not store upload: %w", err)
		}
		savedPaths = append(savedPaths, path)

		// Still images get a thumbnail; animated gifs and video are served
		// as uploaded.
		if mediaType == "image" {
			if thumbPath, err := makeThumbnail(app, data, filename); err != nil {
				logger.Error("Failed to create thumbnail", "filename", filename, "error", err)
			} else {
				savedPaths = append(savedPaths, thumbPath)
			}
		}

		media = append(media, database.NewMedia{Filename: filename, Type: mediaType})
	}
	return media, savedPaths, nil
}

func makeThumbnail(app App, data []byte, filename string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decoding for thumbnail: %w", err)
	}
	thumb := imaging.Fit(img, config.ThumbnailWidth, config.ThumbnailHeight, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("encoding thumbnail: %w", err)
	}

	base := strings.TrimSuffix(filename, "."+strings.SplitN(filename, ".", 2)[1])
	thumbName := base + "_thumb.jpeg"
	return app.Storage().SaveFile(thumbName, buf.Bytes(), "image/jpeg")
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpeg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	}
	return ""
}
