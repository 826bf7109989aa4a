// Cat-Corner/database/content.go
package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/meeshellyo/Cat-Corner/lexicon"
	"github.com/meeshellyo/Cat-Corner/models"
	"github.com/meeshellyo/Cat-Corner/utils"
)

// NewMedia describes an upload already written to storage, pending its
// database row.
type NewMedia struct {
	Filename string
	Type     string
}

// Classify decides the initial status of a submission. Any lexicon hit or
// attached media routes the content to moderation; the rules apply to every
// role identically.
func Classify(lex *lexicon.Lexicon, text string, hasMedia bool) (models.ContentStatus, int, string) {
	hits, first := lex.Scan(text)
	if hits > 0 || hasMedia {
		return models.StatusFlagged, hits, first
	}
	return models.StatusLive, 0, ""
}

// CreatePost inserts a post, its subcategory links, media rows, and any
// lexicon flag in a single transaction. Subcategory ids that do not belong
// to the chosen main category are dropped. Returns the post id and the
// status the content entered with.
func (ds *DatabaseService) CreatePost(lex *lexicon.Lexicon, userID, mainCategoryID int64, title, body string, subcatIDs []int64, media []NewMedia) (int64, models.ContentStatus, error) {
	status, hits, firstWord := Classify(lex, title+"\n"+body, len(media) > 0)

	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, "", err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in CreatePost", "error", rerr)
		}
	}()

	now := utils.GetSQLTime()
	res, err := tx.Exec(
		"INSERT INTO posts (user_id, main_category_id, title, body, content_status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		userID, mainCategoryID, title, body, status, now)
	if err != nil {
		return 0, "", fmt.Errorf("inserting post: %w", err)
	}
	postID, err := res.LastInsertId()
	if err != nil {
		return 0, "", err
	}

	for _, subID := range subcatIDs {
		// The subquery enforces that the subcategory belongs to the
		// post's main category; mismatches insert nothing.
		if _, err := tx.Exec(`
			INSERT INTO post_subcategories (post_id, subcategory_id)
			SELECT ?, id FROM subcategories WHERE id = ? AND main_category_id = ?`,
			postID, subID, mainCategoryID); err != nil {
			return 0, "", fmt.Errorf("linking subcategory %d: %w", subID, err)
		}
	}

	for _, m := range media {
		if _, err := tx.Exec(
			"INSERT INTO media (post_id, filename, type, moderation_status, created_at) VALUES (?, ?, ?, ?, ?)",
			postID, m.Filename, m.Type, models.MediaPending, now); err != nil {
			return 0, "", fmt.Errorf("inserting media row: %w", err)
		}
	}

	if hits > 0 {
		if _, err := tx.Exec(
			"INSERT INTO flags (post_id, trigger_source, trigger_hits, trigger_word, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			postID, models.TriggerLexicon, hits, firstWord, models.FlagOpen, now); err != nil {
			return 0, "", fmt.Errorf("inserting lexicon flag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	return postID, status, nil
}

// CreateComment inserts a comment and any lexicon flag in one transaction.
// Comments carry no media, so only lexicon hits can flag them.
func (ds *DatabaseService) CreateComment(lex *lexicon.Lexicon, postID, userID int64, body string) (int64, models.ContentStatus, error) {
	status, hits, firstWord := Classify(lex, body, false)

	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, "", err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in CreateComment", "error", rerr)
		}
	}()

	// The parent check shares the transaction with the insert so the post
	// cannot be flagged or deleted in between.
	var postStatus models.ContentStatus
	if err := tx.QueryRow("SELECT content_status FROM posts WHERE id = ?", postID).Scan(&postStatus); err != nil {
		if err == sql.ErrNoRows {
			return 0, "", ErrNotFound
		}
		return 0, "", fmt.Errorf("db error checking post: %w", err)
	}
	if postStatus != models.StatusLive {
		return 0, "", fmt.Errorf("post %d is not open for comments", postID)
	}

	now := utils.GetSQLTime()
	res, err := tx.Exec(
		"INSERT INTO comments (post_id, user_id, body, content_status, created_at) VALUES (?, ?, ?, ?, ?)",
		postID, userID, body, status, now)
	if err != nil {
		return 0, "", fmt.Errorf("inserting comment: %w", err)
	}
	commentID, err := res.LastInsertId()
	if err != nil {
		return 0, "", err
	}

	if hits > 0 {
		if _, err := tx.Exec(
			"INSERT INTO flags (post_id, comment_id, trigger_source, trigger_hits, trigger_word, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			postID, commentID, models.TriggerLexicon, hits, firstWord, models.FlagOpen, now); err != nil {
			return 0, "", fmt.Errorf("inserting lexicon flag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	return commentID, status, nil
}

// --- Feed & Detail ---

// Feed sort modes.
const (
	SortRecent = "recent"
	SortLiked  = "liked"
	SortTea    = "tea" // most commented
)

// ListFeed returns live posts with vote and comment aggregates. mainCatID 0
// means all categories. viewerID 0 means anonymous.
func (ds *DatabaseService) ListFeed(mainCatID, viewerID int64, sort string, limit, offset int) ([]models.Post, error) {
	order := "p.created_at DESC"
	switch sort {
	case SortLiked:
		order = "score DESC, p.created_at DESC"
	case SortTea:
		order = "comment_count DESC, p.created_at DESC"
	}

	query := `
		SELECT p.id, p.user_id, p.main_category_id, p.title, p.body, p.content_status, p.created_at,
		       COALESCE(NULLIF(u.display_name, ''), u.username),
		       mc.name, mc.slug,
		       COALESCE(SUM(CASE WHEN v.value = 1 THEN 1 ELSE 0 END), 0) AS likes,
		       COALESCE(SUM(CASE WHEN v.value = -1 THEN 1 ELSE 0 END), 0) AS dislikes,
		       COALESCE(SUM(v.value), 0) AS score,
		       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.content_status = 'live') AS comment_count,
		       COALESCE((SELECT v2.value FROM post_votes v2 WHERE v2.post_id = p.id AND v2.user_id = ?), 0)
		FROM posts p
		JOIN users u ON p.user_id = u.id
		JOIN main_categories mc ON p.main_category_id = mc.id
		LEFT JOIN post_votes v ON v.post_id = p.id
		WHERE p.content_status = 'live'`
	args := []interface{}{viewerID}

	if mainCatID != 0 {
		query += " AND p.main_category_id = ?"
		args = append(args, mainCatID)
	}
	query += " GROUP BY p.id ORDER BY " + order + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := ds.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error listing feed: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListFeed", "error", err)
		}
	}()

	var posts []models.Post
	var score int
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.MainCategoryID, &p.Title, &p.Body, &p.Status, &p.CreatedAt,
			&p.AuthorName, &p.CategoryName, &p.CategorySlug,
			&p.Likes, &p.Dislikes, &score, &p.CommentCount, &p.CallerVote); err != nil {
			ds.logger.Error("Failed to scan feed row", "error", err)
			continue
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := ds.attachSubcategories(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CountFeed returns the number of live posts, optionally scoped to one
// main category.
func (ds *DatabaseService) CountFeed(mainCatID int64) (int, error) {
	query := "SELECT COUNT(*) FROM posts WHERE content_status = 'live'"
	args := []interface{}{}
	if mainCatID != 0 {
		query += " AND main_category_id = ?"
		args = append(args, mainCatID)
	}
	var count int
	if err := ds.DB.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error counting feed: %w", err)
	}
	return count, nil
}

// GetPost fetches one post with author, category, votes, subcategories and
// media. Media visibility is the caller's concern.
func (ds *DatabaseService) GetPost(postID, viewerID int64) (*models.Post, error) {
	var p models.Post
	err := ds.DB.QueryRow(`
		SELECT p.id, p.user_id, p.main_category_id, p.title, p.body, p.content_status, p.created_at,
		       COALESCE(NULLIF(u.display_name, ''), u.username),
		       mc.name, mc.slug,
		       COALESCE(SUM(CASE WHEN v.value = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN v.value = -1 THEN 1 ELSE 0 END), 0),
		       COALESCE((SELECT v2.value FROM post_votes v2 WHERE v2.post_id = p.id AND v2.user_id = ?), 0)
		FROM posts p
		JOIN users u ON p.user_id = u.id
		JOIN main_categories mc ON p.main_category_id = mc.id
		LEFT JOIN post_votes v ON v.post_id = p.id
		WHERE p.id = ?
		GROUP BY p.id`, viewerID, postID).Scan(
		&p.ID, &p.UserID, &p.MainCategoryID, &p.Title, &p.Body, &p.Status, &p.CreatedAt,
		&p.AuthorName, &p.CategoryName, &p.CategorySlug, &p.Likes, &p.Dislikes, &p.CallerVote)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error fetching post %d: %w", postID, err)
	}

	posts := []models.Post{p}
	if err := ds.attachSubcategories(posts); err != nil {
		return nil, err
	}
	p = posts[0]

	mediaRows, err := ds.DB.Query(
		"SELECT id, post_id, filename, type, moderation_status, moderated_by, moderated_at, created_at FROM media WHERE post_id = ? ORDER BY id ASC", postID)
	if err != nil {
		return nil, fmt.Errorf("db error fetching media: %w", err)
	}
	defer func() {
		if err := mediaRows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetPost", "error", err)
		}
	}()
	for mediaRows.Next() {
		var m models.Media
		if err := mediaRows.Scan(&m.ID, &m.PostID, &m.Filename, &m.Type, &m.Status, &m.ModeratedBy, &m.ModeratedAt, &m.CreatedAt); err != nil {
			ds.logger.Error("Failed to scan media row", "error", err)
			continue
		}
		p.Media = append(p.Media, m)
	}
	if err := mediaRows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListComments returns a post's live comments in ascending order.
func (ds *DatabaseService) ListComments(postID int64) ([]models.Comment, error) {
	rows, err := ds.DB.Query(`
		SELECT c.id, c.post_id, c.user_id, c.body, c.content_status, c.created_at,
		       COALESCE(NULLIF(u.display_name, ''), u.username)
		FROM comments c JOIN users u ON c.user_id = u.id
		WHERE c.post_id = ? AND c.content_status = 'live'
		ORDER BY c.id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("db error listing comments: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListComments", "error", err)
		}
	}()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Body, &c.Status, &c.CreatedAt, &c.AuthorName); err != nil {
			ds.logger.Error("Failed to scan comment row", "error", err)
			continue
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// attachSubcategories fills the Subcategories slice on each post.
func (ds *DatabaseService) attachSubcategories(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]interface{}, 0, len(posts))
	index := make(map[int64]int, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].ID)
		index[posts[i].ID] = i
	}

	query := `
		SELECT ps.post_id, s.id, s.main_category_id, s.name, s.slug
		FROM post_subcategories ps JOIN subcategories s ON ps.subcategory_id = s.id
		WHERE ps.post_id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	rows, err := ds.DB.Query(query, ids...)
	if err != nil {
		return fmt.Errorf("db error fetching subcategories: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in attachSubcategories", "error", err)
		}
	}()
	for rows.Next() {
		var postID int64
		var s models.Subcategory
		if err := rows.Scan(&postID, &s.ID, &s.MainCategoryID, &s.Name, &s.Slug); err != nil {
			ds.logger.Error("Failed to scan subcategory row", "error", err)
			continue
		}
		if i, ok := index[postID]; ok {
			posts[i].Subcategories = append(posts[i].Subcategories, s)
		}
	}
	return rows.Err()
}

// --- Votes ---

// CastVote applies the toggle-upsert vote rule for (postID, userID): voting
// the same value again removes the vote, a different value replaces it.
// Returns the post's refreshed tallies.
func (ds *DatabaseService) CastVote(postID, userID int64, value int) (*models.VoteResult, error) {
	if value != 1 && value != -1 {
		return nil, fmt.Errorf("invalid vote value %d", value)
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in CastVote", "error", rerr)
		}
	}()

	var status models.ContentStatus
	if err := tx.QueryRow("SELECT content_status FROM posts WHERE id = ?", postID).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error checking post: %w", err)
	}
	if status != models.StatusLive {
		return nil, fmt.Errorf("post %d is not open for voting", postID)
	}

	res, err := tx.Exec("DELETE FROM post_votes WHERE post_id = ? AND user_id = ? AND value = ?", postID, userID, value)
	if err != nil {
		return nil, fmt.Errorf("toggling vote: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		if _, err := tx.Exec(`
			INSERT INTO post_votes (post_id, user_id, value, created_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(post_id, user_id) DO UPDATE SET value = excluded.value`,
			postID, userID, value, utils.GetSQLTime()); err != nil {
			return nil, fmt.Errorf("upserting vote: %w", err)
		}
	}

	var result models.VoteResult
	if err := tx.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN value = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN value = -1 THEN 1 ELSE 0 END), 0)
		FROM post_votes WHERE post_id = ?`, postID).Scan(&result.Likes, &result.Dislikes); err != nil {
		return nil, fmt.Errorf("counting votes: %w", err)
	}
	result.OK = true
	result.Score = result.Likes - result.Dislikes

	return &result, tx.Commit()
}

// --- Reports & Manual Flags ---

// ReportPost files a user report against a live post. The content stays
// visible; only the open flag puts it in the queue.
func (ds *DatabaseService) ReportPost(reporterID, postID int64, reason string) error {
	return ds.insertManualFlag(reporterID, postID, 0, models.UserReportMarker+" "+reason, false)
}

// ReportComment files a user report against a comment.
func (ds *DatabaseService) ReportComment(reporterID, postID, commentID int64, reason string) error {
	return ds.insertManualFlag(reporterID, postID, commentID, models.UserReportMarker+" "+reason, false)
}

// FlagPost is the moderator action: raises a manual flag and pulls the post
// out of the live feed.
func (ds *DatabaseService) FlagPost(modID, postID int64, reason string) error {
	return ds.insertManualFlag(modID, postID, 0, reason, true)
}

// FlagComment raises a manual flag on a comment and hides it.
func (ds *DatabaseService) FlagComment(modID, postID, commentID int64, reason string) error {
	return ds.insertManualFlag(modID, postID, commentID, reason, true)
}

func (ds *DatabaseService) insertManualFlag(actorID, postID, commentID int64, notes string, hide bool) error {
	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in insertManualFlag", "error", rerr)
		}
	}()

	now := utils.GetSQLTime()
	var cID sql.NullInt64
	var status models.ContentStatus
	if commentID != 0 {
		cID = sql.NullInt64{Int64: commentID, Valid: true}
		err = tx.QueryRow("SELECT content_status FROM comments WHERE id = ? AND post_id = ?", commentID, postID).Scan(&status)
	} else {
		err = tx.QueryRow("SELECT content_status FROM posts WHERE id = ?", postID).Scan(&status)
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	// Rejected and deleted content is settled; new flags would put it back
	// in the queue.
	if status == models.StatusRejected || status == models.StatusDeleted {
		return ErrAlreadyResolved
	}

	if _, err := tx.Exec(
		"INSERT INTO flags (post_id, comment_id, trigger_source, status, flagged_by_id, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		postID, cID, models.TriggerManual, models.FlagOpen, actorID, notes, now); err != nil {
		return fmt.Errorf("inserting manual flag: %w", err)
	}

	if hide {
		if commentID != 0 {
			if _, err := tx.Exec("UPDATE comments SET content_status = ? WHERE id = ? AND content_status = ?",
				models.StatusFlagged, commentID, models.StatusLive); err != nil {
				return fmt.Errorf("hiding comment: %w", err)
			}
		} else {
			if _, err := tx.Exec("UPDATE posts SET content_status = ? WHERE id = ? AND content_status = ?",
				models.StatusFlagged, postID, models.StatusLive); err != nil {
				return fmt.Errorf("hiding post: %w", err)
			}
		}
	}
	return tx.Commit()
}

// --- Owner Deletion ---

// DeleteOwnPost soft-deletes a post for its owner (or an admin). Open flags
// on the post close without an audit row since no moderation decision was
// made.
func (ds *DatabaseService) DeleteOwnPost(actorID, postID int64, isAdmin bool) error {
	return ds.softDelete(actorID, postID, 0, isAdmin)
}

// DeleteOwnComment soft-deletes a comment for its owner (or an admin).
func (ds *DatabaseService) DeleteOwnComment(actorID, commentID int64, isAdmin bool) error {
	return ds.softDelete(actorID, 0, commentID, isAdmin)
}

func (ds *DatabaseService) softDelete(actorID, postID, commentID int64, isAdmin bool) error {
	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in softDelete", "error", rerr)
		}
	}()

	now := utils.GetSQLTime()
	if commentID != 0 {
		var ownerID int64
		if err := tx.QueryRow("SELECT user_id FROM comments WHERE id = ?", commentID).Scan(&ownerID); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
		if ownerID != actorID && !isAdmin {
			return fmt.Errorf("not the comment owner")
		}
		if _, err := tx.Exec("UPDATE comments SET content_status = ? WHERE id = ?", models.StatusDeleted, commentID); err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE flags SET status = ?, decided_at = ? WHERE comment_id = ? AND status = ?",
			models.FlagRejected, now, commentID, models.FlagOpen); err != nil {
			return err
		}
	} else {
		var ownerID int64
		if err := tx.QueryRow("SELECT user_id FROM posts WHERE id = ?", postID).Scan(&ownerID); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
		if ownerID != actorID && !isAdmin {
			return fmt.Errorf("not the post owner")
		}
		if _, err := tx.Exec("UPDATE posts SET content_status = ? WHERE id = ?", models.StatusDeleted, postID); err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE flags SET status = ?, decided_at = ? WHERE post_id = ? AND comment_id IS NULL AND status = ?",
			models.FlagRejected, now, postID, models.FlagOpen); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- Profile & Self-Review ---

// ListUserPosts returns a user's live posts for their profile page.
func (ds *DatabaseService) ListUserPosts(userID int64, limit int) ([]models.Post, error) {
	rows, err := ds.DB.Query(`
		SELECT p.id, p.user_id, p.main_category_id, p.title, p.body, p.content_status, p.created_at,
		       COALESCE(NULLIF(u.display_name, ''), u.username), mc.name, mc.slug
		FROM posts p
		JOIN users u ON p.user_id = u.id
		JOIN main_categories mc ON p.main_category_id = mc.id
		WHERE p.user_id = ? AND p.content_status = 'live'
		ORDER BY p.created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error listing user posts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListUserPosts", "error", err)
		}
	}()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.MainCategoryID, &p.Title, &p.Body, &p.Status, &p.CreatedAt,
			&p.AuthorName, &p.CategoryName, &p.CategorySlug); err != nil {
			ds.logger.Error("Failed to scan user post row", "error", err)
			continue
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListOwnPending returns the caller's own posts and comments still waiting
// on moderation, for the self-review page.
func (ds *DatabaseService) ListOwnPending(userID int64) ([]models.Post, []models.Comment, error) {
	postRows, err := ds.DB.Query(`
		SELECT id, user_id, main_category_id, title, body, content_status, created_at
		FROM posts WHERE user_id = ? AND content_status IN ('pending', 'flagged')
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("db error listing pending posts: %w", err)
	}
	defer func() {
		if err := postRows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListOwnPending", "error", err)
		}
	}()

	var posts []models.Post
	for postRows.Next() {
		var p models.Post
		if err := postRows.Scan(&p.ID, &p.UserID, &p.MainCategoryID, &p.Title, &p.Body, &p.Status, &p.CreatedAt); err != nil {
			continue
		}
		posts = append(posts, p)
	}
	if err := postRows.Err(); err != nil {
		return nil, nil, err
	}

	commentRows, err := ds.DB.Query(`
		SELECT id, post_id, user_id, body, content_status, created_at
		FROM comments WHERE user_id = ? AND content_status IN ('pending', 'flagged')
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("db error listing pending comments: %w", err)
	}
	defer func() {
		if err := commentRows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListOwnPending", "error", err)
		}
	}()

	var comments []models.Comment
	for commentRows.Next() {
		var c models.Comment
		if err := commentRows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Body, &c.Status, &c.CreatedAt); err != nil {
			continue
		}
		comments = append(comments, c)
	}
	return posts, comments, commentRows.Err()
}
