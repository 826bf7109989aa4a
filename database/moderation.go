// Cat-Corner/database/moderation.go
package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/meeshellyo/Cat-Corner/models"
	"github.com/meeshellyo/Cat-Corner/utils"
)

// Queue filters.
const (
	FilterAll     = "all"
	FilterLexicon = "lexicon"
	FilterUser    = "user"
	FilterMedia   = "media"
)

// Moderation actions recorded in the audit log.
const (
	ActionApproved = "approved"
	ActionRejected = "rejected"
)

// ListPostQueue returns posts needing review: status pending or flagged,
// or carrying an open flag, or carrying pending media. Signals are
// aggregated from post-level flags only; comment-scoped flags never count
// toward a post's row. actorID marks items the caller flagged themselves.
func (ds *DatabaseService) ListPostQueue(actorID int64, filter string) ([]models.QueueItem, error) {
	query := `
		SELECT p.id, p.user_id, COALESCE(NULLIF(u.display_name, ''), u.username),
		       p.title, p.body, p.content_status, p.created_at,
		       COUNT(f.id),
		       SUM(CASE WHEN f.trigger_source = 'lexicon' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN f.trigger_source = 'manual' AND f.notes LIKE ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN f.trigger_source = 'manual' AND f.notes NOT LIKE ? THEN 1 ELSE 0 END),
		       COALESCE(GROUP_CONCAT(DISTINCT NULLIF(f.trigger_word, '')), ''),
		       MAX(f.created_at),
		       (SELECT COUNT(*) FROM media m WHERE m.post_id = p.id AND m.moderation_status = 'pending'),
		       EXISTS(SELECT 1 FROM flags sf WHERE sf.post_id = p.id AND sf.comment_id IS NULL AND sf.status = 'flagged' AND sf.flagged_by_id = ?)
		FROM posts p
		JOIN users u ON p.user_id = u.id
		LEFT JOIN flags f ON f.post_id = p.id AND f.comment_id IS NULL AND f.status = 'flagged'
		WHERE p.content_status NOT IN ('deleted', 'rejected')
		GROUP BY p.id
		HAVING p.content_status IN ('pending', 'flagged')
		    OR COUNT(f.id) > 0
		    OR (SELECT COUNT(*) FROM media m WHERE m.post_id = p.id AND m.moderation_status = 'pending') > 0
		ORDER BY MAX(f.created_at) DESC, p.created_at DESC`

	reportPattern := models.UserReportMarker + "%"
	rows, err := ds.DB.Query(query, reportPattern, reportPattern, actorID)
	if err != nil {
		return nil, fmt.Errorf("db error listing post queue: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListPostQueue", "error", err)
		}
	}()

	var items []models.QueueItem
	for rows.Next() {
		var q models.QueueItem
		if err := rows.Scan(&q.PostID, &q.AuthorID, &q.AuthorName, &q.Title, &q.Body, &q.Status, &q.CreatedAt,
			&q.OpenFlags, &q.LexiconFlags, &q.UserReports, &q.ModFlags,
			&q.LexiconWords, &q.LastFlaggedAt, &q.PendingMedia, &q.FlaggedBySelf); err != nil {
			ds.logger.Error("Failed to scan post queue row", "error", err)
			continue
		}
		if queueFilterMatch(q, filter) {
			items = append(items, q)
		}
	}
	return items, rows.Err()
}

// ListCommentQueue returns comments needing review. Membership mirrors the
// post queue minus the media signal.
func (ds *DatabaseService) ListCommentQueue(actorID int64, filter string) ([]models.QueueItem, error) {
	query := `
		SELECT c.post_id, c.id, c.user_id, COALESCE(NULLIF(u.display_name, ''), u.username),
		       p.title, c.body, c.content_status, c.created_at,
		       COUNT(f.id),
		       SUM(CASE WHEN f.trigger_source = 'lexicon' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN f.trigger_source = 'manual' AND f.notes LIKE ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN f.trigger_source = 'manual' AND f.notes NOT LIKE ? THEN 1 ELSE 0 END),
		       COALESCE(GROUP_CONCAT(DISTINCT NULLIF(f.trigger_word, '')), ''),
		       MAX(f.created_at),
		       EXISTS(SELECT 1 FROM flags sf WHERE sf.comment_id = c.id AND sf.status = 'flagged' AND sf.flagged_by_id = ?)
		FROM comments c
		JOIN users u ON c.user_id = u.id
		JOIN posts p ON c.post_id = p.id
		LEFT JOIN flags f ON f.comment_id = c.id AND f.status = 'flagged'
		WHERE c.content_status NOT IN ('deleted', 'rejected')
		GROUP BY c.id
		HAVING c.content_status IN ('pending', 'flagged') OR COUNT(f.id) > 0
		ORDER BY MAX(f.created_at) DESC, c.created_at DESC`

	reportPattern := models.UserReportMarker + "%"
	rows, err := ds.DB.Query(query, reportPattern, reportPattern, actorID)
	if err != nil {
		return nil, fmt.Errorf("db error listing comment queue: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListCommentQueue", "error", err)
		}
	}()

	var items []models.QueueItem
	for rows.Next() {
		var q models.QueueItem
		if err := rows.Scan(&q.PostID, &q.CommentID, &q.AuthorID, &q.AuthorName, &q.Title, &q.Body, &q.Status, &q.CreatedAt,
			&q.OpenFlags, &q.LexiconFlags, &q.UserReports, &q.ModFlags,
			&q.LexiconWords, &q.LastFlaggedAt, &q.FlaggedBySelf); err != nil {
			ds.logger.Error("Failed to scan comment queue row", "error", err)
			continue
		}
		if queueFilterMatch(q, filter) {
			items = append(items, q)
		}
	}
	return items, rows.Err()
}

func queueFilterMatch(q models.QueueItem, filter string) bool {
	switch filter {
	case FilterLexicon:
		return q.LexiconFlags > 0
	case FilterUser:
		return q.UserReports > 0
	case FilterMedia:
		return q.PendingMedia > 0
	default:
		return true
	}
}

// ResolvePost applies a moderation decision to a post in a single
// transaction: the content status, all pending media, and all open
// post-level flags move together, with exactly one audit row. Resolving
// content the actor authored or flagged fails with ErrSelfModeration and
// changes nothing; resolving an already-settled post fails with
// ErrAlreadyResolved.
func (ds *DatabaseService) ResolvePost(modID, postID int64, action, reason string) error {
	if action != ActionApproved && action != ActionRejected {
		return fmt.Errorf("invalid moderation action %q", action)
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in ResolvePost", "error", rerr)
		}
	}()

	var authorID int64
	var status models.ContentStatus
	if err := tx.QueryRow("SELECT user_id, content_status FROM posts WHERE id = ?", postID).Scan(&authorID, &status); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("db error fetching post for resolution: %w", err)
	}
	// Rejected and deleted are terminal states; open flags cannot reopen them.
	if status == models.StatusRejected || status == models.StatusDeleted {
		return ErrAlreadyResolved
	}
	if authorID == modID {
		return ErrSelfModeration
	}

	var ownFlags int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM flags WHERE post_id = ? AND comment_id IS NULL AND status = 'flagged' AND flagged_by_id = ?",
		postID, modID).Scan(&ownFlags); err != nil {
		return err
	}
	if ownFlags > 0 {
		return ErrSelfModeration
	}

	var openFlags, pendingMedia int
	if err := tx.QueryRow("SELECT COUNT(*) FROM flags WHERE post_id = ? AND comment_id IS NULL AND status = 'flagged'", postID).Scan(&openFlags); err != nil {
		return err
	}
	if err := tx.QueryRow("SELECT COUNT(*) FROM media WHERE post_id = ? AND moderation_status = 'pending'", postID).Scan(&pendingMedia); err != nil {
		return err
	}
	reviewable := status == models.StatusPending || status == models.StatusFlagged || openFlags > 0 || pendingMedia > 0
	if !reviewable {
		return ErrAlreadyResolved
	}

	now := utils.GetSQLTime()
	newStatus := models.StatusLive
	mediaStatus := models.MediaApproved
	flagStatus := models.FlagApproved
	if action == ActionRejected {
		newStatus = models.StatusRejected
		mediaStatus = models.MediaRejected
		flagStatus = models.FlagRejected
	}

	if _, err := tx.Exec("UPDATE posts SET content_status = ? WHERE id = ?", newStatus, postID); err != nil {
		return fmt.Errorf("updating post status: %w", err)
	}
	// Approve moves only pending media; reject also retires already-approved
	// media. Rejected media never comes back.
	mediaQuery := "UPDATE media SET moderation_status = ?, moderated_by = ?, moderated_at = ? WHERE post_id = ? AND moderation_status = ?"
	mediaArgs := []interface{}{mediaStatus, modID, now, postID, models.MediaPending}
	if action == ActionRejected {
		mediaQuery = "UPDATE media SET moderation_status = ?, moderated_by = ?, moderated_at = ? WHERE post_id = ? AND moderation_status IN (?, ?)"
		mediaArgs = append(mediaArgs, models.MediaApproved)
	}
	if _, err := tx.Exec(mediaQuery, mediaArgs...); err != nil {
		return fmt.Errorf("updating media status: %w", err)
	}
	if _, err := tx.Exec(
		"UPDATE flags SET status = ?, moderator_id = ?, decided_at = ? WHERE post_id = ? AND comment_id IS NULL AND status = 'flagged'",
		flagStatus, modID, now, postID); err != nil {
		return fmt.Errorf("updating flags: %w", err)
	}
	if err := LogModeration(tx, modID, postID, 0, action, reason); err != nil {
		return err
	}
	return tx.Commit()
}

// ResolveComment applies a moderation decision to one comment. Only flags
// scoped to this comment move; the parent post and its flags are untouched.
func (ds *DatabaseService) ResolveComment(modID, commentID int64, action, reason string) error {
	if action != ActionApproved && action != ActionRejected {
		return fmt.Errorf("invalid moderation action %q", action)
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in ResolveComment", "error", rerr)
		}
	}()

	var authorID, postID int64
	var status models.ContentStatus
	if err := tx.QueryRow("SELECT user_id, post_id, content_status FROM comments WHERE id = ?", commentID).Scan(&authorID, &postID, &status); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("db error fetching comment for resolution: %w", err)
	}
	if status == models.StatusRejected || status == models.StatusDeleted {
		return ErrAlreadyResolved
	}
	if authorID == modID {
		return ErrSelfModeration
	}

	var ownFlags int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM flags WHERE comment_id = ? AND status = 'flagged' AND flagged_by_id = ?",
		commentID, modID).Scan(&ownFlags); err != nil {
		return err
	}
	if ownFlags > 0 {
		return ErrSelfModeration
	}

	var openFlags int
	if err := tx.QueryRow("SELECT COUNT(*) FROM flags WHERE comment_id = ? AND status = 'flagged'", commentID).Scan(&openFlags); err != nil {
		return err
	}
	if status != models.StatusPending && status != models.StatusFlagged && openFlags == 0 {
		return ErrAlreadyResolved
	}

	now := utils.GetSQLTime()
	newStatus := models.StatusLive
	flagStatus := models.FlagApproved
	if action == ActionRejected {
		newStatus = models.StatusDeleted
		flagStatus = models.FlagRejected
	}

	if _, err := tx.Exec("UPDATE comments SET content_status = ? WHERE id = ?", newStatus, commentID); err != nil {
		return fmt.Errorf("updating comment status: %w", err)
	}
	if _, err := tx.Exec(
		"UPDATE flags SET status = ?, moderator_id = ?, decided_at = ? WHERE comment_id = ? AND status = 'flagged'",
		flagStatus, modID, now, commentID); err != nil {
		return fmt.Errorf("updating flags: %w", err)
	}
	if err := LogModeration(tx, modID, postID, commentID, action, reason); err != nil {
		return err
	}
	return tx.Commit()
}

// LogModeration records a moderation decision inside the caller's
// transaction. commentID 0 means a post-level decision.
func LogModeration(tx *sql.Tx, modID, postID, commentID int64, action, reason string) error {
	var cID sql.NullInt64
	if commentID != 0 {
		cID = sql.NullInt64{Int64: commentID, Valid: true}
	}
	stmt, err := tx.Prepare("INSERT INTO moderation_logs (moderator_id, post_id, comment_id, action, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare moderation log statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Default().Error("Failed to close statement in LogModeration", "error", err)
		}
	}()

	if _, err := stmt.Exec(modID, postID, cID, action, reason, utils.GetSQLTime()); err != nil {
		return fmt.Errorf("failed to record moderation decision: %w", err)
	}
	return nil
}

// ListModerationLogs returns the audit trail, optionally filtered to one
// action, newest first.
func (ds *DatabaseService) ListModerationLogs(action string, limit int) ([]models.ModerationLog, error) {
	query := `
		SELECT l.id, l.moderator_id, l.post_id, l.comment_id, l.action, l.reason, l.created_at,
		       COALESCE(NULLIF(u.display_name, ''), u.username),
		       COALESCE(p.title, '')
		FROM moderation_logs l
		JOIN users u ON l.moderator_id = u.id
		LEFT JOIN posts p ON l.post_id = p.id`
	args := []interface{}{}
	if action != "" {
		query += " WHERE l.action = ?"
		args = append(args, action)
	}
	query += " ORDER BY l.created_at DESC, l.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := ds.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error listing moderation logs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListModerationLogs", "error", err)
		}
	}()

	var logs []models.ModerationLog
	for rows.Next() {
		var l models.ModerationLog
		if err := rows.Scan(&l.ID, &l.ModeratorID, &l.PostID, &l.CommentID, &l.Action, &l.Reason, &l.CreatedAt,
			&l.ModeratorName, &l.PostTitle); err != nil {
			ds.logger.Error("Failed to scan moderation log row", "error", err)
			continue
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ModerationLogCounts returns per-action decision totals for the audit page.
func (ds *DatabaseService) ModerationLogCounts() (approved, rejected int, err error) {
	err = ds.DB.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN action = 'approved' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN action = 'rejected' THEN 1 ELSE 0 END), 0)
		FROM moderation_logs`).Scan(&approved, &rejected)
	if err != nil {
		return 0, 0, fmt.Errorf("db error counting moderation logs: %w", err)
	}
	return approved, rejected, nil
}
