// Cat-Corner/database/database_test.go
package database

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meeshellyo/Cat-Corner/lexicon"
	"github.com/meeshellyo/Cat-Corner/models"
)

// setupTestDB creates a fresh on-disk SQLite database for testing.
func setupTestDB(t *testing.T) *DatabaseService {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	dir, err := os.MkdirTemp("", "cc_test_db")
	if err != nil {
		t.Fatalf("Failed to create temp dir for test DB: %v", err)
	}
	dbPath := filepath.Join(dir, "test.db")

	// No seed file in the temp dir, so InitDB falls back to the built-in
	// category defaults.
	ds, err := InitDB(dbPath, filepath.Join(dir, "categories.yaml"), logger)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	t.Cleanup(func() {
		ds.DB.Close()
		os.RemoveAll(dir)
	})

	return ds
}

func createTestUser(t *testing.T, ds *DatabaseService, username string, role models.Role) int64 {
	t.Helper()
	id, err := ds.CreateUser(username, username+"@example.com", "a-long-enough-password")
	if err != nil {
		t.Fatalf("Failed to create test user %s: %v", username, err)
	}
	if role != models.RoleRegistered {
		if _, err := ds.DB.Exec("UPDATE users SET role = ? WHERE id = ?", role, id); err != nil {
			t.Fatalf("Failed to set role for %s: %v", username, err)
		}
	}
	return id
}

func mainCategoryID(t *testing.T, ds *DatabaseService) int64 {
	t.Helper()
	cats, err := ds.GetCategories()
	if err != nil || len(cats) == 0 {
		t.Fatalf("Expected seeded categories, got %v (err %v)", cats, err)
	}
	return cats[0].ID
}

var testLex = lexicon.New([]string{"hairball", "scratcher"})

func TestInitDBSeedsCategories(t *testing.T) {
	ds := setupTestDB(t)

	cats, err := ds.GetCategories()
	if err != nil {
		t.Fatalf("GetCategories failed: %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("Expected categories to be seeded, but none found")
	}
	found := false
	for _, c := range cats {
		if len(c.Subcategories) > 0 {
			found = true
		}
	}
	if !found {
		t.Error("Expected at least one seeded subcategory")
	}
}

func TestMigrationsRecorded(t *testing.T) {
	ds := setupTestDB(t)

	var version int
	err := ds.DB.QueryRow("SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	if err != nil {
		t.Fatalf("Migration version 1 was not recorded: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected migration version 1, got %d", version)
	}
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	ds := setupTestDB(t)

	id, err := ds.CreateUser("whiskers", "whiskers@example.com", "a-long-enough-password")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected non-zero user id")
	}

	if _, err := ds.CreateUser("whiskers", "other@example.com", "a-long-enough-password"); !errors.Is(err, ErrDuplicateUser) {
		t.Errorf("Expected ErrDuplicateUser for duplicate username, got %v", err)
	}

	u, err := ds.Authenticate("whiskers", "a-long-enough-password")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if u.Role != models.RoleRegistered {
		t.Errorf("Expected new user role registered, got %s", u.Role)
	}

	if _, err := ds.Authenticate("whiskers", "wrong-password-entirely"); err == nil {
		t.Error("Expected error for wrong password")
	}

	if _, err := ds.DB.Exec("UPDATE users SET suspended = 1 WHERE id = ?", id); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.Authenticate("whiskers", "a-long-enough-password"); err == nil {
		t.Error("Expected error for suspended account")
	}
}

func TestSessions(t *testing.T) {
	ds := setupTestDB(t)
	userID := createTestUser(t, ds, "mittens", models.RoleRegistered)

	token, err := ds.CreateSession(userID, time.Hour)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	u, err := ds.GetSessionUser(token)
	if err != nil {
		t.Fatalf("GetSessionUser failed: %v", err)
	}
	if u.ID != userID {
		t.Errorf("Session resolved to user %d, want %d", u.ID, userID)
	}

	if err := ds.DeleteSession(token); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := ds.GetSessionUser(token); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after logout, got %v", err)
	}

	// Expired sessions must not resolve.
	expired, err := ds.CreateSession(userID, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ds.GetSessionUser(expired); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for expired session, got %v", err)
	}

	pruned, err := ds.PruneSessions()
	if err != nil {
		t.Fatalf("PruneSessions failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("Expected 1 pruned session, got %d", pruned)
	}
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name       string
		text       string
		hasMedia   bool
		wantStatus models.ContentStatus
		wantHits   int
	}{
		{"clean text goes live", "a lovely afternoon nap", false, models.StatusLive, 0},
		{"lexicon hit flags", "another hairball on the rug", false, models.StatusFlagged, 1},
		{"media alone flags", "a lovely afternoon nap", true, models.StatusFlagged, 0},
		{"substring stays live", "the scratchers guild", false, models.StatusLive, 0},
		{"hit and media", "hairball incident", true, models.StatusFlagged, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, hits, _ := Classify(testLex, tc.text, tc.hasMedia)
			if status != tc.wantStatus || hits != tc.wantHits {
				t.Errorf("Classify(%q, %v) = (%s, %d), want (%s, %d)",
					tc.text, tc.hasMedia, status, hits, tc.wantStatus, tc.wantHits)
			}
		})
	}
}

func TestCreatePostFlagging(t *testing.T) {
	ds := setupTestDB(t)
	userID := createTestUser(t, ds, "author", models.RoleRegistered)
	catID := mainCategoryID(t, ds)

	// Clean post goes live with no flag row.
	postID, status, err := ds.CreatePost(testLex, userID, catID, "Nap spots", "sunny windowsill", nil, nil)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if status != models.StatusLive {
		t.Errorf("Expected live, got %s", status)
	}
	var flagCount int
	ds.DB.QueryRow("SELECT COUNT(*) FROM flags WHERE post_id = ?", postID).Scan(&flagCount)
	if flagCount != 0 {
		t.Errorf("Expected no flag rows for clean post, got %d", flagCount)
	}

	// Lexicon hit in the title flags and writes exactly one flag row.
	postID, status, err = ds.CreatePost(testLex, userID, catID, "Hairball emergency", "send help", nil, nil)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if status != models.StatusFlagged {
		t.Errorf("Expected flagged, got %s", status)
	}
	var hits int
	var word string
	err = ds.DB.QueryRow("SELECT trigger_hits, trigger_word FROM flags WHERE post_id = ? AND trigger_source = 'lexicon'", postID).Scan(&hits, &word)
	if err != nil {
		t.Fatalf("Expected exactly one lexicon flag row: %v", err)
	}
	if hits != 1 || word != "hairball" {
		t.Errorf("Flag row = (%d, %q), want (1, hairball)", hits, word)
	}

	// Media-only post flags with no flag row; media enters pending.
	postID, status, err = ds.CreatePost(testLex, userID, catID, "Look at this", "photo attached",
		nil, []NewMedia{{Filename: "cat.jpg", Type: "image"}})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if status != models.StatusFlagged {
		t.Errorf("Expected flagged for media post, got %s", status)
	}
	ds.DB.QueryRow("SELECT COUNT(*) FROM flags WHERE post_id = ?", postID).Scan(&flagCount)
	if flagCount != 0 {
		t.Errorf("Media-only post should carry no flag row, got %d", flagCount)
	}
	var mediaStatus string
	ds.DB.QueryRow("SELECT moderation_status FROM media WHERE post_id = ?", postID).Scan(&mediaStatus)
	if mediaStatus != "pending" {
		t.Errorf("Expected pending media, got %s", mediaStatus)
	}
}

func TestCreatePostSubcategoryMismatchDropped(t *testing.T) {
	ds := setupTestDB(t)
	userID := createTestUser(t, ds, "author", models.RoleRegistered)
	cats, err := ds.GetCategories()
	if err != nil || len(cats) < 2 {
		t.Fatalf("Need two seeded categories, got %d (err %v)", len(cats), err)
	}
	first, second := cats[0], cats[1]
	if len(first.Subcategories) == 0 || len(second.Subcategories) == 0 {
		t.Fatal("Seeded categories should have subcategories")
	}

	// One matching subcategory, one belonging to the other main category.
	postID, _, err := ds.CreatePost(testLex, userID, first.ID, "Testing tags", "body",
		[]int64{first.Subcategories[0].ID, second.Subcategories[0].ID}, nil)
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	var linked int
	ds.DB.QueryRow("SELECT COUNT(*) FROM post_subcategories WHERE post_id = ?", postID).Scan(&linked)
	if linked != 1 {
		t.Errorf("Expected only the matching subcategory linked, got %d links", linked)
	}
}

func TestCreateComment(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	commenter := createTestUser(t, ds, "commenter", models.RoleRegistered)
	catID := mainCategoryID(t, ds)

	postID, _, err := ds.CreatePost(testLex, author, catID, "Open thread", "chat away", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Clean comment goes live.
	_, status, err := ds.CreateComment(testLex, postID, commenter, "what a nice day")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if status != models.StatusLive {
		t.Errorf("Expected live comment, got %s", status)
	}

	// Lexicon hit flags the comment and records it against the comment id.
	commentID, status, err := ds.CreateComment(testLex, postID, commenter, "my scratcher broke")
	if err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if status != models.StatusFlagged {
		t.Errorf("Expected flagged comment, got %s", status)
	}
	var flaggedComment int64
	err = ds.DB.QueryRow("SELECT comment_id FROM flags WHERE post_id = ? AND comment_id IS NOT NULL", postID).Scan(&flaggedComment)
	if err != nil || flaggedComment != commentID {
		t.Errorf("Expected comment-scoped flag for %d, got %d (err %v)", commentID, flaggedComment, err)
	}

	// Comments on non-live posts are refused.
	flaggedPost, _, err := ds.CreatePost(testLex, author, catID, "Hairball log", "day one", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ds.CreateComment(testLex, flaggedPost, commenter, "first"); err == nil {
		t.Error("Expected error commenting on a flagged post")
	}
	var leftover int
	ds.DB.QueryRow("SELECT COUNT(*) FROM comments WHERE post_id = ?", flaggedPost).Scan(&leftover)
	if leftover != 0 {
		t.Errorf("Refused comment left %d rows", leftover)
	}
}

func TestCastVoteToggle(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	voter := createTestUser(t, ds, "voter", models.RoleRegistered)
	catID := mainCategoryID(t, ds)

	postID, _, err := ds.CreatePost(testLex, author, catID, "Vote here", "body", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Up-vote registers.
	res, err := ds.CastVote(postID, voter, 1)
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if res.Likes != 1 || res.Dislikes != 0 || res.Score != 1 {
		t.Errorf("After up-vote got %+v", res)
	}

	// Same vote again toggles it off.
	res, err = ds.CastVote(postID, voter, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Likes != 0 || res.Score != 0 {
		t.Errorf("After toggle-off got %+v", res)
	}

	// Up then down replaces in place, leaving a single row.
	if _, err := ds.CastVote(postID, voter, 1); err != nil {
		t.Fatal(err)
	}
	res, err = ds.CastVote(postID, voter, -1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Likes != 0 || res.Dislikes != 1 || res.Score != -1 {
		t.Errorf("After flip got %+v", res)
	}
	var voteRows int
	ds.DB.QueryRow("SELECT COUNT(*) FROM post_votes WHERE post_id = ?", postID).Scan(&voteRows)
	if voteRows != 1 {
		t.Errorf("Expected a single vote row, got %d", voteRows)
	}

	// Bad values are rejected.
	if _, err := ds.CastVote(postID, voter, 2); err == nil {
		t.Error("Expected error for vote value 2")
	}
}

func TestResolvePostApprove(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	mod := createTestUser(t, ds, "mod", models.RoleModerator)
	catID := mainCategoryID(t, ds)

	postID, _, err := ds.CreatePost(testLex, author, catID, "Hairball report", "with photo",
		nil, []NewMedia{{Filename: "evidence.jpg", Type: "image"}})
	if err != nil {
		t.Fatal(err)
	}

	if err := ds.ResolvePost(mod, postID, ActionApproved, "fine actually"); err != nil {
		t.Fatalf("ResolvePost failed: %v", err)
	}

	var status string
	ds.DB.QueryRow("SELECT content_status FROM posts WHERE id = ?", postID).Scan(&status)
	if status != "live" {
		t.Errorf("Expected live after approval, got %s", status)
	}
	var mediaStatus string
	var moderatedBy int64
	ds.DB.QueryRow("SELECT moderation_status, moderated_by FROM media WHERE post_id = ?", postID).Scan(&mediaStatus, &moderatedBy)
	if mediaStatus != "approved" || moderatedBy != mod {
		t.Errorf("Media = (%s, %d), want (approved, %d)", mediaStatus, moderatedBy, mod)
	}
	var openFlags int
	ds.DB.QueryRow("SELECT COUNT(*) FROM flags WHERE post_id = ? AND status = 'flagged'", postID).Scan(&openFlags)
	if openFlags != 0 {
		t.Errorf("Expected no open flags after approval, got %d", openFlags)
	}
	var logCount int
	ds.DB.QueryRow("SELECT COUNT(*) FROM moderation_logs WHERE post_id = ?", postID).Scan(&logCount)
	if logCount != 1 {
		t.Errorf("Expected exactly one audit row, got %d", logCount)
	}

	// Resolving again is a conflict, not a second audit row.
	if err := ds.ResolvePost(mod, postID, ActionApproved, "again"); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected ErrAlreadyResolved, got %v", err)
	}
	ds.DB.QueryRow("SELECT COUNT(*) FROM moderation_logs WHERE post_id = ?", postID).Scan(&logCount)
	if logCount != 1 {
		t.Errorf("Audit rows grew to %d on repeat resolve", logCount)
	}
}

func TestResolvePostReject(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	mod := createTestUser(t, ds, "mod", models.RoleModerator)
	catID := mainCategoryID(t, ds)

	postID, _, err := ds.CreatePost(testLex, author, catID, "Hairball spam", "more hairball",
		nil, []NewMedia{{Filename: "spam.jpg", Type: "image"}})
	if err != nil {
		t.Fatal(err)
	}

	if err := ds.ResolvePost(mod, postID, ActionRejected, "low effort"); err != nil {
		t.Fatalf("ResolvePost failed: %v", err)
	}

	var status, mediaStatus, flagStatus string
	ds.DB.QueryRow("SELECT content_status FROM posts WHERE id = ?", postID).Scan(&status)
	ds.DB.QueryRow("SELECT moderation_status FROM media WHERE post_id = ?", postID).Scan(&mediaStatus)
	ds.DB.QueryRow("SELECT status FROM flags WHERE post_id = ?", postID).Scan(&flagStatus)
	if status != "rejected" || mediaStatus != "rejected" || flagStatus != "rejected" {
		t.Errorf("Got (%s, %s, %s), want all rejected", status, mediaStatus, flagStatus)
	}

	var action, reason string
	if err := ds.DB.QueryRow("SELECT action, reason FROM moderation_logs WHERE post_id = ?", postID).Scan(&action, &reason); err != nil {
		t.Fatalf("Expected one audit row: %v", err)
	}
	if action != "rejected" || reason != "low effort" {
		t.Errorf("Audit row = (%s, %q)", action, reason)
	}
}

func TestRejectedPostStaysTerminal(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	reporter := createTestUser(t, ds, "reporter", models.RoleRegistered)
	mod := createTestUser(t, ds, "mod", models.RoleModerator)
	mod2 := createTestUser(t, ds, "mod2", models.RoleModerator)
	catID := mainCategoryID(t, ds)

	postID, _, err := ds.CreatePost(testLex, author, catID, "Hairball pile", "photo attached",
		nil, []NewMedia{{Filename: "pile.jpg", Type: "image"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.ResolvePost(mod, postID, ActionRejected, "no"); err != nil {
		t.Fatal(err)
	}

	// Reports and manual flags against settled content are refused; they
	// would otherwise put it back in the queue.
	if err := ds.ReportPost(reporter, postID, "still bad"); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected ErrAlreadyResolved reporting a rejected post, got %v", err)
	}
	if err := ds.FlagPost(mod2, postID, "take another look"); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected ErrAlreadyResolved flagging a rejected post, got %v", err)
	}

	// Even with a stray open flag on the row, a second decision cannot
	// resurrect the post or its media.
	if _, err := ds.DB.Exec(
		"INSERT INTO flags (post_id, trigger_source, status, flagged_by_id, notes, created_at) VALUES (?, 'manual', 'flagged', ?, ?, datetime('now'))",
		postID, reporter, models.UserReportMarker+" sneaky"); err != nil {
		t.Fatal(err)
	}
	if err := ds.ResolvePost(mod2, postID, ActionApproved, "oops"); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected ErrAlreadyResolved on a rejected post, got %v", err)
	}
	var status, mediaStatus string
	ds.DB.QueryRow("SELECT content_status FROM posts WHERE id = ?", postID).Scan(&status)
	ds.DB.QueryRow("SELECT moderation_status FROM media WHERE post_id = ?", postID).Scan(&mediaStatus)
	if status != "rejected" || mediaStatus != "rejected" {
		t.Errorf("Rejected post came back as (%s, %s)", status, mediaStatus)
	}
	var logCount int
	ds.DB.QueryRow("SELECT COUNT(*) FROM moderation_logs WHERE post_id = ?", postID).Scan(&logCount)
	if logCount != 1 {
		t.Errorf("Expected one audit row, got %d", logCount)
	}

	// Comment rejections are equally terminal.
	host, _, err := ds.CreatePost(testLex, author, catID, "Comment host", "fine", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	commentID, _, err := ds.CreateComment(testLex, host, author, "hairball horror")
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.ResolveComment(mod, commentID, ActionRejected, "off topic"); err != nil {
		t.Fatal(err)
	}
	if err := ds.ReportComment(reporter, host, commentID, "bad"); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected ErrAlreadyResolved reporting a rejected comment, got %v", err)
	}
	if err := ds.ResolveComment(mod2, commentID, ActionApproved, ""); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("Expected ErrAlreadyResolved on a rejected comment, got %v", err)
	}
}

func TestApproveMovesOnlyPendingMedia(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	mod := createTestUser(t, ds, "mod", models.RoleModerator)
	catID := mainCategoryID(t, ds)

	postID, _, err := ds.CreatePost(testLex, author, catID, "Two cats", "both pictured",
		nil, []NewMedia{{Filename: "ok.jpg", Type: "image"}, {Filename: "bad.jpg", Type: "image"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ds.DB.Exec("UPDATE media SET moderation_status = 'rejected' WHERE post_id = ? AND filename = 'bad.jpg'", postID); err != nil {
		t.Fatal(err)
	}

	if err := ds.ResolvePost(mod, postID, ActionApproved, ""); err != nil {
		t.Fatalf("ResolvePost failed: %v", err)
	}
	var okStatus, badStatus string
	ds.DB.QueryRow("SELECT moderation_status FROM media WHERE post_id = ? AND filename = 'ok.jpg'", postID).Scan(&okStatus)
	ds.DB.QueryRow("SELECT moderation_status FROM media WHERE post_id = ? AND filename = 'bad.jpg'", postID).Scan(&badStatus)
	if okStatus != "approved" || badStatus != "rejected" {
		t.Errorf("Media = (%s, %s), want (approved, rejected)", okStatus, badStatus)
	}
}

func TestSelfModerationRejected(t *testing.T) {
	ds := setupTestDB(t)
	modAuthor := createTestUser(t, ds, "modauthor", models.RoleModerator)
	otherMod := createTestUser(t, ds, "othermod", models.RoleModerator)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	catID := mainCategoryID(t, ds)

	// A moderator cannot resolve their own flagged post.
	ownPost, _, err := ds.CreatePost(testLex, modAuthor, catID, "My hairball tale", "oops", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.ResolvePost(modAuthor, ownPost, ActionApproved, ""); !errors.Is(err, ErrSelfModeration) {
		t.Errorf("Expected ErrSelfModeration for own content, got %v", err)
	}
	var status string
	ds.DB.QueryRow("SELECT content_status FROM posts WHERE id = ?", ownPost).Scan(&status)
	if status != "flagged" {
		t.Errorf("Self-moderation attempt mutated status to %s", status)
	}
	var logCount int
	ds.DB.QueryRow("SELECT COUNT(*) FROM moderation_logs").Scan(&logCount)
	if logCount != 0 {
		t.Errorf("Self-moderation attempt wrote %d audit rows", logCount)
	}

	// A moderator cannot resolve content they flagged themselves.
	livePost, _, err := ds.CreatePost(testLex, author, catID, "Innocent post", "nothing wrong", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.FlagPost(otherMod, livePost, "seems off"); err != nil {
		t.Fatal(err)
	}
	if err := ds.ResolvePost(otherMod, livePost, ActionRejected, ""); !errors.Is(err, ErrSelfModeration) {
		t.Errorf("Expected ErrSelfModeration for own flag, got %v", err)
	}
	// Another moderator can.
	if err := ds.ResolvePost(modAuthor, livePost, ActionApproved, ""); err != nil {
		t.Errorf("Independent moderator should resolve, got %v", err)
	}
}

func TestQueueMembershipAndFilters(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	reporter := createTestUser(t, ds, "reporter", models.RoleRegistered)
	mod := createTestUser(t, ds, "mod", models.RoleModerator)
	catID := mainCategoryID(t, ds)

	lexPost, _, err := ds.CreatePost(testLex, author, catID, "Hairball post", "triggering", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	mediaPost, _, err := ds.CreatePost(testLex, author, catID, "Photo post", "clean text",
		nil, []NewMedia{{Filename: "pic.jpg", Type: "image"}})
	if err != nil {
		t.Fatal(err)
	}
	reportedPost, _, err := ds.CreatePost(testLex, author, catID, "Live post", "clean", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.ReportPost(reporter, reportedPost, "rude tone"); err != nil {
		t.Fatal(err)
	}
	cleanPost, _, err := ds.CreatePost(testLex, author, catID, "Untouched", "clean", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	inQueue := func(items []models.QueueItem, postID int64) bool {
		for _, q := range items {
			if q.PostID == postID {
				return true
			}
		}
		return false
	}

	all, err := ds.ListPostQueue(mod, FilterAll)
	if err != nil {
		t.Fatalf("ListPostQueue failed: %v", err)
	}
	if !inQueue(all, lexPost) || !inQueue(all, mediaPost) || !inQueue(all, reportedPost) {
		t.Error("Queue missing expected members")
	}
	if inQueue(all, cleanPost) {
		t.Error("Clean live post should not be queued")
	}

	// The reported post is still live; only the open flag queues it.
	var reportedStatus string
	ds.DB.QueryRow("SELECT content_status FROM posts WHERE id = ?", reportedPost).Scan(&reportedStatus)
	if reportedStatus != "live" {
		t.Errorf("User report changed content status to %s", reportedStatus)
	}

	lexOnly, err := ds.ListPostQueue(mod, FilterLexicon)
	if err != nil {
		t.Fatal(err)
	}
	if !inQueue(lexOnly, lexPost) || inQueue(lexOnly, mediaPost) || inQueue(lexOnly, reportedPost) {
		t.Error("Lexicon filter returned wrong members")
	}

	userOnly, err := ds.ListPostQueue(mod, FilterUser)
	if err != nil {
		t.Fatal(err)
	}
	if !inQueue(userOnly, reportedPost) || inQueue(userOnly, lexPost) {
		t.Error("User-report filter returned wrong members")
	}

	mediaOnly, err := ds.ListPostQueue(mod, FilterMedia)
	if err != nil {
		t.Fatal(err)
	}
	if !inQueue(mediaOnly, mediaPost) || inQueue(mediaOnly, lexPost) {
		t.Error("Media filter returned wrong members")
	}

	// FlaggedBySelf marks items the acting moderator reported.
	if err := ds.FlagPost(mod, cleanPost, "checking"); err != nil {
		t.Fatal(err)
	}
	all, err = ds.ListPostQueue(mod, FilterAll)
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range all {
		if q.PostID == cleanPost && !q.FlaggedBySelf {
			t.Error("Expected FlaggedBySelf on moderator's own flag")
		}
		if q.PostID == lexPost && q.FlaggedBySelf {
			t.Error("Unexpected FlaggedBySelf on lexicon-only post")
		}
	}
}

func TestCommentFlagIsolation(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	commenter := createTestUser(t, ds, "commenter", models.RoleRegistered)
	mod := createTestUser(t, ds, "mod", models.RoleModerator)
	catID := mainCategoryID(t, ds)

	postID, _, err := ds.CreatePost(testLex, author, catID, "Thread", "clean body", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	commentID, _, err := ds.CreateComment(testLex, postID, commenter, "broken scratcher rant")
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.FlagPost(mod, postID, "double checking"); err != nil {
		t.Fatal(err)
	}

	// Resolving the post must not touch the comment's flag.
	otherMod := createTestUser(t, ds, "othermod", models.RoleModerator)
	if err := ds.ResolvePost(otherMod, postID, ActionApproved, ""); err != nil {
		t.Fatalf("ResolvePost failed: %v", err)
	}
	var commentFlagStatus string
	ds.DB.QueryRow("SELECT status FROM flags WHERE comment_id = ?", commentID).Scan(&commentFlagStatus)
	if commentFlagStatus != "flagged" {
		t.Errorf("Post resolution closed the comment flag (status %s)", commentFlagStatus)
	}

	// Rejecting the comment settles only its own flag and soft-deletes it.
	if err := ds.ResolveComment(mod, commentID, ActionRejected, "off topic"); err != nil {
		t.Fatalf("ResolveComment failed: %v", err)
	}
	var commentStatus string
	ds.DB.QueryRow("SELECT content_status FROM comments WHERE id = ?", commentID).Scan(&commentStatus)
	if commentStatus != "deleted" {
		t.Errorf("Expected deleted comment, got %s", commentStatus)
	}
	var logCount int
	ds.DB.QueryRow("SELECT COUNT(*) FROM moderation_logs WHERE comment_id = ?", commentID).Scan(&logCount)
	if logCount != 1 {
		t.Errorf("Expected one comment audit row, got %d", logCount)
	}
}

func TestModerationLogsFilterAndCounts(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	mod := createTestUser(t, ds, "mod", models.RoleModerator)
	catID := mainCategoryID(t, ds)

	for i, action := range []string{ActionApproved, ActionApproved, ActionRejected} {
		postID, _, err := ds.CreatePost(testLex, author, catID, "Hairball count", "entry", nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := ds.ResolvePost(mod, postID, action, ""); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}

	approved, rejected, err := ds.ModerationLogCounts()
	if err != nil {
		t.Fatalf("ModerationLogCounts failed: %v", err)
	}
	if approved != 2 || rejected != 1 {
		t.Errorf("Counts = (%d, %d), want (2, 1)", approved, rejected)
	}

	logs, err := ds.ListModerationLogs(ActionRejected, 50)
	if err != nil {
		t.Fatalf("ListModerationLogs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != ActionRejected {
		t.Errorf("Rejected filter returned %d rows", len(logs))
	}
}

func TestSetUserRole(t *testing.T) {
	ds := setupTestDB(t)
	admin := createTestUser(t, ds, "admin", models.RoleAdmin)
	createTestUser(t, ds, "regular", models.RoleRegistered)

	if err := ds.SetUserRole(admin, "regular", models.RoleModerator); err != nil {
		t.Fatalf("SetUserRole failed: %v", err)
	}
	var role string
	ds.DB.QueryRow("SELECT role FROM users WHERE username = 'regular'").Scan(&role)
	if role != "moderator" {
		t.Errorf("Expected moderator, got %s", role)
	}

	if err := ds.SetUserRole(admin, "ghost", models.RoleModerator); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := ds.SetUserRole(admin, "regular", models.RoleAdmin); err == nil {
		t.Error("Expected error assigning admin role")
	}
	// Admin accounts cannot be demoted through this path.
	if err := ds.SetUserRole(admin, "admin", models.RoleRegistered); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound demoting an admin, got %v", err)
	}
}

func TestDeleteOwnPost(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	stranger := createTestUser(t, ds, "stranger", models.RoleRegistered)
	reporter := createTestUser(t, ds, "reporter", models.RoleRegistered)
	catID := mainCategoryID(t, ds)

	postID, _, err := ds.CreatePost(testLex, author, catID, "Regret", "posting this", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.ReportPost(reporter, postID, "odd"); err != nil {
		t.Fatal(err)
	}

	if err := ds.DeleteOwnPost(stranger, postID, false); err == nil {
		t.Error("Expected error for non-owner deletion")
	}
	if err := ds.DeleteOwnPost(author, postID, false); err != nil {
		t.Fatalf("Owner deletion failed: %v", err)
	}
	var status string
	ds.DB.QueryRow("SELECT content_status FROM posts WHERE id = ?", postID).Scan(&status)
	if status != "deleted" {
		t.Errorf("Expected deleted, got %s", status)
	}
	// Open flags close without an audit row.
	var openFlags, logCount int
	ds.DB.QueryRow("SELECT COUNT(*) FROM flags WHERE post_id = ? AND status = 'flagged'", postID).Scan(&openFlags)
	ds.DB.QueryRow("SELECT COUNT(*) FROM moderation_logs WHERE post_id = ?", postID).Scan(&logCount)
	if openFlags != 0 || logCount != 0 {
		t.Errorf("After owner delete: openFlags=%d logCount=%d, want 0/0", openFlags, logCount)
	}
}

func TestListFeedSortsAndFilter(t *testing.T) {
	ds := setupTestDB(t)
	author := createTestUser(t, ds, "author", models.RoleRegistered)
	voter := createTestUser(t, ds, "voter", models.RoleRegistered)
	commenter := createTestUser(t, ds, "commenter", models.RoleRegistered)
	cats, _ := ds.GetCategories()
	if len(cats) < 2 {
		t.Fatal("Need two categories")
	}

	first, _, err := ds.CreatePost(testLex, author, cats[0].ID, "First", "a", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := ds.CreatePost(testLex, author, cats[1].ID, "Second", "b", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ds.CastVote(first, voter, 1); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ds.CreateComment(testLex, second, commenter, "tea time"); err != nil {
		t.Fatal(err)
	}

	liked, err := ds.ListFeed(0, 0, SortLiked, 20, 0)
	if err != nil {
		t.Fatalf("ListFeed failed: %v", err)
	}
	if len(liked) != 2 || liked[0].ID != first {
		t.Errorf("Liked sort put post %d first", liked[0].ID)
	}

	tea, err := ds.ListFeed(0, 0, SortTea, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tea[0].ID != second || tea[0].CommentCount != 1 {
		t.Errorf("Tea sort put post %d first (comments %d)", tea[0].ID, tea[0].CommentCount)
	}

	scoped, err := ds.ListFeed(cats[0].ID, voter, SortRecent, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(scoped) != 1 || scoped[0].ID != first || scoped[0].CallerVote != 1 {
		t.Errorf("Category filter returned %d posts (caller vote %d)", len(scoped), scoped[0].CallerVote)
	}
}
