// Cat-Corner/models/models.go
package models

import (
	"database/sql"
	"time"
)

// --- Enums ---

// Role is the closed set of account roles, ordered by privilege.
type Role string

const (
	RoleRegistered Role = "registered"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
)

// AtLeast reports whether r carries at least the privilege of other.
func (r Role) AtLeast(other Role) bool {
	return roleRank(r) >= roleRank(other)
}

func roleRank(r Role) int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleModerator:
		return 2
	case RoleRegistered:
		return 1
	}
	return 0
}

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleRegistered, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// ContentStatus is the lifecycle state of a post or comment.
type ContentStatus string

const (
	StatusPending  ContentStatus = "pending"
	StatusLive     ContentStatus = "live"
	StatusFlagged  ContentStatus = "flagged"
	StatusRejected ContentStatus = "rejected"
	StatusDeleted  ContentStatus = "deleted"
)

// MediaStatus is the moderation state of an upload.
type MediaStatus string

const (
	MediaPending  MediaStatus = "pending"
	MediaApproved MediaStatus = "approved"
	MediaRejected MediaStatus = "rejected"
)

// FlagStatus is the lifecycle state of a flag row. Open flags are "flagged";
// resolution moves them to the deciding action.
type FlagStatus string

const (
	FlagOpen     FlagStatus = "flagged"
	FlagApproved FlagStatus = "approved"
	FlagRejected FlagStatus = "rejected"
)

// TriggerSource identifies what raised a flag.
type TriggerSource string

const (
	TriggerLexicon TriggerSource = "lexicon"
	TriggerManual  TriggerSource = "manual"
)

// UserReportMarker prefixes the notes of manual flags created by ordinary
// user reports, distinguishing them from moderator-raised flags.
const UserReportMarker = "user report:"

// --- Core Data Models ---

type User struct {
	ID          int64
	Username    string
	Email       string
	DisplayName string
	Avatar      string
	Role        Role
	Suspended   bool
	CreatedAt   time.Time
}

type MainCategory struct {
	ID            int64
	Name          string
	Slug          string
	Subcategories []Subcategory
}

type Subcategory struct {
	ID             int64
	MainCategoryID int64
	Name           string
	Slug           string
}

type Post struct {
	ID             int64
	UserID         int64
	MainCategoryID int64
	Title          string
	Body           string
	Status         ContentStatus
	CreatedAt      time.Time

	// Joined fields for rendering.
	AuthorName    string
	CategoryName  string
	CategorySlug  string
	Subcategories []Subcategory
	Media         []Media
	Likes         int
	Dislikes      int
	CallerVote    int
	CommentCount  int
}

type Comment struct {
	ID        int64
	PostID    int64
	UserID    int64
	Body      string
	Status    ContentStatus
	CreatedAt time.Time

	AuthorName string
}

type Media struct {
	ID          int64
	PostID      int64
	Filename    string
	Type        string // image, gif, video
	Status      MediaStatus
	ModeratedBy sql.NullInt64
	ModeratedAt sql.NullTime
	CreatedAt   time.Time
}

type Flag struct {
	ID            int64
	PostID        int64
	CommentID     sql.NullInt64
	Source        TriggerSource
	TriggerHits   int
	TriggerWord   string
	Status        FlagStatus
	FlaggedByID   sql.NullInt64
	ModeratorID   sql.NullInt64
	DecidedAt     sql.NullTime
	Notes         string
	CreatedAt     time.Time
}

type ModerationLog struct {
	ID          int64
	ModeratorID int64
	PostID      int64
	CommentID   sql.NullInt64
	Action      string // approved, rejected
	Reason      string
	CreatedAt   time.Time

	ModeratorName string
	PostTitle     string
}

type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// --- Moderation Queue ---

// QueueItem is one reviewable post or comment with its flag signals
// aggregated for the queue view.
type QueueItem struct {
	PostID        int64
	CommentID     sql.NullInt64
	AuthorID      int64
	AuthorName    string
	Title         string
	Body          string
	Status        ContentStatus
	CreatedAt     time.Time
	OpenFlags     int
	LexiconFlags  int
	UserReports   int
	ModFlags      int
	LexiconWords  string
	LastFlaggedAt sql.NullTime
	PendingMedia  int

	// FlaggedBySelf is true when the acting moderator holds an open flag
	// on this item; such items cannot be resolved by them.
	FlaggedBySelf bool
}

// IsComment reports whether the item is a comment rather than a post.
func (q QueueItem) IsComment() bool { return q.CommentID.Valid }

type Page struct {
	Number     int
	IsCurrent  bool
	IsEllipsis bool
}

// VoteResult is the JSON payload returned by the vote endpoint.
type VoteResult struct {
	OK       bool `json:"ok"`
	Likes    int  `json:"likes"`
	Dislikes int  `json:"dislikes"`
	Score    int  `json:"score"`
}
