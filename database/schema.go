package database

const schema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	hashed_pass TEXT NOT NULL,
	display_name TEXT DEFAULT '',
	avatar TEXT DEFAULT '',
	role TEXT NOT NULL DEFAULT 'registered',
	suspended BOOLEAN DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS main_categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS subcategories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	main_category_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	slug TEXT NOT NULL,
	FOREIGN KEY (main_category_id) REFERENCES main_categories(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	main_category_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	content_status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (main_category_id) REFERENCES main_categories(id)
);
CREATE TABLE IF NOT EXISTS post_subcategories (
	post_id INTEGER NOT NULL,
	subcategory_id INTEGER NOT NULL,
	PRIMARY KEY (post_id, subcategory_id),
	FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY (subcategory_id) REFERENCES subcategories(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	body TEXT NOT NULL,
	content_status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY (user_id) REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS media (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	filename TEXT NOT NULL,
	type TEXT NOT NULL, -- 'image', 'gif', 'video'
	moderation_status TEXT NOT NULL DEFAULT 'pending',
	moderated_by INTEGER,
	moderated_at DATETIME,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS post_votes (
	post_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	value INTEGER NOT NULL CHECK (value IN (1, -1)),
	created_at DATETIME NOT NULL,
	PRIMARY KEY (post_id, user_id),
	FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
-- comment_id is NULL for post-level flags
CREATE TABLE IF NOT EXISTS flags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	comment_id INTEGER,
	trigger_source TEXT NOT NULL, -- 'lexicon' or 'manual'
	trigger_hits INTEGER DEFAULT 0,
	trigger_word TEXT DEFAULT '',
	status TEXT NOT NULL DEFAULT 'flagged',
	flagged_by_id INTEGER,
	moderator_id INTEGER,
	decided_at DATETIME,
	notes TEXT DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY (comment_id) REFERENCES comments(id) ON DELETE CASCADE
);
-- Append-only audit trail of moderation decisions
CREATE TABLE IF NOT EXISTS moderation_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	moderator_id INTEGER NOT NULL,
	post_id INTEGER NOT NULL,
	comment_id INTEGER,
	action TEXT NOT NULL, -- 'approved' or 'rejected'
	reason TEXT DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (moderator_id) REFERENCES users(id)
);

-- --- INDEXES ---
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
CREATE INDEX IF NOT EXISTS idx_subcategories_main ON subcategories(main_category_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_subcategories_main_slug ON subcategories(main_category_id, slug);
CREATE INDEX IF NOT EXISTS idx_posts_status_created ON posts(content_status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, content_status);
CREATE INDEX IF NOT EXISTS idx_comments_user ON comments(user_id);
CREATE INDEX IF NOT EXISTS idx_media_post ON media(post_id);
CREATE INDEX IF NOT EXISTS idx_media_status ON media(moderation_status);
CREATE INDEX IF NOT EXISTS idx_flags_post_status ON flags(post_id, status);
CREATE INDEX IF NOT EXISTS idx_flags_comment ON flags(comment_id);
CREATE INDEX IF NOT EXISTS idx_modlogs_time ON moderation_logs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_modlogs_action ON moderation_logs(action);
`
