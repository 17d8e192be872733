package database

// UnrankedSentinel is the rank assigned to freshly upserted leaderboard rows.
// The batch ranking pass replaces it with a dense 1..N rank.
const UnrankedSentinel = 999999

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Users table: tracked developers with their latest all-time score snapshot
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    github_username TEXT NOT NULL UNIQUE,
    display_name TEXT,

    -- Moderation state
    is_banned BOOLEAN NOT NULL DEFAULT 0,

    -- Latest score snapshot, recomputed on every successful refresh
    total_aura INTEGER NOT NULL DEFAULT 0,
    current_streak INTEGER NOT NULL DEFAULT 0,
    last_refreshed_at INTEGER,

    -- Metadata
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Monthly leaderboard: one aggregate row per user per calendar month
CREATE TABLE IF NOT EXISTS monthly_leaderboard (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    month_year TEXT NOT NULL,  -- "YYYY-MM"

    total_aura INTEGER NOT NULL DEFAULT 0,
    contributions_count INTEGER NOT NULL DEFAULT 0,
    rank INTEGER NOT NULL DEFAULT 999999,

    updated_at INTEGER NOT NULL,

    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

-- Global leaderboard: one aggregate row per user
CREATE TABLE IF NOT EXISTS global_leaderboard (
    user_id TEXT PRIMARY KEY,

    total_aura INTEGER NOT NULL DEFAULT 0,
    yearly_aura INTEGER NOT NULL DEFAULT 0,
    rank INTEGER NOT NULL DEFAULT 999999,

    last_updated INTEGER NOT NULL,

    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

-- Monthly winners: immutable snapshot of a closed month's top performers.
-- Only badge_awarded is ever updated after insert.
CREATE TABLE IF NOT EXISTS monthly_winners (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    month_year TEXT NOT NULL,

    rank INTEGER NOT NULL,
    total_aura INTEGER NOT NULL,
    contributions_count INTEGER NOT NULL,
    badge_awarded BOOLEAN NOT NULL DEFAULT 0,

    captured_at INTEGER NOT NULL,

    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

-- Indexes for users table
CREATE INDEX IF NOT EXISTS idx_users_is_banned ON users(is_banned);

-- Indexes for monthly_leaderboard table
CREATE UNIQUE INDEX IF NOT EXISTS idx_monthly_leaderboard_unique ON monthly_leaderboard(user_id, month_year);
CREATE INDEX IF NOT EXISTS idx_monthly_leaderboard_month ON monthly_leaderboard(month_year, total_aura DESC);

-- Indexes for global_leaderboard table
CREATE INDEX IF NOT EXISTS idx_global_leaderboard_aura ON global_leaderboard(total_aura DESC);

-- Unique constraint is the idempotency guard for winner capture
CREATE UNIQUE INDEX IF NOT EXISTS idx_monthly_winners_unique ON monthly_winners(user_id, month_year);
CREATE INDEX IF NOT EXISTS idx_monthly_winners_month ON monthly_winners(month_year, rank);
`
