package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    taken_at             TEXT NOT NULL,
    source               TEXT NOT NULL,
    total_goals          INTEGER NOT NULL,
    completed_goals      INTEGER NOT NULL,
    active_goals         INTEGER NOT NULL,
    total_saved          REAL NOT NULL,
    total_target         REAL NOT NULL,
    overall_percent      INTEGER NOT NULL,
    most_common          TEXT NOT NULL,
    highest_target       REAL NOT NULL,
    lowest_saved         REAL NOT NULL,
    average_percent      INTEGER NOT NULL,
    bands_danger         INTEGER NOT NULL DEFAULT 0,
    bands_warning        INTEGER NOT NULL DEFAULT 0,
    bands_complete       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS snapshot_categories (
    snapshot_id          INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    category             TEXT NOT NULL,
    goal_count           INTEGER NOT NULL,
    PRIMARY KEY (snapshot_id, position)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_taken ON snapshots(taken_at);
`
