package db

type migration struct {
	version    int
	statements []string
}

// Placeholders {{ts}}, {{json}} and {{serial}} are resolved per driver.
var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE users (
				id             TEXT PRIMARY KEY,
				email          TEXT NOT NULL UNIQUE,
				password       TEXT NOT NULL,
				name           TEXT NOT NULL DEFAULT '',
				email_verified BOOLEAN NOT NULL DEFAULT FALSE,
				email_token    TEXT,
				created_at     {{ts}} NOT NULL,
				updated_at     {{ts}} NOT NULL
			)`,
			`CREATE INDEX idx_users_email_token ON users (email_token)`,
			`CREATE TABLE tasks (
				id             TEXT PRIMARY KEY,
				user_id        TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
				title          TEXT NOT NULL,
				description    TEXT NOT NULL DEFAULT '',
				status         TEXT NOT NULL DEFAULT 'PENDING'
				               CHECK (status IN ('PENDING', 'IN_PROGRESS', 'COMPLETED')),
				estimated_time INTEGER CHECK (estimated_time IS NULL OR estimated_time > 0),
				time_spent     INTEGER NOT NULL DEFAULT 0 CHECK (time_spent >= 0),
				started_at     {{ts}},
				completed_at   {{ts}},
				created_at     {{ts}} NOT NULL,
				updated_at     {{ts}} NOT NULL
			)`,
			`CREATE INDEX idx_tasks_user_status ON tasks (user_id, status)`,
			`CREATE TABLE notifications (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
				type       TEXT NOT NULL CHECK (type IN ('info', 'success', 'warning', 'error')),
				title      TEXT NOT NULL,
				message    TEXT NOT NULL,
				read       BOOLEAN NOT NULL DEFAULT FALSE,
				task_id    TEXT REFERENCES tasks (id) ON DELETE SET NULL,
				created_at {{ts}} NOT NULL
			)`,
			`CREATE INDEX idx_notifications_dedupe ON notifications (user_id, title, message, created_at)`,
			`CREATE INDEX idx_notifications_user_created ON notifications (user_id, created_at)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE TABLE analytics_events (
				id               {{serial}},
				event_name       TEXT NOT NULL,
				event_time       {{ts}} NOT NULL,
				user_id          TEXT NOT NULL,
				session_id       TEXT,
				platform         TEXT NOT NULL DEFAULT 'unknown',
				app_version      TEXT NOT NULL DEFAULT '',
				device_locale    TEXT,
				ip_country       TEXT,
				source_event_key TEXT UNIQUE,
				properties       {{json}} NOT NULL
			)`,
			`CREATE INDEX idx_analytics_user_time ON analytics_events (user_id, event_time)`,
		},
	},
}
