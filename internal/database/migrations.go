package database

// migrations holds an ordered list of SQL migration groups per dialect. Each
// entry is a slice of SQL statements that are executed together in a single
// transaction. The version number is the 1-based index into the slice.
//
// Foreign keys have no ON DELETE actions, so wiping a referenced table before
// its dependents fails.
var migrations = map[Dialect][][]string{
	SQLite: {
		// Migration 1: classroom tables
		{
			`CREATE TABLE users (
				id TEXT PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				social TEXT NOT NULL DEFAULT '{}',
				created_at TIMESTAMP NOT NULL
			)`,

			`CREATE TABLE courses (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,

			`CREATE TABLE tests (
				id TEXT PRIMARY KEY,
				course_id TEXT NOT NULL,
				name TEXT NOT NULL,
				scheduled_at TIMESTAMP NOT NULL,
				position INTEGER NOT NULL,
				UNIQUE(course_id, position),
				FOREIGN KEY (course_id) REFERENCES courses(id)
			)`,

			`CREATE TABLE memberships (
				id TEXT PRIMARY KEY,
				role TEXT NOT NULL CHECK (role IN ('TEACHER', 'STUDENT')),
				user_id TEXT NOT NULL,
				course_id TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				UNIQUE(user_id, course_id),
				FOREIGN KEY (user_id) REFERENCES users(id),
				FOREIGN KEY (course_id) REFERENCES courses(id)
			)`,
			`CREATE INDEX idx_memberships_course ON memberships(course_id)`,

			`CREATE TABLE test_results (
				id TEXT PRIMARY KEY,
				test_id TEXT NOT NULL,
				student_id TEXT NOT NULL,
				graded_by_id TEXT NOT NULL,
				score REAL NOT NULL,
				created_at TIMESTAMP NOT NULL,
				FOREIGN KEY (test_id) REFERENCES tests(id),
				FOREIGN KEY (student_id) REFERENCES users(id),
				FOREIGN KEY (graded_by_id) REFERENCES users(id)
			)`,
			`CREATE INDEX idx_test_results_student ON test_results(student_id)`,
		},
	},

	Postgres: {
		// Migration 1: classroom tables
		{
			`CREATE TABLE users (
				id UUID PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				social JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMPTZ NOT NULL
			)`,

			`CREATE TABLE courses (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,

			`CREATE TABLE tests (
				id UUID PRIMARY KEY,
				course_id UUID NOT NULL REFERENCES courses(id),
				name TEXT NOT NULL,
				scheduled_at TIMESTAMPTZ NOT NULL,
				position INTEGER NOT NULL,
				UNIQUE(course_id, position)
			)`,

			`CREATE TYPE membership_role AS ENUM ('TEACHER', 'STUDENT')`,

			`CREATE TABLE memberships (
				id UUID PRIMARY KEY,
				role membership_role NOT NULL,
				user_id UUID NOT NULL REFERENCES users(id),
				course_id UUID NOT NULL REFERENCES courses(id),
				created_at TIMESTAMPTZ NOT NULL,
				UNIQUE(user_id, course_id)
			)`,
			`CREATE INDEX idx_memberships_course ON memberships(course_id)`,

			`CREATE TABLE test_results (
				id UUID PRIMARY KEY,
				test_id UUID NOT NULL REFERENCES tests(id),
				student_id UUID NOT NULL REFERENCES users(id),
				graded_by_id UUID NOT NULL REFERENCES users(id),
				score DOUBLE PRECISION NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX idx_test_results_student ON test_results(student_id)`,
		},
	},
}

var schemaMigrationsDDL = map[Dialect]string{
	SQLite: `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	Postgres: `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ DEFAULT now()
	)`,
}
