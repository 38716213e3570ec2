package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Poses table - one row per pose model
		`CREATE TABLE IF NOT EXISTS poses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Pose points table - canonical contour points in order
		`CREATE TABLE IF NOT EXISTS pose_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pose_id TEXT NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL
		)`,

		// Pose labels table - inclusive point ranges carrying a label
		`CREATE TABLE IF NOT EXISTS pose_labels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pose_id TEXT NOT NULL REFERENCES poses(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			label TEXT NOT NULL,
			from_index INTEGER NOT NULL,
			to_index INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_pose_points_pose_id ON pose_points(pose_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pose_labels_pose_id ON pose_labels(pose_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
