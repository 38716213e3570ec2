package store

import (
	"database/sql"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/pose"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Pose is a stored pose model.
type Pose struct {
	pose.Model
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PoseRepository provides CRUD operations for pose models.
type PoseRepository struct {
	db *sql.DB
}

// Poses returns the pose repository for this store.
func (s *Store) Poses() *PoseRepository {
	return &PoseRepository{db: s.db}
}

// Create validates p and inserts it with its points and labels. An empty ID
// is filled with a new UUID.
func (r *PoseRepository) Create(p *Pose) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO poses (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if err := writeShape(tx, &p.Model); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a pose by its ID.
func (r *PoseRepository) GetByID(id string) (*Pose, error) {
	return r.get(`SELECT id, name, created_at, updated_at FROM poses WHERE id = ?`, id)
}

// GetByName retrieves a pose by its name.
func (r *PoseRepository) GetByName(name string) (*Pose, error) {
	return r.get(`SELECT id, name, created_at, updated_at FROM poses WHERE name = ?`, name)
}

func (r *PoseRepository) get(query string, arg string) (*Pose, error) {
	p := &Pose{}
	err := r.db.QueryRow(query, arg).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := r.readShape(&p.Model); err != nil {
		return nil, err
	}
	return p, nil
}

// List retrieves all poses, oldest first.
func (r *PoseRepository) List() ([]*Pose, error) {
	rows, err := r.db.Query(
		`SELECT id, name, created_at, updated_at FROM poses ORDER BY created_at, name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var poses []*Pose
	for rows.Next() {
		p := &Pose{}
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		poses = append(poses, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, p := range poses {
		if err := r.readShape(&p.Model); err != nil {
			return nil, err
		}
	}
	return poses, nil
}

// Update validates p and replaces the stored name, points and labels.
func (r *PoseRepository) Update(p *Pose) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE poses SET name = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM pose_points WHERE pose_id = ?`, p.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM pose_labels WHERE pose_id = ?`, p.ID); err != nil {
		return err
	}
	if err := writeShape(tx, &p.Model); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a pose and its points and labels.
func (r *PoseRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM poses WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Seed creates every model whose name is not stored yet and returns how
// many were added.
func (r *PoseRepository) Seed(models []*pose.Model) (int, error) {
	added := 0
	for _, m := range models {
		_, err := r.GetByName(m.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return added, err
		}

		p := &Pose{Model: *m}
		if err := r.Create(p); err != nil {
			return added, fmt.Errorf("seed pose %s: %w", m.Name, err)
		}
		added++
	}
	return added, nil
}

func writeShape(tx *sql.Tx, m *pose.Model) error {
	points, err := tx.Prepare(`INSERT INTO pose_points (pose_id, sequence, x, y) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer points.Close()

	for i, pt := range m.Points {
		if _, err := points.Exec(m.ID, i, pt.X, pt.Y); err != nil {
			return err
		}
	}

	labels, err := tx.Prepare(`INSERT INTO pose_labels (pose_id, sequence, label, from_index, to_index) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer labels.Close()

	for i, l := range m.Labels {
		if _, err := labels.Exec(m.ID, i, l.Label, l.From, l.To); err != nil {
			return err
		}
	}
	return nil
}

func (r *PoseRepository) readShape(m *pose.Model) error {
	rows, err := r.db.Query(
		`SELECT x, y FROM pose_points WHERE pose_id = ? ORDER BY sequence`, m.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	m.Points = m.Points[:0]
	for rows.Next() {
		var pt image.Point
		if err := rows.Scan(&pt.X, &pt.Y); err != nil {
			return err
		}
		m.Points = append(m.Points, pt)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	labels, err := r.db.Query(
		`SELECT label, from_index, to_index FROM pose_labels WHERE pose_id = ? ORDER BY sequence`, m.ID,
	)
	if err != nil {
		return err
	}
	defer labels.Close()

	m.Labels = m.Labels[:0]
	for labels.Next() {
		var l pose.LabelRange
		if err := labels.Scan(&l.Label, &l.From, &l.To); err != nil {
			return err
		}
		m.Labels = append(m.Labels, l)
	}
	return labels.Err()
}
