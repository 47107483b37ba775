package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

type sqliteProjectRepo struct {
	db *sql.DB
}

func decodeProject(doc string) (*models.Project, error) {
	var project models.Project
	if err := json.Unmarshal([]byte(doc), &project); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	return &project, nil
}

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	doc, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	query := `
		INSERT INTO projects (id, user_id, document_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		project.ID.Hex(), project.User.Hex(), string(doc),
		toNanos(project.CreatedAt), toNanos(project.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *sqliteProjectRepo) GetForOwner(ctx context.Context, id, owner primitive.ObjectID) (*models.Project, error) {
	var doc string
	err := r.db.QueryRowContext(ctx,
		"SELECT document_json FROM projects WHERE id = ? AND user_id = ?",
		id.Hex(), owner.Hex(),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return decodeProject(doc)
}

func (r *sqliteProjectRepo) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT document_json FROM projects WHERE user_id = ? ORDER BY updated_at DESC, id DESC",
		owner.Hex(),
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		project, err := decodeProject(doc)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *sqliteProjectRepo) Update(ctx context.Context, project *models.Project) (bool, error) {
	doc, err := json.Marshal(project)
	if err != nil {
		return false, fmt.Errorf("encode project: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE projects SET document_json = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		string(doc), toNanos(project.UpdatedAt), project.ID.Hex(), project.User.Hex(),
	)
	if err != nil {
		return false, fmt.Errorf("update project: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *sqliteProjectRepo) Delete(ctx context.Context, id, owner primitive.ObjectID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM projects WHERE id = ? AND user_id = ?",
		id.Hex(), owner.Hex(),
	)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
