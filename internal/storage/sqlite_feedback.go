package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/good-yellow-bee/brightminds/internal/models"
)

type sqliteFeedbackRepo struct {
	db *sql.DB
}

const feedbackColumns = `id, user_id, type, rating, message, email, allow_contact, status, created_at, updated_at`

func scanFeedback(row rowScanner) (*models.Feedback, error) {
	var (
		fb               models.Feedback
		id               string
		userID, email    sql.NullString
		rating           sql.NullInt64
		created, updated int64
	)
	err := row.Scan(&id, &userID, &fb.Type, &rating, &fb.Message, &email,
		&fb.AllowContact, &fb.Status, &created, &updated)
	if err != nil {
		return nil, err
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("parse feedback id %q: %w", id, err)
	}
	fb.ID = oid
	if userID.Valid {
		uid, err := primitive.ObjectIDFromHex(userID.String)
		if err != nil {
			return nil, fmt.Errorf("parse feedback user %q: %w", userID.String, err)
		}
		fb.User = &uid
	}
	if rating.Valid {
		v := int(rating.Int64)
		fb.Rating = &v
	}
	fb.Email = email.String
	fb.CreatedAt = fromNanos(created)
	fb.UpdatedAt = fromNanos(updated)
	return &fb, nil
}

func (r *sqliteFeedbackRepo) Create(ctx context.Context, fb *models.Feedback) error {
	if fb.ID.IsZero() {
		fb.ID = primitive.NewObjectID()
	}
	var userID, email any
	if fb.User != nil {
		userID = fb.User.Hex()
	}
	if fb.Email != "" {
		email = fb.Email
	}
	var rating any
	if fb.Rating != nil {
		rating = *fb.Rating
	}

	query := `INSERT INTO feedback (` + feedbackColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		fb.ID.Hex(), userID, fb.Type, rating, fb.Message, email,
		fb.AllowContact, fb.Status, toNanos(fb.CreatedAt), toNanos(fb.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *sqliteFeedbackRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Feedback, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE id = ?`, id.Hex())
	fb, err := scanFeedback(row)
	if errors.Is(err, sql.ErrNoRows) {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return fb, nil
}

func (r *sqliteFeedbackRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.FeedbackStatus) (*models.Feedback, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE feedback SET status = ?, updated_at = ? WHERE id = ?",
		status, toNanos(time.Now()), id.Hex(),
	)
	if err != nil {
		return nil, fmt.Errorf("update feedback status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		//nolint:nilnil
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *sqliteFeedbackRepo) List(ctx context.Context, filter FeedbackFilter, page Page) ([]*models.Feedback, int64, error) {
	var (
		conds []string
		args  []any
	)
	if filter.User != nil {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.User.Hex())
	}
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	query := `SELECT ` + feedbackColumns + ` FROM feedback` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Feedback, 0)
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, fb)
	}
	return items, total, rows.Err()
}
