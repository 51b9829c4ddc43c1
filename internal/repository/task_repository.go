package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskboard/internal/model"
)

// TaskUpdate carries the fields of a partial update. Nil means "leave as is".
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *model.Priority
	DueDate     *time.Time
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) (*model.Task, error)
	FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Task, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	Update(ctx context.Context, id, userID uuid.UUID, update TaskUpdate) error
	Delete(ctx context.Context, id, userID uuid.UUID) (int64, error)
}

type postgresTaskRepository struct {
	db *sqlx.DB
}

func NewPostgresTaskRepository(db *sqlx.DB) TaskRepository {
	return &postgresTaskRepository{db: db}
}

func (r *postgresTaskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	query := `
		INSERT INTO tasks (title, description, priority, due_date, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, title, description, completed, priority, due_date, user_id, created_at, updated_at`

	var created model.Task
	err := r.db.GetContext(ctx, &created, query,
		task.Title, task.Description, task.Priority, task.DueDate, task.UserID)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *postgresTaskRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Task, error) {
	var task model.Task
	query := `SELECT id, title, description, completed, priority, due_date, user_id, created_at, updated_at FROM tasks WHERE id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, &task, query, id, userID)

	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *postgresTaskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	tasks := []model.Task{}
	query := `SELECT id, title, description, completed, priority, due_date, user_id, created_at, updated_at FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &tasks, query, userID)

	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *postgresTaskRepository) Update(ctx context.Context, id, userID uuid.UUID, update TaskUpdate) error {
	var setClauses []string
	var args []interface{}
	argID := 1

	if update.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *update.Title)
		argID++
	}
	if update.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argID))
		args = append(args, *update.Description)
		argID++
	}
	if update.Completed != nil {
		setClauses = append(setClauses, fmt.Sprintf("completed = $%d", argID))
		args = append(args, *update.Completed)
		argID++
	}
	if update.Priority != nil {
		setClauses = append(setClauses, fmt.Sprintf("priority = $%d", argID))
		args = append(args, *update.Priority)
		argID++
	}
	if update.DueDate != nil {
		setClauses = append(setClauses, fmt.Sprintf("due_date = $%d", argID))
		args = append(args, *update.DueDate)
		argID++
	}

	if len(setClauses) == 0 {
		return nil
	}

	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(setClauses, ", "), argID, argID+1)
	args = append(args, id, userID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *postgresTaskRepository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
