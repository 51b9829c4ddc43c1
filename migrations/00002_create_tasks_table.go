package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateTasksTable, downCreateTasksTable)
}

func upCreateTasksTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE tasks (
	  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	  title TEXT NOT NULL,
	  description TEXT,
	  completed BOOLEAN NOT NULL DEFAULT false,
	  priority TEXT NOT NULL DEFAULT 'MEDIUM' CHECK (priority IN ('LOW', 'MEDIUM', 'HIGH', 'URGENT')),
	  due_date TIMESTAMP WITH TIME ZONE,
	  user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	  created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX idx_tasks_user_id ON tasks(user_id);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateTasksTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS tasks;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
