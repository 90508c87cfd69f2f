package orchestratorRepository

import (
	"MayaCRM/internal/entity"
	contextPkg "MayaCRM/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (r *taskRepository) CreateTask(ctx context.Context, task entity.Task) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":          task.ID,
		"user_id":     task.UserID,
		"customer_id": task.CustomerID,
		"session_id":  task.SessionID,
		"title":       task.Title,
		"description": task.Description,
		"category":    task.Category,
		"status":      task.Status,
		"due_at":      task.DueAt,
		"created_at":  task.CreatedAt,
		"updated_at":  task.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryCreateTask, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateTask named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating task")
		return err
	}

	return nil
}
