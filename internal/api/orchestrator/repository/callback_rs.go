package orchestratorRepository

import (
	"MayaCRM/internal/entity"
	contextPkg "MayaCRM/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (r *callbackRepository) CreateCallback(ctx context.Context, callback entity.Callback) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":             callback.ID,
		"user_id":        callback.UserID,
		"customer_id":    callback.CustomerID,
		"session_id":     callback.SessionID,
		"customer_phone": callback.CustomerPhone,
		"reason":         callback.Reason,
		"status":         callback.Status,
		"scheduled_at":   callback.ScheduledAt,
		"created_at":     callback.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateCallback, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateCallback named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating callback")
		return err
	}

	return nil
}
