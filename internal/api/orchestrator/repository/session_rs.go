package orchestratorRepository

import (
	"MayaCRM/internal/api/orchestrator"
	"MayaCRM/internal/entity"
	contextPkg "MayaCRM/pkg/context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type sessionDB struct {
	ID                sql.NullString `db:"id"`
	UserID            sql.NullString `db:"user_id"`
	ConversationID    sql.NullString `db:"conversation_id"`
	CustomerID        sql.NullString `db:"customer_id"`
	CustomerName      sql.NullString `db:"customer_name"`
	CustomerPhone     sql.NullString `db:"customer_phone"`
	Mode              sql.NullString `db:"mode"`
	Status            sql.NullString `db:"status"`
	Language          sql.NullString `db:"language"`
	VoiceConfig       sql.NullString `db:"voice_config"`
	Context           sql.NullString `db:"context"`
	StartedAt         time.Time      `db:"started_at"`
	EndedAt           sql.NullTime   `db:"ended_at"`
	EndReason         sql.NullString `db:"end_reason"`
	TotalDuration     sql.NullInt64  `db:"total_duration"`
	MessageCount      sql.NullInt64  `db:"message_count"`
	VoiceMessageCount sql.NullInt64  `db:"voice_message_count"`
}

func (r *sessionRepository) CreateSession(ctx context.Context, session entity.Session) error {
	requestID := contextPkg.GetRequestID(ctx)

	voiceConfigJSON, err := json.Marshal(session.VoiceConfig)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal voice config")
		return err
	}

	contextJSON, err := json.Marshal(session.Context)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal session context")
		return err
	}

	argsKV := map[string]interface{}{
		"id":                  session.ID,
		"user_id":             session.UserID,
		"conversation_id":     session.ConversationID,
		"customer_id":         session.CustomerID,
		"customer_name":       session.CustomerName,
		"customer_phone":      session.CustomerPhone,
		"mode":                string(session.Mode),
		"status":              string(session.Status),
		"language":            session.Language,
		"voice_config":        string(voiceConfigJSON),
		"context":             string(contextJSON),
		"started_at":          session.StartedAt,
		"message_count":       session.MessageCount,
		"voice_message_count": session.VoiceMessageCount,
	}

	query, args, err := sqlx.Named(queryCreateSession, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateSession named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating session")
		return err
	}

	return nil
}

func (r *sessionRepository) GetSessionByID(ctx context.Context, id string) (entity.Session, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var sessionDB sessionDB

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryGetSessionByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID named query preparation err")
		return entity.Session{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&sessionDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Session{}, orchestrator.ErrSessionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetSessionByID execution err")
		return entity.Session{}, err
	}

	return r.makeSession(sessionDB), nil
}

func (r *sessionRepository) UpdateSessionStatus(ctx context.Context, id string, status entity.SessionStatus) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":     id,
		"status": string(status),
	}

	query, args, err := sqlx.Named(queryUpdateSessionStatus, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateSessionStatus named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateSessionStatus execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return orchestrator.ErrSessionNotFound
	}

	return nil
}

func (r *sessionRepository) UpdateSessionCounters(ctx context.Context, id string, messageCount, voiceMessageCount int) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":                  id,
		"message_count":       messageCount,
		"voice_message_count": voiceMessageCount,
	}

	query, args, err := sqlx.Named(queryUpdateSessionCounters, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateSessionCounters named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateSessionCounters execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return orchestrator.ErrSessionNotFound
	}

	return nil
}

func (r *sessionRepository) CloseSession(ctx context.Context, id string, endedAt time.Time, duration int64, reason string) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":             id,
		"ended_at":       endedAt,
		"end_reason":     reason,
		"total_duration": duration,
	}

	query, args, err := sqlx.Named(queryCloseSession, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CloseSession named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CloseSession execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
		}).Warn("CloseSession no rows affected")
		return orchestrator.ErrSessionNotFound
	}

	return nil
}

func (r *sessionRepository) makeSession(db sessionDB) entity.Session {
	var voiceConfig entity.VoiceConfig
	if db.VoiceConfig.Valid && db.VoiceConfig.String != "" {
		json.Unmarshal([]byte(db.VoiceConfig.String), &voiceConfig)
	}

	sessionContext := map[string]interface{}{}
	if db.Context.Valid && db.Context.String != "" {
		json.Unmarshal([]byte(db.Context.String), &sessionContext)
	}

	session := entity.Session{
		ID:                db.ID.String,
		UserID:            db.UserID.String,
		ConversationID:    db.ConversationID.String,
		CustomerID:        db.CustomerID.String,
		CustomerName:      db.CustomerName.String,
		CustomerPhone:     db.CustomerPhone.String,
		Mode:              entity.SessionMode(db.Mode.String),
		Status:            entity.SessionStatus(db.Status.String),
		Language:          db.Language.String,
		VoiceConfig:       voiceConfig,
		Context:           sessionContext,
		StartedAt:         db.StartedAt,
		EndReason:         db.EndReason.String,
		TotalDuration:     db.TotalDuration.Int64,
		MessageCount:      int(db.MessageCount.Int64),
		VoiceMessageCount: int(db.VoiceMessageCount.Int64),
	}

	if db.EndedAt.Valid {
		endedAt := db.EndedAt.Time
		session.EndedAt = &endedAt
	}

	return session
}
