package teamRepository

import (
	"MayaCRM/internal/api/team"
	"MayaCRM/internal/entity"
	contextPkg "MayaCRM/pkg/context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type agentDB struct {
	ID              sql.NullString `db:"id"`
	UserID          sql.NullString `db:"user_id"`
	Name            sql.NullString `db:"name"`
	Email           sql.NullString `db:"email"`
	Specializations pq.StringArray `db:"specializations"`
	IsAvailable     sql.NullBool   `db:"is_available"`
	ActiveLoad      sql.NullInt64  `db:"active_load"`
	MaxLoad         sql.NullInt64  `db:"max_load"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r *agentRepository) GetAvailableAgent(ctx context.Context, userID, specialization string) (entity.Agent, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var agentDB agentDB

	argsKV := map[string]interface{}{
		"user_id":        userID,
		"specialization": specialization,
	}

	query, args, err := sqlx.Named(queryGetAvailableAgent, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAvailableAgent named query preparation err")
		return entity.Agent{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&agentDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Agent{}, team.ErrNoAgentAvailable
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetAvailableAgent execution err")
		return entity.Agent{}, err
	}

	return entity.Agent{
		ID:              agentDB.ID.String,
		UserID:          agentDB.UserID.String,
		Name:            agentDB.Name.String,
		Email:           agentDB.Email.String,
		Specializations: agentDB.Specializations,
		IsAvailable:     agentDB.IsAvailable.Bool,
		ActiveLoad:      int(agentDB.ActiveLoad.Int64),
		MaxLoad:         int(agentDB.MaxLoad.Int64),
		CreatedAt:       agentDB.CreatedAt,
		UpdatedAt:       agentDB.UpdatedAt,
	}, nil
}

func (r *agentRepository) IncrementAgentLoad(ctx context.Context, id string) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryIncrementAgentLoad, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("IncrementAgentLoad named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("IncrementAgentLoad execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return team.ErrAgentNotFound
	}

	return nil
}

func (r *agentRepository) CreateAssignment(ctx context.Context, assignment entity.AgentAssignment) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":              assignment.ID,
		"agent_id":        assignment.AgentID,
		"conversation_id": assignment.ConversationID,
		"session_id":      assignment.SessionID,
		"assigned_at":     assignment.AssignedAt,
	}

	query, args, err := sqlx.Named(queryCreateAssignment, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateAssignment named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating assignment")
		return err
	}

	return nil
}
