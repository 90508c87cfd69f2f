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

type customerDB struct {
	ID        sql.NullString `db:"id"`
	UserID    sql.NullString `db:"user_id"`
	Name      sql.NullString `db:"name"`
	Phone     sql.NullString `db:"phone"`
	Email     sql.NullString `db:"email"`
	Language  sql.NullString `db:"language"`
	Metadata  sql.NullString `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *customerRepository) GetCustomerByID(ctx context.Context, id string) (entity.Customer, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var customerDB customerDB

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryGetCustomerByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetCustomerByID named query preparation err")
		return entity.Customer{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&customerDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Customer{}, orchestrator.ErrCustomerNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetCustomerByID execution err")
		return entity.Customer{}, err
	}

	return r.makeCustomer(customerDB), nil
}

func (r *customerRepository) makeCustomer(db customerDB) entity.Customer {
	var metadata map[string]interface{}
	if db.Metadata.Valid && db.Metadata.String != "" {
		json.Unmarshal([]byte(db.Metadata.String), &metadata)
	}

	return entity.Customer{
		ID:        db.ID.String,
		UserID:    db.UserID.String,
		Name:      db.Name.String,
		Phone:     db.Phone.String,
		Email:     db.Email.String,
		Language:  db.Language.String,
		Metadata:  metadata,
		CreatedAt: db.CreatedAt,
		UpdatedAt: db.UpdatedAt,
	}
}
