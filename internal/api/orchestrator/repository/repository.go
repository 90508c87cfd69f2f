package orchestratorRepository

import (
	"MayaCRM/internal/entity"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Sessions:  &sessionRepository{q: sqlExecutor, log: r.log},
		Customers: &customerRepository{q: sqlExecutor, log: r.log},
		Tasks:     &taskRepository{q: sqlExecutor, log: r.log},
		Callbacks: &callbackRepository{q: sqlExecutor, log: r.log},
		Commit:    commitFunc,
		Rollback:  rollbackFunc,
	}, nil
}

type Client struct {
	Sessions interface {
		CreateSession(ctx context.Context, session entity.Session) error
		GetSessionByID(ctx context.Context, id string) (entity.Session, error)
		UpdateSessionStatus(ctx context.Context, id string, status entity.SessionStatus) error
		UpdateSessionCounters(ctx context.Context, id string, messageCount, voiceMessageCount int) error
		CloseSession(ctx context.Context, id string, endedAt time.Time, duration int64, reason string) error
	}

	Customers interface {
		GetCustomerByID(ctx context.Context, id string) (entity.Customer, error)
	}

	Tasks interface {
		CreateTask(ctx context.Context, task entity.Task) error
	}

	Callbacks interface {
		CreateCallback(ctx context.Context, callback entity.Callback) error
	}

	Commit   func() error
	Rollback func() error
}

type sessionRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type customerRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type taskRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type callbackRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
