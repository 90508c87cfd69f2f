package orchestratorRepository

import (
	"MayaCRM/internal/api/orchestrator"
	"MayaCRM/internal/entity"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return New(sqlx.NewDb(mockDB, "postgres"), logger), mock
}

func TestCreateSession(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT INTO conversation_sessions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	client, err := repo.NewClient(false)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	err = client.Sessions.CreateSession(context.Background(), entity.Session{
		ID:             "sess-1",
		UserID:         "tenant-1",
		ConversationID: "conv-1",
		CustomerID:     "cust-1",
		CustomerName:   "Budi",
		CustomerPhone:  "62812",
		Mode:           entity.SessionModeChat,
		Status:         entity.SessionStatusActive,
		Language:       "id",
		VoiceConfig:    entity.VoiceConfig{Provider: "elevenlabs", Speed: 1.0},
		Context:        map[string]interface{}{},
		StartedAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetSessionByID(t *testing.T) {
	repo, mock := newMockRepository(t)
	started := time.Now()

	columns := []string{
		"id", "user_id", "conversation_id", "customer_id", "customer_name",
		"customer_phone", "mode", "status", "language", "voice_config",
		"context", "started_at", "ended_at", "end_reason", "total_duration",
		"message_count", "voice_message_count",
	}

	mock.ExpectQuery("SELECT(.|\n)+FROM conversation_sessions").
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"sess-1", "tenant-1", "conv-1", "cust-1", "Budi",
			"62812", "chat", "active", "id", `{"provider":"elevenlabs","speed":1.2}`,
			`{"topic":"order"}`, started, nil, nil, 0,
			3, 1,
		))

	client, err := repo.NewClient(false)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	session, err := client.Sessions.GetSessionByID(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}

	if session.ID != "sess-1" || session.Mode != entity.SessionModeChat {
		t.Errorf("unexpected session %+v", session)
	}
	if session.VoiceConfig.Provider != "elevenlabs" || session.VoiceConfig.Speed != 1.2 {
		t.Errorf("voice config not decoded: %+v", session.VoiceConfig)
	}
	if session.Context["topic"] != "order" {
		t.Errorf("context not decoded: %+v", session.Context)
	}
	if session.MessageCount != 3 || session.VoiceMessageCount != 1 {
		t.Errorf("counters not decoded: %+v", session)
	}
	if session.EndedAt != nil {
		t.Errorf("EndedAt should be nil for an open session")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetSessionByIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT(.|\n)+FROM conversation_sessions").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	client, _ := repo.NewClient(false)

	_, err := client.Sessions.GetSessionByID(context.Background(), "missing")
	if err != orchestrator.ErrSessionNotFound {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestUpdateSessionStatusNoRows(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("UPDATE conversation_sessions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	client, _ := repo.NewClient(false)

	err := client.Sessions.UpdateSessionStatus(context.Background(), "missing", entity.SessionStatusPaused)
	if err != orchestrator.ErrSessionNotFound {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestCloseSession(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("UPDATE conversation_sessions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	client, _ := repo.NewClient(false)

	if err := client.Sessions.CloseSession(context.Background(), "sess-1", time.Now(), 340, "resolved"); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
