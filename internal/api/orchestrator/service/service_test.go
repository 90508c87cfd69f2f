package orchestratorService

import (
	"MayaCRM/internal/api/orchestrator"
	orchestratorRepository "MayaCRM/internal/api/orchestrator/repository"
	teamService "MayaCRM/internal/api/team/service"
	"MayaCRM/internal/entity"
	"MayaCRM/pkg/classifier"
	"MayaCRM/pkg/registry"
	"MayaCRM/pkg/utils"
	"MayaCRM/pkg/voice"
	"MayaCRM/pkg/whatsapp"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	sessions      map[string]entity.Session
	customers     map[string]entity.Customer
	tasks         []entity.Task
	callbacks     []entity.Callback
	statusUpdates []entity.SessionStatus
	closedIDs     []string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		sessions:  make(map[string]entity.Session),
		customers: make(map[string]entity.Customer),
	}
}

func (f *fakeRepository) NewClient(_ bool) (orchestratorRepository.Client, error) {
	return orchestratorRepository.Client{
		Sessions:  &fakeSessionRepo{f},
		Customers: &fakeCustomerRepo{f},
		Tasks:     &fakeTaskRepo{f},
		Callbacks: &fakeCallbackRepo{f},
		Commit:    func() error { return nil },
		Rollback:  func() error { return nil },
	}, nil
}

type fakeSessionRepo struct{ f *fakeRepository }

func (r *fakeSessionRepo) CreateSession(_ context.Context, session entity.Session) error {
	r.f.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) GetSessionByID(_ context.Context, id string) (entity.Session, error) {
	session, ok := r.f.sessions[id]
	if !ok {
		return entity.Session{}, orchestrator.ErrSessionNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) UpdateSessionStatus(_ context.Context, id string, status entity.SessionStatus) error {
	session, ok := r.f.sessions[id]
	if !ok {
		return orchestrator.ErrSessionNotFound
	}
	session.Status = status
	r.f.sessions[id] = session
	r.f.statusUpdates = append(r.f.statusUpdates, status)
	return nil
}

func (r *fakeSessionRepo) UpdateSessionCounters(_ context.Context, id string, messageCount, voiceMessageCount int) error {
	session, ok := r.f.sessions[id]
	if !ok {
		return orchestrator.ErrSessionNotFound
	}
	session.MessageCount = messageCount
	session.VoiceMessageCount = voiceMessageCount
	r.f.sessions[id] = session
	return nil
}

func (r *fakeSessionRepo) CloseSession(_ context.Context, id string, endedAt time.Time, duration int64, reason string) error {
	session, ok := r.f.sessions[id]
	if !ok {
		return orchestrator.ErrSessionNotFound
	}
	session.Status = entity.SessionStatusEnded
	session.EndedAt = &endedAt
	session.TotalDuration = duration
	session.EndReason = reason
	r.f.sessions[id] = session
	r.f.closedIDs = append(r.f.closedIDs, id)
	return nil
}

type fakeCustomerRepo struct{ f *fakeRepository }

func (r *fakeCustomerRepo) GetCustomerByID(_ context.Context, id string) (entity.Customer, error) {
	customer, ok := r.f.customers[id]
	if !ok {
		return entity.Customer{}, orchestrator.ErrCustomerNotFound
	}
	return customer, nil
}

type fakeTaskRepo struct{ f *fakeRepository }

func (r *fakeTaskRepo) CreateTask(_ context.Context, task entity.Task) error {
	r.f.tasks = append(r.f.tasks, task)
	return nil
}

type fakeCallbackRepo struct{ f *fakeRepository }

func (r *fakeCallbackRepo) CreateCallback(_ context.Context, callback entity.Callback) error {
	r.f.callbacks = append(r.f.callbacks, callback)
	return nil
}

type fakeClassifier struct {
	result *classifier.Result
	err    error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, _ classifier.Hint) (*classifier.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	return &result, nil
}

type fakeChatGPT struct {
	reply string
	err   error
}

func (f *fakeChatGPT) GenerateReply(_ context.Context, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeSynthesizer struct {
	result *voice.SpeechResult
	err    error
	calls  int
}

func (f *fakeSynthesizer) Speak(_ context.Context, _ string, _ entity.VoiceConfig) (*voice.SpeechResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSender struct {
	sent []whatsapp.OutboundMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg whatsapp.OutboundMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Disconnect() error { return nil }
func (f *fakeSender) IsConnected() bool { return true }

type fakeMailer struct{ sent int }

func (f *fakeMailer) SendCallbackNotification(_, _, _ string, _ time.Time) error {
	f.sent++
	return nil
}

type fakeTeam struct {
	assignments int
	err         error
}

func (f *fakeTeam) AutoAssign(_ context.Context, _, _, _, _ string) (*teamService.Assignment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.assignments++
	return &teamService.Assignment{AgentID: "agent-1", AgentName: "Dewi"}, nil
}

type testEnv struct {
	service     IOrchestratorService
	repo        *fakeRepository
	store       registry.Store
	classifier  *fakeClassifier
	chatGPT     *fakeChatGPT
	synthesizer *fakeSynthesizer
	sender      *fakeSender
	mailer      *fakeMailer
	team        *fakeTeam
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := registry.NewStore(registry.StoreTypeMemory)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	env := &testEnv{
		repo:  newFakeRepository(),
		store: store,
		classifier: &fakeClassifier{result: &classifier.Result{
			Intent:       classifier.IntentGeneralQuery,
			Sentiment:    classifier.SentimentNeutral,
			UrgencyScore: 2,
			Category:     classifier.CategoryGeneral,
			Confidence:   0.8,
		}},
		chatGPT:     &fakeChatGPT{reply: "Sure, happy to help."},
		synthesizer: &fakeSynthesizer{result: &voice.SpeechResult{Success: true, AudioURL: "https://cdn.example.com/tts.mp3", Duration: 2.5, Provider: "elevenlabs"}},
		sender:      &fakeSender{},
		mailer:      &fakeMailer{},
		team:        &fakeTeam{},
	}

	env.repo.customers["cust-1"] = entity.Customer{
		ID:       "cust-1",
		UserID:   "tenant-1",
		Name:     "Budi",
		Phone:    "081234567890",
		Language: "id",
	}

	env.service = NewOrchestratorService(
		logger,
		env.repo,
		env.store,
		env.classifier,
		env.chatGPT,
		env.synthesizer,
		env.sender,
		env.mailer,
		env.team,
		utils.New(),
	)

	return env
}

func (e *testEnv) startSession(t *testing.T, mode string) *entity.Session {
	t.Helper()

	session, err := e.service.InitializeSession(context.Background(), "tenant-1", orchestrator.CreateSessionRequest{
		CustomerID:     "cust-1",
		ConversationID: "conv-1",
		Mode:           mode,
	})
	require.NoError(t, err)
	return session
}

func TestInitializeSessionDefaults(t *testing.T) {
	env := newTestEnv(t)

	session := env.startSession(t, "chat")

	require.Equal(t, entity.SessionStatusActive, session.Status)
	require.Equal(t, entity.SessionModeChat, session.Mode)
	require.Equal(t, "Budi", session.CustomerName)
	require.Equal(t, "6281234567890", session.CustomerPhone, "leading zero becomes country code")
	require.Equal(t, "id", session.Language)
	require.Equal(t, "elevenlabs", session.VoiceConfig.Provider)
	require.Equal(t, 1.0, session.VoiceConfig.Speed)
	require.Equal(t, 0.5, session.VoiceConfig.Stability)

	// Persisted and registered.
	require.Contains(t, env.repo.sessions, session.ID)
	live, err := env.store.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, live)

	// Welcome message went out on the text channel.
	require.Len(t, env.sender.sent, 1)
	require.Equal(t, "conv-1", env.sender.sent[0].ConversationID)
}

func TestInitializeSessionVoiceOverrides(t *testing.T) {
	env := newTestEnv(t)
	speed := 1.3
	stability := 0.9

	session, err := env.service.InitializeSession(context.Background(), "tenant-1", orchestrator.CreateSessionRequest{
		CustomerID: "cust-1",
		Mode:       "voice",
		VoiceOverrides: &orchestrator.VoiceConfigOverride{
			Speed:     &speed,
			Stability: &stability,
		},
	})
	require.NoError(t, err)

	require.Equal(t, 1.3, session.VoiceConfig.Speed)
	require.Equal(t, 0.9, session.VoiceConfig.Stability)
	require.Equal(t, 0.75, session.VoiceConfig.Similarity, "untouched fields keep defaults")

	// No conversation linked yet, so no welcome goes out on any channel.
	require.Zero(t, env.synthesizer.calls)
	require.Empty(t, env.sender.sent)
}

func TestInitializeSessionWelcomeByMode(t *testing.T) {
	tests := []struct {
		mode       string
		synthCalls int
		want       []string
	}{
		{"chat", 0, []string{"Halo Budi! Ada yang bisa kami bantu hari ini?"}},
		{"voice", 1, []string{"https://cdn.example.com/tts.mp3"}},
		{"hybrid", 1, []string{"https://cdn.example.com/tts.mp3", "Halo Budi! Ada yang bisa kami bantu hari ini?"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			env := newTestEnv(t)
			env.startSession(t, tt.mode)

			require.Equal(t, tt.synthCalls, env.synthesizer.calls)
			require.Len(t, env.sender.sent, len(tt.want))
			for i, want := range tt.want {
				require.Equal(t, want, env.sender.sent[i].Content)
			}
		})
	}
}

func TestInitializeSessionUnknownCustomer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.InitializeSession(context.Background(), "tenant-1", orchestrator.CreateSessionRequest{
		CustomerID: "ghost",
		Mode:       "chat",
	})
	require.ErrorIs(t, err, orchestrator.ErrCustomerNotFound)
}

func TestProcessMessageTextFlow(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "chat")
	env.sender.sent = nil

	result, err := env.service.ProcessMessage(context.Background(), session.ID, orchestrator.ProcessMessageRequest{
		Content: "hello, quick question",
		Type:    "text",
	})
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Equal(t, orchestrator.StrategyTextOnly, result.Strategy)
	require.Equal(t, "Sure, happy to help.", result.Response.Text)
	require.Nil(t, result.Response.Voice)

	// One synchronous text_response command, delivered.
	require.Len(t, result.Commands, 1)
	require.Equal(t, entity.CommandTextResponse, result.Commands[0].Type)
	require.True(t, result.Commands[0].Success)
	require.Len(t, env.sender.sent, 1)

	// Counters advanced in registry and database.
	live, _ := env.store.GetSession(context.Background(), session.ID)
	require.Equal(t, 1, live.MessageCount)
	require.Equal(t, 0, live.VoiceMessageCount)
	require.Equal(t, 1, env.repo.sessions[session.ID].MessageCount)
}

func TestProcessMessageVoiceFlow(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "voice")
	env.sender.sent = nil
	env.synthesizer.calls = 0

	result, err := env.service.ProcessMessage(context.Background(), session.ID, orchestrator.ProcessMessageRequest{
		Content: "what is my order status",
		Type:    "voice",
	})
	require.NoError(t, err)

	require.Equal(t, orchestrator.StrategyVoiceOnly, result.Strategy)
	require.NotNil(t, result.Response.Voice)
	require.Equal(t, "https://cdn.example.com/tts.mp3", result.Response.Voice.AudioURL)
	require.Equal(t, 1, env.synthesizer.calls)

	live, _ := env.store.GetSession(context.Background(), session.ID)
	require.Equal(t, 1, live.VoiceMessageCount)
}

func TestProcessMessageHybridTextKeepsVoiceCountFlat(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "hybrid")
	env.sender.sent = nil
	env.synthesizer.calls = 0

	result, err := env.service.ProcessMessage(context.Background(), session.ID, orchestrator.ProcessMessageRequest{
		Content: "do you ship to Bandung?",
		Type:    "text",
	})
	require.NoError(t, err)

	require.Equal(t, orchestrator.StrategyVoiceWithText, result.Strategy)
	require.NotNil(t, result.Response.Voice, "hybrid replies still carry audio")

	// Synthesized audio on the reply does not make the inbound message a
	// voice message.
	live, _ := env.store.GetSession(context.Background(), session.ID)
	require.Equal(t, 1, live.MessageCount)
	require.Equal(t, 0, live.VoiceMessageCount)
}

func TestProcessMessageVoiceSynthesisFallsBackToText(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "voice")
	env.synthesizer.err = errors.New("tts unavailable")

	result, err := env.service.ProcessMessage(context.Background(), session.ID, orchestrator.ProcessMessageRequest{
		Content: "hello",
		Type:    "voice",
	})
	require.NoError(t, err)

	require.Nil(t, result.Response.Voice)
	require.Len(t, result.Commands, 1)
	require.Equal(t, entity.CommandTextResponse, result.Commands[0].Type)
}

func TestProcessMessageEscalation(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "chat")
	env.sender.sent = nil
	env.classifier.result = &classifier.Result{
		Intent:       classifier.IntentComplaint,
		Sentiment:    classifier.SentimentNegative,
		UrgencyScore: 9,
		Category:     classifier.CategorySupport,
		Confidence:   0.95,
	}

	result, err := env.service.ProcessMessage(context.Background(), session.ID, orchestrator.ProcessMessageRequest{
		Content: "this is unacceptable, fix it now!!",
		Type:    "text",
	})
	require.NoError(t, err)

	require.Equal(t, orchestrator.StrategyEscalate, result.Strategy)

	// Handoff text goes out and the transfer runs synchronously.
	var types []entity.CommandType
	for _, cmd := range result.Commands {
		types = append(types, cmd.Type)
		require.True(t, cmd.Success)
	}
	require.Contains(t, types, entity.CommandTextResponse)
	require.Contains(t, types, entity.CommandTransferAgent)
	require.Equal(t, 1, env.team.assignments)

	// Customer is told who now owns the conversation.
	var contents []string
	for _, msg := range env.sender.sent {
		contents = append(contents, msg.Content)
	}
	require.Contains(t, contents, "Anda sekarang terhubung dengan Dewi yang akan membantu Anda lebih lanjut.")

	// Transfer pauses the session so the assistant stops answering.
	live, _ := env.store.GetSession(context.Background(), session.ID)
	require.Equal(t, entity.SessionStatusPaused, live.Status)
	require.Equal(t, "agent-1", live.Context["assigned_agent_id"])
}

func TestProcessMessageQueuesFollowUps(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "chat")
	env.classifier.result = &classifier.Result{
		Intent:       classifier.IntentProductSupport,
		Sentiment:    classifier.SentimentNegative,
		UrgencyScore: 6,
		Category:     classifier.CategorySupport,
		Confidence:   0.9,
	}

	result, err := env.service.ProcessMessage(context.Background(), session.ID, orchestrator.ProcessMessageRequest{
		Content: "the device is broken and I need help",
		Type:    "text",
	})
	require.NoError(t, err)
	require.Equal(t, orchestrator.StrategyTextOnly, result.Strategy)

	// Only the delivery command ran synchronously; the create_task and
	// schedule_callback follow-ups wait in the queue.
	require.Len(t, result.Commands, 1)
	queued, err := env.store.QueuedCount(context.Background(), session.ID)
	require.NoError(t, err)
	require.Equal(t, 2, queued)
	require.Empty(t, env.repo.tasks)
	require.Empty(t, env.repo.callbacks)
}

func TestProcessMessageGenerationFailure(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "chat")
	env.chatGPT.err = errors.New("model overloaded")

	result, err := env.service.ProcessMessage(context.Background(), session.ID, orchestrator.ProcessMessageRequest{
		Content: "hello?",
		Type:    "text",
	})
	require.NoError(t, err)

	require.Equal(t, orchestrator.StrategyEscalate, result.Strategy)
	require.Equal(t, fallbackReply, result.Response.Text)
	require.Equal(t, 1, env.team.assignments, "generation failure hands off to a human")
}

func TestProcessMessageClassificationFailure(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "chat")
	env.classifier.err = errors.New("provider down")

	_, err := env.service.ProcessMessage(context.Background(), session.ID, orchestrator.ProcessMessageRequest{
		Content: "hello",
		Type:    "text",
	})
	require.ErrorIs(t, err, orchestrator.ErrClassification)
}

func TestProcessMessageSessionStates(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.ProcessMessage(context.Background(), "missing", orchestrator.ProcessMessageRequest{
		Content: "hi", Type: "text",
	})
	require.ErrorIs(t, err, orchestrator.ErrSessionNotFound)

	session := env.startSession(t, "chat")
	live, _ := env.store.GetSession(context.Background(), session.ID)
	live.Status = entity.SessionStatusPaused
	require.NoError(t, env.store.PutSession(context.Background(), live))

	_, err = env.service.ProcessMessage(context.Background(), session.ID, orchestrator.ProcessMessageRequest{
		Content: "hi", Type: "text",
	})
	require.ErrorIs(t, err, orchestrator.ErrSessionNotActive)
}

func TestEndSessionIdempotent(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "chat")

	ended, err := env.service.EndSession(context.Background(), session.ID, "resolved")
	require.NoError(t, err)
	require.True(t, ended)

	stored := env.repo.sessions[session.ID]
	require.Equal(t, entity.SessionStatusEnded, stored.Status)
	require.Equal(t, "resolved", stored.EndReason)
	require.NotNil(t, stored.EndedAt)

	live, _ := env.store.GetSession(context.Background(), session.ID)
	require.Nil(t, live, "ended session leaves the registry")

	// Second end is a no-op, not an error.
	ended, err = env.service.EndSession(context.Background(), session.ID, "again")
	require.NoError(t, err)
	require.False(t, ended)
	require.Len(t, env.repo.closedIDs, 1)
}

func TestGetSessionRecoversFromDatabase(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "chat")

	// Simulate a restart: the registry lost the session but the row remains.
	require.NoError(t, env.store.RemoveSession(context.Background(), session.ID))

	got, err := env.service.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	require.Equal(t, session.ID, got.ID)

	live, _ := env.store.GetSession(context.Background(), session.ID)
	require.NotNil(t, live, "open session is re-registered on read")
}

func TestGetActiveSessionsFiltersTenantAndStatus(t *testing.T) {
	env := newTestEnv(t)
	a := env.startSession(t, "chat")
	b := env.startSession(t, "chat")

	// Pause one of them.
	live, _ := env.store.GetSession(context.Background(), b.ID)
	live.Status = entity.SessionStatusPaused
	require.NoError(t, env.store.PutSession(context.Background(), live))

	active, err := env.service.GetActiveSessions(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, a.ID, active[0].ID)

	other, err := env.service.GetActiveSessions(context.Background(), "someone-else")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestProcessQueuedCommands(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "chat")
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	require.NoError(t, env.store.Enqueue(ctx, session.ID, entity.Command{
		ID: "cmd-1", SessionID: session.ID,
		Type: entity.CommandCreateTask, Priority: entity.CommandPriorityMedium,
		Payload: map[string]interface{}{"title": "Follow up", "category": "support"},
	}))
	require.NoError(t, env.store.Enqueue(ctx, session.ID, entity.Command{
		ID: "cmd-2", SessionID: session.ID,
		Type: entity.CommandScheduleCallback, Priority: entity.CommandPriorityLow,
		ScheduledAt: &future,
	}))

	result, err := env.service.ProcessQueuedCommands(ctx, session.ID)
	require.NoError(t, err)

	require.Len(t, result.Executed, 1)
	require.Equal(t, "cmd-1", result.Executed[0].ID)
	require.True(t, result.Executed[0].Success)
	require.Equal(t, 1, result.Remaining)

	require.Len(t, env.repo.tasks, 1)
	require.Equal(t, "Follow up", env.repo.tasks[0].Title)
	require.Empty(t, env.repo.callbacks)
}

func TestProcessQueuedCommandsUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.ProcessQueuedCommands(context.Background(), "missing")
	require.ErrorIs(t, err, orchestrator.ErrSessionNotFound)
}

func TestDrainAllQueues(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "chat")
	ctx := context.Background()

	require.NoError(t, env.store.Enqueue(ctx, session.ID, entity.Command{
		ID: "cmd-1", SessionID: session.ID,
		Type: entity.CommandCreateTask, Priority: entity.CommandPriorityMedium,
		Payload: map[string]interface{}{"title": "T"},
	}))

	require.NoError(t, env.service.DrainAllQueues(ctx))

	require.Len(t, env.repo.tasks, 1)
	remaining, _ := env.store.QueuedCount(ctx, session.ID)
	require.Zero(t, remaining)
}

func TestGetMetrics(t *testing.T) {
	env := newTestEnv(t)
	session := env.startSession(t, "chat")

	_, err := env.service.ProcessMessage(context.Background(), session.ID, orchestrator.ProcessMessageRequest{
		Content: "hi", Type: "text",
	})
	require.NoError(t, err)

	_, err = env.service.EndSession(context.Background(), session.ID, "done")
	require.NoError(t, err)

	metrics, err := env.service.GetMetrics(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(1), metrics.SessionsStarted)
	require.Equal(t, int64(1), metrics.SessionsEnded)
	require.Equal(t, int64(1), metrics.MessagesProcessed)
	require.Equal(t, 0, metrics.ActiveSessions)
	require.Equal(t, int64(1), metrics.CommandsExecuted[string(entity.CommandTextResponse)])
}
