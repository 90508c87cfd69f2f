package orchestratorService

import (
	"MayaCRM/internal/api/orchestrator"
	"MayaCRM/internal/entity"
	"MayaCRM/pkg/classifier"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) (*orchestratorService, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	svc, ok := env.service.(*orchestratorService)
	require.True(t, ok)
	return svc, env
}

func TestGenerateCommandsRules(t *testing.T) {
	svc, _ := testService(t)
	session := &entity.Session{ID: "s", UserID: "t", CustomerName: "Budi", CustomerPhone: "62812"}

	tests := []struct {
		name      string
		result    classifier.Result
		strategy  orchestrator.Strategy
		wantTypes []entity.CommandType
	}{
		{
			name:      "plain text reply",
			result:    classifier.Result{Intent: classifier.IntentGeneralQuery, UrgencyScore: 2, Category: classifier.CategoryGeneral},
			strategy:  orchestrator.StrategyTextOnly,
			wantTypes: []entity.CommandType{entity.CommandTextResponse},
		},
		{
			name:      "escalation adds transfer",
			result:    classifier.Result{Intent: classifier.IntentGeneralQuery, UrgencyScore: 9, Category: classifier.CategoryBilling},
			strategy:  orchestrator.StrategyEscalate,
			wantTypes: []entity.CommandType{entity.CommandTextResponse, entity.CommandTransferAgent},
		},
		{
			name:      "task intents leave a follow-up task",
			result:    classifier.Result{Intent: classifier.IntentOrderInquiry, UrgencyScore: 3, Category: classifier.CategorySales},
			strategy:  orchestrator.StrategyTextOnly,
			wantTypes: []entity.CommandType{entity.CommandTextResponse, entity.CommandCreateTask},
		},
		{
			name:      "urgent support gets a callback",
			result:    classifier.Result{Intent: classifier.IntentGeneralQuery, UrgencyScore: 6, Category: classifier.CategorySupport},
			strategy:  orchestrator.StrategyTextOnly,
			wantTypes: []entity.CommandType{entity.CommandTextResponse, entity.CommandScheduleCallback},
		},
		{
			name:      "urgent sales gets no callback",
			result:    classifier.Result{Intent: classifier.IntentPurchaseIntent, UrgencyScore: 7, Category: classifier.CategorySales},
			strategy:  orchestrator.StrategyTextOnly,
			wantTypes: []entity.CommandType{entity.CommandTextResponse},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commands := svc.generateCommands(session, &tt.result, tt.strategy, "reply", nil)

			var types []entity.CommandType
			for _, cmd := range commands {
				types = append(types, cmd.Type)
				require.Equal(t, "s", cmd.SessionID)
				require.NotEmpty(t, cmd.ID)
			}
			require.Equal(t, tt.wantTypes, types)
		})
	}
}

func TestGenerateCommandsPriorities(t *testing.T) {
	svc, _ := testService(t)
	session := &entity.Session{ID: "s", UserID: "t"}
	result := classifier.Result{Intent: classifier.IntentShippingIssue, UrgencyScore: 9, Category: classifier.CategorySupport}

	commands := svc.generateCommands(session, &result, orchestrator.StrategyEscalate, "reply", nil)

	byType := map[entity.CommandType]entity.CommandPriority{}
	for _, cmd := range commands {
		byType[cmd.Type] = cmd.Priority
	}

	require.Equal(t, entity.CommandPriorityHigh, byType[entity.CommandTextResponse])
	require.Equal(t, entity.CommandPriorityHigh, byType[entity.CommandTransferAgent])
	require.Equal(t, entity.CommandPriorityMedium, byType[entity.CommandCreateTask])
	require.Equal(t, entity.CommandPriorityMedium, byType[entity.CommandScheduleCallback])
}

func TestExecuteCommandTextWithoutConversation(t *testing.T) {
	svc, env := testService(t)
	session := &entity.Session{ID: "s", UserID: "t", Status: entity.SessionStatusActive}

	cmd := svc.newCommand("s", entity.CommandTextResponse, entity.CommandPriorityHigh, map[string]interface{}{
		"content": "hi",
	}, nil)

	require.False(t, svc.executeCommand(context.Background(), session, cmd))
	require.Empty(t, env.sender.sent)
}

func TestExecuteCommandUnknownType(t *testing.T) {
	svc, _ := testService(t)
	session := &entity.Session{ID: "s", UserID: "t"}

	cmd := svc.newCommand("s", entity.CommandType("launch_rocket"), entity.CommandPriorityHigh, nil, nil)
	require.False(t, svc.executeCommand(context.Background(), session, cmd))
}

func TestExecuteCommandScheduleCallback(t *testing.T) {
	svc, env := testService(t)
	session := &entity.Session{
		ID: "s", UserID: "t", CustomerID: "cust-1",
		CustomerName: "Budi", CustomerPhone: "62812",
		Status: entity.SessionStatusActive,
	}

	when := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	cmd := svc.newCommand("s", entity.CommandScheduleCallback, entity.CommandPriorityMedium, map[string]interface{}{
		"reason":       "urgent support issue",
		"scheduled_at": when.Format(time.RFC3339),
	}, nil)

	require.True(t, svc.executeCommand(context.Background(), session, cmd))
	require.Len(t, env.repo.callbacks, 1)
	require.Equal(t, "urgent support issue", env.repo.callbacks[0].Reason)
	require.True(t, when.Equal(env.repo.callbacks[0].ScheduledAt))
	require.Equal(t, "scheduled", env.repo.callbacks[0].Status)
}

func TestExecuteCommandEndSession(t *testing.T) {
	svc, env := testService(t)
	session := env.startSession(t, "chat")

	cmd := svc.newCommand(session.ID, entity.CommandEndSession, entity.CommandPriorityHigh, map[string]interface{}{
		"reason": "customer done",
	}, nil)

	require.True(t, svc.executeCommand(context.Background(), session, cmd))
	require.Equal(t, entity.SessionStatusEnded, env.repo.sessions[session.ID].Status)
	require.Equal(t, "customer done", env.repo.sessions[session.ID].EndReason)
}

func TestNextBusinessHour(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "mid business day moves one hour",
			now:  time.Date(2026, 9, 2, 10, 30, 0, 0, jakarta), // Wednesday
			want: time.Date(2026, 9, 2, 11, 30, 0, 0, jakarta),
		},
		{
			name: "early morning waits for opening",
			now:  time.Date(2026, 9, 2, 6, 0, 0, 0, jakarta),
			want: time.Date(2026, 9, 2, 9, 0, 0, 0, jakarta),
		},
		{
			name: "evening rolls to next morning",
			now:  time.Date(2026, 9, 2, 20, 0, 0, 0, jakarta),
			want: time.Date(2026, 9, 3, 9, 0, 0, 0, jakarta),
		},
		{
			name: "friday evening rolls past the weekend",
			now:  time.Date(2026, 9, 4, 19, 0, 0, 0, jakarta), // Friday
			want: time.Date(2026, 9, 7, 9, 0, 0, 0, jakarta),  // Monday
		},
		{
			name: "saturday waits for monday",
			now:  time.Date(2026, 9, 5, 12, 0, 0, 0, jakarta),
			want: time.Date(2026, 9, 7, 9, 0, 0, 0, jakarta),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextBusinessHour(tt.now)
			if !got.Equal(tt.want) {
				t.Errorf("nextBusinessHour(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
