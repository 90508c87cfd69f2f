package orchestratorService

import (
	"MayaCRM/internal/api/orchestrator"
	"MayaCRM/internal/entity"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type sessionMetrics struct {
	sessionsStarted   atomic.Int64
	sessionsEnded     atomic.Int64
	messagesProcessed atomic.Int64
	voiceMessages     atomic.Int64
	failedMessages    atomic.Int64
	commandsGenerated atomic.Int64
	commandsFailed    atomic.Int64
	totalDurationSec  atomic.Int64

	mu               sync.Mutex
	commandsExecuted map[string]int64
}

func newSessionMetrics() *sessionMetrics {
	return &sessionMetrics{
		commandsExecuted: make(map[string]int64),
	}
}

func (m *sessionMetrics) recordExecuted(cmdType entity.CommandType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandsExecuted[string(cmdType)]++
}

func (m *sessionMetrics) executedSnapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]int64, len(m.commandsExecuted))
	for k, v := range m.commandsExecuted {
		snapshot[k] = v
	}
	return snapshot
}

func (s *orchestratorService) GetMetrics(ctx context.Context) (*orchestrator.SessionMetrics, error) {
	sessions, err := s.registry.AllSessions(ctx)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, session := range sessions {
		if session.Status == entity.SessionStatusActive {
			active++
		}
	}

	ended := s.metrics.sessionsEnded.Load()
	avgDuration := 0.0
	if ended > 0 {
		avgDuration = float64(s.metrics.totalDurationSec.Load()) / float64(ended)
	}

	return &orchestrator.SessionMetrics{
		ActiveSessions:    active,
		SessionsStarted:   s.metrics.sessionsStarted.Load(),
		SessionsEnded:     ended,
		MessagesProcessed: s.metrics.messagesProcessed.Load(),
		VoiceMessages:     s.metrics.voiceMessages.Load(),
		FailedMessages:    s.metrics.failedMessages.Load(),
		CommandsGenerated: s.metrics.commandsGenerated.Load(),
		CommandsExecuted:  s.metrics.executedSnapshot(),
		CommandsFailed:    s.metrics.commandsFailed.Load(),
		AvgDurationSec:    avgDuration,
		CollectedAt:       time.Now(),
	}, nil
}
