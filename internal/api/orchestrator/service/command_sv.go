package orchestratorService

import (
	"MayaCRM/internal/api/orchestrator"
	"MayaCRM/internal/entity"
	"MayaCRM/pkg/classifier"
	contextPkg "MayaCRM/pkg/context"
	"MayaCRM/pkg/voice"
	"MayaCRM/pkg/whatsapp"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// taskIntents are the intents that always leave a follow-up task behind.
var taskIntents = map[string]bool{
	classifier.IntentOrderInquiry:   true,
	classifier.IntentShippingIssue:  true,
	classifier.IntentProductSupport: true,
}

const callbackUrgency = 6

// generateCommands turns one classified message into the side effects it
// requires. Delivery commands are high priority and run inside the request;
// CRM follow-ups are medium priority and wait in the queue.
func (s *orchestratorService) generateCommands(
	session *entity.Session,
	classification *classifier.Result,
	strategy orchestrator.Strategy,
	replyText string,
	speech *voice.SpeechResult,
) []entity.Command {
	var commands []entity.Command
	now := time.Now()

	if speech != nil {
		commands = append(commands, s.newCommand(session.ID, entity.CommandVoiceResponse, entity.CommandPriorityHigh, map[string]interface{}{
			"audio_url": speech.AudioURL,
			"duration":  speech.Duration,
			"text":      replyText,
		}, nil))
	}

	if strategy.WantsText() || (strategy.WantsVoice() && speech == nil) {
		commands = append(commands, s.newCommand(session.ID, entity.CommandTextResponse, entity.CommandPriorityHigh, map[string]interface{}{
			"content": replyText,
		}, nil))
	}

	if strategy == orchestrator.StrategyEscalate {
		reason := "complaint"
		if classification.UrgencyScore >= orchestrator.EscalationUrgency {
			reason = "high_urgency"
		}
		commands = append(commands, s.newCommand(session.ID, entity.CommandTransferAgent, entity.CommandPriorityHigh, map[string]interface{}{
			"reason":        reason,
			"urgency_score": classification.UrgencyScore,
			"intent":        classification.Intent,
			"category":      classification.Category,
		}, nil))
	}

	if taskIntents[classification.Intent] {
		commands = append(commands, s.newCommand(session.ID, entity.CommandCreateTask, entity.CommandPriorityMedium, map[string]interface{}{
			"title":       fmt.Sprintf("Follow up %s from %s", classification.Intent, session.CustomerName),
			"description": fmt.Sprintf("Customer %s (%s) raised a %s during session %s.", session.CustomerName, session.CustomerPhone, classification.Intent, session.ID),
			"category":    classification.Category,
			"due_at":      now.Add(24 * time.Hour).Format(time.RFC3339),
		}, nil))
	}

	if classification.UrgencyScore >= callbackUrgency && classification.Category == classifier.CategorySupport {
		commands = append(commands, s.newCommand(session.ID, entity.CommandScheduleCallback, entity.CommandPriorityMedium, map[string]interface{}{
			"reason":       fmt.Sprintf("Urgent %s issue (urgency %d)", classification.Category, classification.UrgencyScore),
			"scheduled_at": nextBusinessHour(now).Format(time.RFC3339),
		}, nil))
	}

	return commands
}

func (s *orchestratorService) newCommand(sessionID string, cmdType entity.CommandType, priority entity.CommandPriority, payload map[string]interface{}, scheduledAt *time.Time) entity.Command {
	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		id = uuid.NewString()
	}

	return entity.Command{
		ID:          id,
		SessionID:   sessionID,
		Type:        cmdType,
		Priority:    priority,
		Payload:     payload,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now(),
	}
}

// executeCommand runs one command and reports whether it succeeded. Failures
// are logged and counted, never propagated: one bad command must not take the
// message or the drain down with it.
func (s *orchestratorService) executeCommand(ctx context.Context, session *entity.Session, cmd entity.Command) bool {
	requestID := contextPkg.GetRequestID(ctx)

	var err error
	switch cmd.Type {
	case entity.CommandTextResponse:
		err = s.deliverText(ctx, session, payloadString(cmd.Payload, "content"))
	case entity.CommandVoiceResponse:
		err = s.deliverVoice(ctx, session, cmd.Payload)
	case entity.CommandTransferAgent:
		err = s.transferToAgent(ctx, session, cmd.Payload)
	case entity.CommandCreateTask:
		err = s.createTask(ctx, session, cmd.Payload)
	case entity.CommandScheduleCallback:
		err = s.scheduleCallback(ctx, session, cmd.Payload)
	case entity.CommandEndSession:
		_, err = s.endSessionLocked(ctx, session.ID, payloadString(cmd.Payload, "reason"))
	default:
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"command":    string(cmd.Type),
		}).Warn("Unknown command type")
		s.metrics.commandsFailed.Add(1)
		return false
	}

	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"command":    string(cmd.Type),
			"error":      err.Error(),
		}).Error("Command execution failed")
		s.metrics.commandsFailed.Add(1)
		return false
	}

	s.metrics.recordExecuted(cmd.Type)
	return true
}

func (s *orchestratorService) deliverText(ctx context.Context, session *entity.Session, content string) error {
	if session.ConversationID == "" {
		return orchestrator.ErrMissingConversation
	}

	return s.sender.Send(ctx, whatsapp.OutboundMessage{
		ConversationID: session.ConversationID,
		To:             session.CustomerPhone,
		Content:        content,
	})
}

func (s *orchestratorService) deliverVoice(ctx context.Context, session *entity.Session, payload map[string]interface{}) error {
	if session.ConversationID == "" {
		return orchestrator.ErrMissingConversation
	}

	return s.sender.Send(ctx, whatsapp.OutboundMessage{
		ConversationID: session.ConversationID,
		To:             session.CustomerPhone,
		Content:        payloadString(payload, "audio_url"),
	})
}

// transferToAgent hands the conversation to a human and pauses the session so
// the assistant stops answering while the agent owns it.
func (s *orchestratorService) transferToAgent(ctx context.Context, session *entity.Session, payload map[string]interface{}) error {
	assignment, err := s.team.AutoAssign(ctx, session.UserID, session.ConversationID, session.ID, payloadString(payload, "category"))
	if err != nil {
		return err
	}

	if err := s.deliverText(ctx, session, agentConnectedMessage(session, assignment.AgentName)); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": session.ID,
			"error":      err.Error(),
		}).Warn("Failed to notify customer of agent assignment")
	}

	if session.Status.CanTransitionTo(entity.SessionStatusPaused) {
		repo, err := s.repo.NewClient(false)
		if err != nil {
			return err
		}
		if err := repo.Sessions.UpdateSessionStatus(ctx, session.ID, entity.SessionStatusPaused); err != nil {
			return err
		}

		session.Status = entity.SessionStatusPaused
		session.Context["assigned_agent_id"] = assignment.AgentID
		session.Context["assigned_agent_name"] = assignment.AgentName
		if err := s.registry.PutSession(ctx, session); err != nil {
			return err
		}
	}

	return nil
}

func (s *orchestratorService) createTask(ctx context.Context, session *entity.Session, payload map[string]interface{}) error {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return err
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return err
	}

	now := time.Now()
	dueAt := now.Add(24 * time.Hour)
	if raw := payloadString(payload, "due_at"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			dueAt = parsed
		}
	}

	return repo.Tasks.CreateTask(ctx, entity.Task{
		ID:          id,
		UserID:      session.UserID,
		CustomerID:  session.CustomerID,
		SessionID:   session.ID,
		Title:       payloadString(payload, "title"),
		Description: payloadString(payload, "description"),
		Category:    payloadString(payload, "category"),
		Status:      "pending",
		DueAt:       dueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *orchestratorService) scheduleCallback(ctx context.Context, session *entity.Session, payload map[string]interface{}) error {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return err
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return err
	}

	now := time.Now()
	scheduledAt := nextBusinessHour(now)
	if raw := payloadString(payload, "scheduled_at"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			scheduledAt = parsed
		}
	}

	if err := repo.Callbacks.CreateCallback(ctx, entity.Callback{
		ID:            id,
		UserID:        session.UserID,
		CustomerID:    session.CustomerID,
		SessionID:     session.ID,
		CustomerPhone: session.CustomerPhone,
		Reason:        payloadString(payload, "reason"),
		Status:        "scheduled",
		ScheduledAt:   scheduledAt,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	if notifyEmail := os.Getenv("CALLBACK_NOTIFY_EMAIL"); notifyEmail != "" {
		if err := s.mailer.SendCallbackNotification(notifyEmail, session.CustomerName, session.CustomerPhone, scheduledAt); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"session_id": session.ID,
				"error":      err.Error(),
			}).Warn("Failed to send callback notification mail")
		}
	}

	return nil
}

// ProcessQueuedCommands drains every due command for one session in insertion
// order. Commands scheduled in the future stay queued.
func (s *orchestratorService) ProcessQueuedCommands(ctx context.Context, sessionID string) (*orchestrator.DrainQueueResult, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.registry.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, orchestrator.ErrSessionNotFound
	}

	due, err := s.registry.DequeueDue(ctx, sessionID, time.Now())
	if err != nil {
		return nil, err
	}

	executed := make([]orchestrator.CommandResult, 0, len(due))
	for _, cmd := range due {
		success := s.executeCommand(ctx, session, cmd)
		executed = append(executed, orchestrator.CommandResult{
			ID:       cmd.ID,
			Type:     cmd.Type,
			Priority: cmd.Priority,
			Success:  success,
		})
	}

	remaining, err := s.registry.QueuedCount(ctx, sessionID)
	if err != nil {
		remaining = 0
	}

	return &orchestrator.DrainQueueResult{
		SessionID: sessionID,
		Executed:  executed,
		Remaining: remaining,
	}, nil
}

// DrainAllQueues runs one drain pass over every registered session. The
// server calls it on a timer.
func (s *orchestratorService) DrainAllQueues(ctx context.Context) error {
	sessions, err := s.registry.AllSessions(ctx)
	if err != nil {
		return err
	}

	for _, session := range sessions {
		pending, err := s.registry.QueuedCount(ctx, session.ID)
		if err != nil || pending == 0 {
			continue
		}

		if _, err := s.ProcessQueuedCommands(ctx, session.ID); err != nil {
			s.log.WithFields(logrus.Fields{
				"session_id": session.ID,
				"error":      err.Error(),
			}).Warn("Queue drain failed for session")
		}
	}

	return nil
}

// nextBusinessHour returns the earliest slot at least an hour away that falls
// on a weekday between 09:00 and 17:00.
func nextBusinessHour(now time.Time) time.Time {
	t := now.Add(time.Hour)
	for {
		switch {
		case t.Weekday() == time.Saturday || t.Weekday() == time.Sunday:
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 9, 0, 0, 0, t.Location())
		case t.Hour() < 9:
			t = time.Date(t.Year(), t.Month(), t.Day(), 9, 0, 0, 0, t.Location())
		case t.Hour() >= 17:
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 9, 0, 0, 0, t.Location())
		default:
			return t
		}
	}
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	val, _ := payload[key].(string)
	return val
}
