package orchestratorService

import (
	"MayaCRM/internal/api/orchestrator"
	"MayaCRM/internal/entity"
	"MayaCRM/pkg/classifier"
	contextPkg "MayaCRM/pkg/context"
	"MayaCRM/pkg/voice"
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const fallbackReply = "I apologize, but I'm having trouble processing your request right now. Let me connect you with a human agent."

func (s *orchestratorService) ProcessMessage(ctx context.Context, sessionID string, req orchestrator.ProcessMessageRequest) (*orchestrator.ProcessMessageResult, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	requestID := contextPkg.GetRequestID(ctx)

	session, err := s.registry.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, orchestrator.ErrSessionNotFound
	}

	switch session.Status {
	case entity.SessionStatusActive:
	case entity.SessionStatusEnded:
		return nil, orchestrator.ErrSessionEnded
	default:
		return nil, orchestrator.ErrSessionNotActive
	}

	classification, err := s.classifier.Classify(ctx, req.Content, classifier.Hint{
		ConversationID: session.ConversationID,
		Language:       session.Language,
	})
	if err != nil {
		s.metrics.failedMessages.Add(1)
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Message classification failed")
		return nil, orchestrator.ErrClassification
	}

	strategy := orchestrator.ResolveStrategy(classification, session.Mode)

	replyText, err := s.generateReply(ctx, session, classification, strategy, req.Content)
	if err != nil {
		// Degrade to a canned handoff instead of dropping the message.
		s.metrics.failedMessages.Add(1)
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Reply generation failed, escalating")
		replyText = fallbackReply
		strategy = orchestrator.StrategyEscalate
	}

	var speech *voice.SpeechResult
	if strategy.WantsVoice() {
		speech, err = s.synthesizer.Speak(ctx, replyText, session.VoiceConfig)
		if err != nil || speech == nil || !speech.Success {
			// Voice synthesis failing falls back to text delivery.
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"session_id": sessionID,
					"error":      err.Error(),
				}).Warn("Voice synthesis failed, falling back to text")
			}
			speech = nil
		}
	}

	commands := s.generateCommands(session, classification, strategy, replyText, speech)
	s.metrics.commandsGenerated.Add(int64(len(commands)))

	session.MessageCount++
	if req.Type == "voice" {
		session.VoiceMessageCount++
	}
	if req.Type == "voice" || speech != nil {
		s.metrics.voiceMessages.Add(1)
	}

	results := make([]orchestrator.CommandResult, 0, len(commands))
	for _, cmd := range commands {
		if cmd.Priority == entity.CommandPriorityHigh {
			success := s.executeCommand(ctx, session, cmd)
			results = append(results, orchestrator.CommandResult{
				ID:       cmd.ID,
				Type:     cmd.Type,
				Priority: cmd.Priority,
				Success:  success,
			})
			continue
		}

		if err := s.registry.Enqueue(ctx, sessionID, cmd); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
				"command":    string(cmd.Type),
				"error":      err.Error(),
			}).Error("Failed to enqueue command")
		}
	}

	if err := s.registry.PutSession(ctx, session); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to update session state")
	}
	s.persistCounters(ctx, session)

	s.metrics.messagesProcessed.Add(1)

	return &orchestrator.ProcessMessageResult{
		Success:   true,
		SessionID: sessionID,
		Strategy:  strategy,
		Classification: &entity.Classification{
			Intent:       classification.Intent,
			Sentiment:    classification.Sentiment,
			UrgencyScore: classification.UrgencyScore,
			Category:     classification.Category,
			Confidence:   classification.Confidence,
		},
		Response: &orchestrator.MessageResponse{
			Text:  replyText,
			Voice: speech,
		},
		Commands: results,
	}, nil
}

// generateReply produces the assistant's answer. Escalations always carry the
// handoff text so the customer knows a human is coming, whatever the session
// mode is.
func (s *orchestratorService) generateReply(ctx context.Context, session *entity.Session, classification *classifier.Result, strategy orchestrator.Strategy, content string) (string, error) {
	if strategy == orchestrator.StrategyEscalate {
		return handoffMessage(session), nil
	}

	return s.chatGPT.GenerateReply(ctx, buildSystemPrompt(session, classification), content)
}

func (s *orchestratorService) persistCounters(ctx context.Context, session *entity.Session) {
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return
	}

	if err := repo.Sessions.UpdateSessionCounters(ctx, session.ID, session.MessageCount, session.VoiceMessageCount); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": session.ID,
			"error":      err.Error(),
		}).Warn("Failed to persist session counters")
	}
}

func buildSystemPrompt(session *entity.Session, classification *classifier.Result) string {
	var b strings.Builder

	b.WriteString("You are a helpful customer service assistant for an Indonesian commerce business.\n")
	fmt.Fprintf(&b, "Customer: %s (%s)\n", session.CustomerName, session.CustomerPhone)
	fmt.Fprintf(&b, "Respond in language: %s\n", session.Language)
	fmt.Fprintf(&b, "Session mode: %s, messages so far: %d\n", session.Mode, session.MessageCount)
	fmt.Fprintf(&b, "Detected intent: %s, sentiment: %s, urgency: %d/10, category: %s\n",
		classification.Intent, classification.Sentiment, classification.UrgencyScore, classification.Category)
	b.WriteString("Keep replies short, polite and concrete. Never invent order data.")

	return b.String()
}

func handoffMessage(session *entity.Session) string {
	if session.Language == "id" {
		return "Mohon tunggu sebentar, kami sedang menghubungkan Anda dengan salah satu agen kami."
	}
	return "Please hold on while we connect you with one of our agents."
}
