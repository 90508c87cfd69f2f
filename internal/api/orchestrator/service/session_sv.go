package orchestratorService

import (
	"MayaCRM/internal/api/orchestrator"
	"MayaCRM/internal/entity"
	contextPkg "MayaCRM/pkg/context"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultVoiceProvider   = "elevenlabs"
	defaultVoiceSpeed      = 1.0
	defaultVoicePitch      = 1.0
	defaultVoiceStability  = 0.5
	defaultVoiceSimilarity = 0.75
	defaultLanguage        = "id"
)

func (s *orchestratorService) InitializeSession(ctx context.Context, userID string, req orchestrator.CreateSessionRequest) (*entity.Session, error) {
	requestID := contextPkg.GetRequestID(ctx)

	mode := entity.SessionMode(req.Mode)
	if !mode.Valid() {
		return nil, orchestrator.ErrInvalidMode
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	customer, err := repo.Customers.GetCustomerByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	language := customer.Language
	if language == "" {
		language = defaultLanguage
	}

	phone := req.CustomerPhone
	if phone == "" {
		phone = customer.Phone
	}
	phone = s.utils.NormalizePhoneNumber(phone)

	sessionID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return nil, err
	}

	session := &entity.Session{
		ID:             sessionID,
		UserID:         userID,
		ConversationID: req.ConversationID,
		CustomerID:     customer.ID,
		CustomerName:   customer.Name,
		CustomerPhone:  phone,
		Mode:           mode,
		Status:         entity.SessionStatusActive,
		Language:       language,
		VoiceConfig:    buildVoiceConfig(language, req.VoiceOverrides),
		Context:        map[string]interface{}{},
		StartedAt:      time.Now(),
	}

	if err := repo.Sessions.CreateSession(ctx, *session); err != nil {
		return nil, err
	}

	if err := s.registry.PutSession(ctx, session); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("Failed to register session")
		return nil, err
	}

	s.metrics.sessionsStarted.Add(1)
	s.sendGreeting(ctx, session, welcomeMessage(session))

	s.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"session_id":  session.ID,
		"customer_id": customer.ID,
		"mode":        string(mode),
	}).Info("Session initialized")

	return session, nil
}

func (s *orchestratorService) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	session, err := s.registry.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	// Not live, fall back to the system of record.
	repo, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	stored, err := repo.Sessions.GetSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Still open in the database but missing from the registry means the
	// process restarted; re-register so it keeps being orchestrated.
	if stored.Status != entity.SessionStatusEnded {
		if err := s.registry.PutSession(ctx, &stored); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": contextPkg.GetRequestID(ctx),
				"session_id": id,
				"error":      err.Error(),
			}).Warn("Failed to re-register recovered session")
		}
	}

	return &stored, nil
}

func (s *orchestratorService) GetActiveSessions(ctx context.Context, userID string) ([]*entity.Session, error) {
	sessions, err := s.registry.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := make([]*entity.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.Status == entity.SessionStatusActive {
			active = append(active, session)
		}
	}
	return active, nil
}

// EndSession is idempotent: ending a session that is not registered returns
// false without error.
func (s *orchestratorService) EndSession(ctx context.Context, id, reason string) (bool, error) {
	unlock := s.lockSession(id)
	defer unlock()

	return s.endSessionLocked(ctx, id, reason)
}

func (s *orchestratorService) endSessionLocked(ctx context.Context, id, reason string) (bool, error) {
	requestID := contextPkg.GetRequestID(ctx)

	session, err := s.registry.GetSession(ctx, id)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}

	if !session.Status.CanTransitionTo(entity.SessionStatusEnded) {
		return false, orchestrator.ErrInvalidTransition
	}

	if reason == "" {
		reason = "completed"
	}

	endedAt := time.Now()
	duration := int64(endedAt.Sub(session.StartedAt).Seconds())

	s.sendGreeting(ctx, session, farewellMessage(session))

	repo, err := s.repo.NewClient(false)
	if err != nil {
		return false, err
	}

	if err := repo.Sessions.CloseSession(ctx, id, endedAt, duration, reason); err != nil {
		return false, err
	}

	if err := s.registry.RemoveSession(ctx, id); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": id,
			"error":      err.Error(),
		}).Error("Failed to deregister session")
		return false, err
	}

	s.metrics.sessionsEnded.Add(1)
	s.metrics.totalDurationSec.Add(duration)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": id,
		"reason":     reason,
		"duration":   duration,
	}).Info("Session ended")

	return true, nil
}

// sendGreeting delivers a service message on the session's channels: voice and
// hybrid sessions get it spoken, chat and hybrid sessions get it as text.
// Delivery is best effort, a failure never fails the lifecycle operation.
func (s *orchestratorService) sendGreeting(ctx context.Context, session *entity.Session, content string) {
	if session.ConversationID == "" || session.CustomerPhone == "" {
		return
	}

	requestID := contextPkg.GetRequestID(ctx)

	if session.Mode == entity.SessionModeVoice || session.Mode == entity.SessionModeHybrid {
		speech, err := s.synthesizer.Speak(ctx, content, session.VoiceConfig)
		if err != nil || speech == nil || !speech.Success {
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"session_id": session.ID,
					"error":      err.Error(),
				}).Warn("Failed to synthesize service message")
			}
		} else if err := s.deliverVoice(ctx, session, map[string]interface{}{"audio_url": speech.AudioURL}); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": session.ID,
				"error":      err.Error(),
			}).Warn("Failed to deliver voice service message")
		}
	}

	if session.Mode == entity.SessionModeChat || session.Mode == entity.SessionModeHybrid {
		if err := s.deliverText(ctx, session, content); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": session.ID,
				"error":      err.Error(),
			}).Warn("Failed to deliver service message")
		}
	}
}

func buildVoiceConfig(language string, overrides *orchestrator.VoiceConfigOverride) entity.VoiceConfig {
	config := entity.VoiceConfig{
		Provider:   defaultVoiceProvider,
		Language:   language,
		Speed:      defaultVoiceSpeed,
		Pitch:      defaultVoicePitch,
		Stability:  defaultVoiceStability,
		Similarity: defaultVoiceSimilarity,
	}

	if overrides == nil {
		return config
	}

	if overrides.Provider != nil {
		config.Provider = *overrides.Provider
	}
	if overrides.Speed != nil {
		config.Speed = *overrides.Speed
	}
	if overrides.Pitch != nil {
		config.Pitch = *overrides.Pitch
	}
	if overrides.Stability != nil {
		config.Stability = *overrides.Stability
	}
	if overrides.Similarity != nil {
		config.Similarity = *overrides.Similarity
	}

	return config
}

func welcomeMessage(session *entity.Session) string {
	if session.Language == "id" {
		return fmt.Sprintf("Halo %s! Ada yang bisa kami bantu hari ini?", session.CustomerName)
	}
	return fmt.Sprintf("Hello %s! How can we help you today?", session.CustomerName)
}

func agentConnectedMessage(session *entity.Session, agentName string) string {
	if session.Language == "id" {
		return fmt.Sprintf("Anda sekarang terhubung dengan %s yang akan membantu Anda lebih lanjut.", agentName)
	}
	return fmt.Sprintf("You are now connected with %s, who will assist you from here.", agentName)
}

func farewellMessage(session *entity.Session) string {
	if session.Language == "id" {
		return "Terima kasih sudah menghubungi kami. Sampai jumpa!"
	}
	return "Thank you for contacting us. Goodbye!"
}
