package teamService

import (
	"MayaCRM/internal/entity"
	contextPkg "MayaCRM/pkg/context"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// AutoAssign picks the least loaded available agent for the tenant,
// bumps its load and records the handoff against the conversation.
func (s *teamService) AutoAssign(ctx context.Context, userID, conversationID, sessionID, specialization string) (*Assignment, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.repo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to start assignment transaction")
		return nil, err
	}
	defer repo.Rollback()

	agent, err := repo.Agents.GetAvailableAgent(ctx, userID, specialization)
	if err != nil {
		return nil, err
	}

	if err := repo.Agents.IncrementAgentLoad(ctx, agent.ID); err != nil {
		return nil, err
	}

	assignmentID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return nil, err
	}

	if err := repo.Agents.CreateAssignment(ctx, entity.AgentAssignment{
		ID:             assignmentID,
		AgentID:        agent.ID,
		ConversationID: conversationID,
		SessionID:      sessionID,
		AssignedAt:     time.Now(),
	}); err != nil {
		return nil, err
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit assignment transaction")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id":      requestID,
		"agent_id":        agent.ID,
		"conversation_id": conversationID,
	}).Info("Conversation assigned to agent")

	return &Assignment{
		AgentID:   agent.ID,
		AgentName: agent.Name,
	}, nil
}
