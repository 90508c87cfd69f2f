package teamService

import (
	teamRepository "MayaCRM/internal/api/team/repository"
	"MayaCRM/pkg/utils"
	"context"

	"github.com/sirupsen/logrus"
)

type Assignment struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

type ITeamService interface {
	AutoAssign(ctx context.Context, userID, conversationID, sessionID, specialization string) (*Assignment, error)
}

type teamService struct {
	log   *logrus.Logger
	repo  teamRepository.Repository
	utils utils.IUtils
}

func NewTeamService(log *logrus.Logger, repo teamRepository.Repository, utils utils.IUtils) ITeamService {
	return &teamService{
		log:   log,
		repo:  repo,
		utils: utils,
	}
}
