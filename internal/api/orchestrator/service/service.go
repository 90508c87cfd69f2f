package orchestratorService

import (
	"MayaCRM/internal/api/orchestrator"
	orchestratorRepository "MayaCRM/internal/api/orchestrator/repository"
	teamService "MayaCRM/internal/api/team/service"
	"MayaCRM/internal/entity"
	"MayaCRM/pkg/classifier"
	"MayaCRM/pkg/openai"
	"MayaCRM/pkg/registry"
	"MayaCRM/pkg/smtp"
	"MayaCRM/pkg/utils"
	"MayaCRM/pkg/voice"
	"MayaCRM/pkg/whatsapp"
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type IOrchestratorService interface {
	InitializeSession(ctx context.Context, userID string, req orchestrator.CreateSessionRequest) (*entity.Session, error)
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	GetActiveSessions(ctx context.Context, userID string) ([]*entity.Session, error)
	EndSession(ctx context.Context, id, reason string) (bool, error)
	ProcessMessage(ctx context.Context, sessionID string, req orchestrator.ProcessMessageRequest) (*orchestrator.ProcessMessageResult, error)
	ProcessQueuedCommands(ctx context.Context, sessionID string) (*orchestrator.DrainQueueResult, error)
	DrainAllQueues(ctx context.Context) error
	GetMetrics(ctx context.Context) (*orchestrator.SessionMetrics, error)
}

type orchestratorService struct {
	log         *logrus.Logger
	repo        orchestratorRepository.Repository
	registry    registry.Store
	classifier  classifier.IClassifier
	chatGPT     openai.IChatGPT
	synthesizer voice.ISynthesizer
	sender      whatsapp.IWhatsappSender
	mailer      smtp.ItfSmtp
	team        teamService.ITeamService
	utils       utils.IUtils

	// sessionLocks serializes every state-changing operation on one
	// session so a drain and a message cannot interleave.
	sessionLocks sync.Map

	metrics *sessionMetrics
}

func NewOrchestratorService(
	log *logrus.Logger,
	repo orchestratorRepository.Repository,
	store registry.Store,
	classifierSvc classifier.IClassifier,
	chatGPT openai.IChatGPT,
	synthesizer voice.ISynthesizer,
	sender whatsapp.IWhatsappSender,
	mailer smtp.ItfSmtp,
	team teamService.ITeamService,
	utils utils.IUtils,
) IOrchestratorService {
	return &orchestratorService{
		log:         log,
		repo:        repo,
		registry:    store,
		classifier:  classifierSvc,
		chatGPT:     chatGPT,
		synthesizer: synthesizer,
		sender:      sender,
		mailer:      mailer,
		team:        team,
		utils:       utils,
		metrics:     newSessionMetrics(),
	}
}

// lockSession takes the per-session mutex and returns its unlock func.
func (s *orchestratorService) lockSession(id string) func() {
	v, _ := s.sessionLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
