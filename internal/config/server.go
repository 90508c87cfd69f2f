package config

import (
	"MayaCRM/database/postgres"
	orchestratorHandler "MayaCRM/internal/api/orchestrator/handler"
	orchestratorRepository "MayaCRM/internal/api/orchestrator/repository"
	orchestratorService "MayaCRM/internal/api/orchestrator/service"
	teamRepository "MayaCRM/internal/api/team/repository"
	teamService "MayaCRM/internal/api/team/service"
	"MayaCRM/internal/middleware"
	"MayaCRM/pkg/classifier"
	"MayaCRM/pkg/openai"
	redisPkg "MayaCRM/pkg/redis"
	"MayaCRM/pkg/registry"
	"MayaCRM/pkg/s3"
	"MayaCRM/pkg/smtp"
	"MayaCRM/pkg/utils"
	"MayaCRM/pkg/voice"
	"MayaCRM/pkg/whatsapp"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const defaultDrainInterval = 30 * time.Second

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	handlers       []handler
	registryStore  registry.Store
	classifier     classifier.IClassifier
	chatGPT        openai.IChatGPT
	synthesizer    voice.ISynthesizer
	whatsappClient whatsapp.IWhatsappSender
	smtpMailer     smtp.ItfSmtp
	s3Client       s3.ItfS3

	orchestrator orchestratorService.IOrchestratorService
	drainStop    chan struct{}
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{
		drainStop: make(chan struct{}),
	}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

// WithRegistryStore picks the session registry driver. REGISTRY_DRIVER=redis
// shares live sessions and queues across instances; anything else keeps them
// in process memory.
func WithRegistryStore() ServerOption {
	return func(s *Server) error {
		var store registry.Store
		var err error

		if os.Getenv("REGISTRY_DRIVER") == "redis" {
			store, err = registry.NewStore(registry.StoreTypeRedis,
				registry.WithRedisClient(redisPkg.NewClient()),
				registry.WithRedisTTL(24*time.Hour),
			)
		} else {
			store, err = registry.NewStore(registry.StoreTypeMemory)
		}

		if err != nil {
			return fmt.Errorf("failed to create registry store: %w", err)
		}
		s.registryStore = store
		return nil
	}
}

func WithClassifier() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before classifier")
		}
		c, err := classifier.New(s.log)
		if err != nil {
			return fmt.Errorf("failed to create classifier: %w", err)
		}
		s.classifier = c
		return nil
	}
}

func WithChatGPT() ServerOption {
	return func(s *Server) error {
		s.chatGPT = openai.NewChatGPT()
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithSynthesizer() ServerOption {
	return func(s *Server) error {
		if s.s3Client == nil {
			return fmt.Errorf("s3 client must be initialized before synthesizer")
		}
		s.synthesizer = voice.NewTTSService(s.s3Client, s.log)
		return nil
	}
}

func WithWhatsappClient() ServerOption {
	return func(s *Server) error {
		client, err := whatsapp.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize WhatsApp client: %v", err)
			}
			return fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		s.whatsappClient = client
		return nil
	}
}

func WithSMTPMailer(smtpMailer smtp.ItfSmtp) ServerOption {
	return func(s *Server) error {
		s.smtpMailer = smtpMailer
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Team Domain
	teamRepo := teamRepository.New(s.db, s.log)
	teamServices := teamService.NewTeamService(s.log, teamRepo, s.utils)

	// Orchestrator Domain
	orchestratorRepo := orchestratorRepository.New(s.db, s.log)
	orchestratorServices := orchestratorService.NewOrchestratorService(
		s.log,
		orchestratorRepo,
		s.registryStore,
		s.classifier,
		s.chatGPT,
		s.synthesizer,
		s.whatsappClient,
		s.smtpMailer,
		teamServices,
		s.utils,
	)
	orchestratorHandlers := orchestratorHandler.New(s.log, s.validator, s.middleware, orchestratorServices)

	s.orchestrator = orchestratorServices

	s.setupHealthCheck()
	s.handlers = append(s.handlers, orchestratorHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	s.startQueueDrainer()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		s.Stop()
		return err
	}

	return nil
}

// startQueueDrainer runs a drain pass over every session's command queue on a
// fixed interval so medium and low priority commands get executed even when
// no request touches the session.
func (s *Server) startQueueDrainer() {
	interval := defaultDrainInterval
	if raw := os.Getenv("QUEUE_DRAIN_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			interval = parsed
		}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.drainStop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				if err := s.orchestrator.DrainAllQueues(ctx); err != nil {
					s.log.Warnf("Queue drain pass failed: %v", err)
				}
				cancel()
			}
		}
	}()
}

func (s *Server) Stop() {
	close(s.drainStop)

	if s.whatsappClient != nil {
		s.whatsappClient.Disconnect()
	}
	if s.registryStore != nil {
		s.registryStore.Close()
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
