package main

import (
	"MayaCRM/internal/config"
	"MayaCRM/pkg/log"
	"MayaCRM/pkg/smtp"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	smtpMailer := smtp.New()

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithDatabase(),
		config.WithMiddleware(),
		config.WithUtils(),
		config.WithRegistryStore(),
		config.WithClassifier(),
		config.WithChatGPT(),
		config.WithS3Client(),
		config.WithSynthesizer(),
		config.WithWhatsappClient(),
		config.WithSMTPMailer(smtpMailer),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")
	server.Stop()
}
