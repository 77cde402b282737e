package api

import (
	"github.com/sirupsen/logrus"

	"github.com/chainpilot/assistant-backend/internal/service"
	"github.com/chainpilot/assistant-backend/internal/service/assistant"
	"github.com/chainpilot/assistant-backend/internal/storage/postgres"
)

// Server holds API dependencies.
type Server struct {
	authService      *service.AuthService
	convRepo         *postgres.ConversationRepository
	msgRepo          *postgres.MessageRepository
	assistantService *assistant.Service
	logger           *logrus.Logger
}

// NewServer creates a new API server.
func NewServer(authService *service.AuthService, convRepo *postgres.ConversationRepository, msgRepo *postgres.MessageRepository, assistantService *assistant.Service, logger *logrus.Logger) *Server {
	return &Server{
		authService:      authService,
		convRepo:         convRepo,
		msgRepo:          msgRepo,
		assistantService: assistantService,
		logger:           logger,
	}
}
