package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/chainpilot/assistant-backend/internal/storage/postgres"
	"github.com/chainpilot/assistant-backend/internal/types"
)

// CreateConversationRequest is the request body for creating a conversation.
type CreateConversationRequest struct {
	Address string `json:"address"`
}

// ListConversationsRequest is the request body for listing conversations.
type ListConversationsRequest struct {
	Address string `json:"address"`
	Skip    int    `json:"skip"`
	Take    int    `json:"take"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []types.Conversation `json:"conversations"`
	TotalCount    int                  `json:"total_count"`
}

// GetConversationRequest is the request body for getting a conversation.
type GetConversationRequest struct {
	Address string `json:"address"`
}

// DeleteConversationRequest is the request body for deleting a conversation.
type DeleteConversationRequest struct {
	Address string `json:"address"`
}

// ResetConversationRequest is the request body for resetting a conversation.
type ResetConversationRequest struct {
	Address string `json:"address"`
}

// ImportTranscriptRequest is the request body for restoring a transcript.
type ImportTranscriptRequest struct {
	Address  string                   `json:"address"`
	Snapshot types.TranscriptSnapshot `json:"snapshot"`
}

// CreateConversation creates a new conversation seeded with the welcome
// message.
func (s *Server) CreateConversation(c echo.Context) error {
	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	authAddress := GetAddress(c)
	if req.Address != authAddress {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "address mismatch"})
	}

	conv, err := s.convRepo.Create(c.Request().Context(), req.Address)
	if err != nil {
		s.logger.WithError(err).Error("failed to create conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create conversation"})
	}

	welcome, err := s.assistantService.SeedWelcome(c.Request().Context(), conv.ID)
	if err != nil {
		s.logger.WithError(err).Error("failed to seed welcome message")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create conversation"})
	}

	return c.JSON(http.StatusCreated, types.ConversationWithMessages{
		Conversation: *conv,
		Messages:     []types.Message{*welcome},
	})
}

// ListConversations returns a paginated list of conversations.
func (s *Server) ListConversations(c echo.Context) error {
	var req ListConversationsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	authAddress := GetAddress(c)
	if req.Address != authAddress {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "address mismatch"})
	}

	// Default pagination
	if req.Take <= 0 {
		req.Take = 20
	}
	if req.Take > 100 {
		req.Take = 100
	}

	conversations, totalCount, err := s.convRepo.List(c.Request().Context(), req.Address, req.Skip, req.Take)
	if err != nil {
		s.logger.WithError(err).Error("failed to list conversations")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list conversations"})
	}

	if conversations == nil {
		conversations = []types.Conversation{}
	}

	return c.JSON(http.StatusOK, ListConversationsResponse{
		Conversations: conversations,
		TotalCount:    totalCount,
	})
}

// GetConversation returns a conversation with its messages.
func (s *Server) GetConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	var req GetConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	authAddress := GetAddress(c)
	if req.Address != authAddress {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "address mismatch"})
	}

	conv, err := s.convRepo.GetByID(c.Request().Context(), id, req.Address)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to get conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get conversation"})
	}

	messages, err := s.msgRepo.GetByConversationID(c.Request().Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get messages")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get conversation"})
	}
	if messages == nil {
		messages = []types.Message{}
	}

	return c.JSON(http.StatusOK, types.ConversationWithMessages{
		Conversation: *conv,
		Messages:     messages,
	})
}

// DeleteConversation archives a conversation (soft delete).
func (s *Server) DeleteConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	var req DeleteConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	authAddress := GetAddress(c)
	if req.Address != authAddress {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "address mismatch"})
	}

	err = s.convRepo.Archive(c.Request().Context(), id, req.Address)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to delete conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete conversation"})
	}

	return c.JSON(http.StatusOK, acknowledged)
}

// ResetConversation clears a conversation's transcript and state, then
// reseeds the welcome message.
func (s *Server) ResetConversation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	var req ResetConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	authAddress := GetAddress(c)
	if req.Address != authAddress {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "address mismatch"})
	}

	welcome, err := s.assistantService.ResetConversation(c.Request().Context(), id, req.Address)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to reset conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to reset conversation"})
	}

	return c.JSON(http.StatusOK, welcome)
}

// ExportTranscript returns a portable snapshot of the conversation's
// recent messages.
func (s *Server) ExportTranscript(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	var req GetConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	authAddress := GetAddress(c)
	if req.Address != authAddress {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "address mismatch"})
	}

	snap, err := s.assistantService.ExportTranscript(c.Request().Context(), id, req.Address)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to export transcript")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to export transcript"})
	}

	return c.JSON(http.StatusOK, snap)
}

// ImportTranscript restores a transcript snapshot into a conversation.
func (s *Server) ImportTranscript(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	var req ImportTranscriptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	authAddress := GetAddress(c)
	if req.Address != authAddress {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "address mismatch"})
	}

	err = s.assistantService.ImportTranscript(c.Request().Context(), id, req.Address, req.Snapshot)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		}
		s.logger.WithError(err).Error("failed to import transcript")
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid transcript snapshot"})
	}

	return c.JSON(http.StatusOK, acknowledged)
}
