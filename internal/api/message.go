package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/chainpilot/assistant-backend/internal/service/assistant"
	"github.com/chainpilot/assistant-backend/internal/storage/postgres"
)

// SendMessage handles POST /assistant/conversations/:id/messages
func (s *Server) SendMessage(c echo.Context) error {
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	var req assistant.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "content is required"})
	}

	authAddress := GetAddress(c)
	if req.Address != authAddress {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "address mismatch"})
	}

	resp, err := s.assistantService.ProcessMessage(c.Request().Context(), convID, &req)
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		case errors.Is(err, assistant.ErrConversationBusy):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: "a previous message is still being processed"})
		default:
			s.logger.WithError(err).Error("failed to process message")
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process message"})
		}
	}

	return c.JSON(http.StatusOK, resp)
}
