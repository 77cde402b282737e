package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/chainpilot/assistant-backend/internal/service/assistant"
	"github.com/chainpilot/assistant-backend/internal/storage/postgres"
)

// UploadImage handles POST /assistant/conversations/:id/upload with a
// multipart "file" part. Validation and storage failures come back as a
// normal assistant message, not an HTTP error.
func (s *Server) UploadImage(c echo.Context) error {
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.logger.WithError(err).Error("failed to open uploaded file")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to read upload"})
	}
	defer file.Close()

	authAddress := GetAddress(c)

	resp, err := s.assistantService.HandleUpload(
		c.Request().Context(),
		convID,
		authAddress,
		file,
		fileHeader.Filename,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		case errors.Is(err, assistant.ErrConversationBusy):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: "a previous message is still being processed"})
		default:
			s.logger.WithError(err).Error("failed to process upload")
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process upload"})
		}
	}

	return c.JSON(http.StatusOK, resp)
}
