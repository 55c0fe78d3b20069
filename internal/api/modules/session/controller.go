package session_module

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ethanbaker/lp-analysis/internal/images"
	"github.com/ethanbaker/lp-analysis/internal/stores/session"
	"github.com/ethanbaker/lp-analysis/pkg/sdk"
)

// CreateSession handles POST requests to create a new analysis session
func CreateSession(c *gin.Context) {
	// Parse request body
	var req sdk.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	sess, err := store.Create(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to create session", err.Error()).AsGinResponse())
		return
	}

	c.JSON(http.StatusCreated, toSDKSession(sess))
}

// GetSession handles GET requests to retrieve an existing session by ID
func GetSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		return
	}

	sess, err := store.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		return
	}

	c.JSON(http.StatusOK, toSDKSession(sess))
}

// ListSessions handles GET requests to list all sessions, most recent first
func ListSessions(c *gin.Context) {
	sessions, err := store.List(c.Request.Context())
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to list sessions", err.Error()).AsGinResponse())
		return
	}

	resp := make([]sdk.Session, 0, len(sessions))
	for _, sess := range sessions {
		resp = append(resp, toSDKSession(sess))
	}

	c.JSON(http.StatusOK, resp)
}

// UploadImage handles POST requests to upload one image variant for a session.
// The upload is normalized to the canonical stored form before the session's
// image reference is updated; a failed normalization changes nothing.
func UploadImage(c *gin.Context) {
	id, err := uuid.Parse(c.Query("session_id"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		return
	}

	if _, err := store.Get(c.Request.Context(), id); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		return
	}

	slot := session.ImageSlot(c.Query("image_type"))
	if !slot.Valid() {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "image_type must be image_a or image_b", nil).AsGinResponse())
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not read uploaded file", err.Error()).AsGinResponse())
		return
	}
	defer file.Close()

	// Cheap rejection before buffering the whole body
	if header.Size > images.MaxUploadBytes {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "File too large", nil).AsGinResponse())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not read uploaded file", err.Error()).AsGinResponse())
		return
	}

	_, filename, err := normalizer.Normalize(data, header.Header.Get("Content-Type"), string(slot))
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, images.ErrUnsupportedType) || errors.Is(err, images.ErrTooLarge) || errors.Is(err, images.ErrInvalidImage) {
			code = http.StatusBadRequest
		}
		c.JSON(sdk.NewErrorResponse(code, "Could not process image", err.Error()).AsGinResponse())
		return
	}

	if err := store.SetImage(c.Request.Context(), id, slot, filename); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to update session", err.Error()).AsGinResponse())
		return
	}

	c.JSON(http.StatusOK, sdk.UploadResponse{
		Filename: filename,
		Message:  fmt.Sprintf("%s uploaded successfully", slot),
	})
}

// Helper method to convert an internal session to an sdk session
func toSDKSession(sess *session.Session) sdk.Session {
	resp := sdk.Session{
		ID:             sess.ID.String(),
		Title:          sess.Title,
		Description:    sess.Description,
		Status:         string(sess.Status),
		CreatedAt:      sess.CreatedAt,
		CompletedAt:    sess.CompletedAt,
		FailedAt:       sess.FailedAt,
		ImageAFilename: sess.ImageAFilename,
		ImageBFilename: sess.ImageBFilename,
		Error:          sess.Error,
	}

	if sess.Results != nil {
		resp.Results = &sdk.Results{
			Stage1: sess.Results.Stage1,
			Stage2: sess.Results.Stage2,
			Stage3: sess.Results.Stage3,
		}
	}

	return resp
}
