package analysis_module

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ethanbaker/lp-analysis/internal/pipeline"
	"github.com/ethanbaker/lp-analysis/internal/stores/session"
	"github.com/ethanbaker/lp-analysis/pkg/sdk"
)

// credentialHeader carries an optional per-request API key override
const credentialHeader = "X-OpenAI-API-Key"

// StartAnalysis handles POST requests to dispatch a pipeline run.
// All preconditions are validated before any state changes; the response
// returns as soon as the run is handed to the background workers.
func StartAnalysis(c *gin.Context) {
	s := GetService()

	// Parse request body
	var req sdk.AnalysisStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		return
	}

	sess, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		return
	}

	// Credential resolution: header override, else environment default
	credential := s.resolveCredential(c.GetHeader(credentialHeader))
	if credential == "" {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "OpenAI API key is required. Set it in the request header or environment variable.", nil).AsGinResponse())
		return
	}

	if sess.ImageAFilename == "" || sess.ImageBFilename == "" {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Both images must be uploaded", nil).AsGinResponse())
		return
	}

	// The references must resolve to actual stored files before a run starts
	for _, filename := range []string{sess.ImageAFilename, sess.ImageBFilename} {
		if !s.storage.Exists(filename) {
			c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("Stored image %s is missing", filename), nil).AsGinResponse())
			return
		}
	}

	if err := s.store.BeginRun(c.Request.Context(), id, credential, toStorePerformance(req.PerformanceData)); err != nil {
		switch {
		case errors.Is(err, session.ErrAnalysisActive):
			c.JSON(sdk.NewErrorResponse(http.StatusConflict, "Analysis already in progress", err.Error()).AsGinResponse())
		case errors.Is(err, session.ErrMissingImages), errors.Is(err, session.ErrMissingCredential):
			c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Analysis preconditions not met", err.Error()).AsGinResponse())
		case errors.Is(err, session.ErrNotFound):
			c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		default:
			c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to start analysis", err.Error()).AsGinResponse())
		}
		return
	}

	if err := s.runner.Dispatch(pipeline.Job{SessionID: id, Credential: credential}); err != nil {
		// The session already entered processing; close the run out so it
		// does not hang there forever
		_ = s.store.FailRun(c.Request.Context(), id, fmt.Errorf("analysis could not be scheduled: %w", err))
		c.JSON(sdk.NewErrorResponse(http.StatusServiceUnavailable, "Analysis could not be scheduled", err.Error()).AsGinResponse())
		return
	}

	c.JSON(http.StatusOK, sdk.AnalysisStartResponse{
		Message:   "Analysis started",
		SessionID: req.SessionID,
		Status:    string(session.StatusProcessing),
	})
}

// GetAnalysisStatus handles GET requests polling the progress of a run
func GetAnalysisStatus(c *gin.Context) {
	s := GetService()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		return
	}

	sess, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		return
	}

	progress, currentStage := progressFor(sess.Status, sess.Results)

	c.JSON(http.StatusOK, sdk.AnalysisStatusResponse{
		SessionID:    sess.ID.String(),
		Status:       string(sess.Status),
		Progress:     progress,
		CurrentStage: currentStage,
		Results:      toSDKResults(sess.Results),
		Error:        sess.Error,
		FailedAt:     sess.FailedAt,
	})
}

// GetAnalysisResults handles GET requests for the final report of a
// completed run
func GetAnalysisResults(c *gin.Context) {
	s := GetService()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		return
	}

	sess, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", err.Error()).AsGinResponse())
		return
	}

	if sess.Status != session.StatusCompleted {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Analysis not completed", nil).AsGinResponse())
		return
	}

	c.JSON(http.StatusOK, sdk.AnalysisResultsResponse{
		SessionID:       sess.ID.String(),
		Results:         toSDKResults(sess.Results),
		PerformanceData: toSDKPerformance(sess.PerformanceData),
		CompletedAt:     sess.CompletedAt,
	})
}

// Helper method to convert internal results to sdk results
func toSDKResults(results *session.Results) *sdk.Results {
	if results == nil {
		return nil
	}

	return &sdk.Results{
		Stage1: results.Stage1,
		Stage2: results.Stage2,
		Stage3: results.Stage3,
	}
}

// Helper method to convert sdk performance data to the store's model
func toStorePerformance(perf *sdk.PerformanceData) *session.PerformanceData {
	if perf == nil {
		return nil
	}

	return &session.PerformanceData{
		ImageA: session.PerformanceMetrics(perf.ImageA),
		ImageB: session.PerformanceMetrics(perf.ImageB),
	}
}

// Helper method to convert the store's performance data to the sdk model
func toSDKPerformance(perf *session.PerformanceData) *sdk.PerformanceData {
	if perf == nil {
		return nil
	}

	return &sdk.PerformanceData{
		ImageA: sdk.PerformanceMetrics(perf.ImageA),
		ImageB: sdk.PerformanceMetrics(perf.ImageB),
	}
}
