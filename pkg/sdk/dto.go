package sdk

import (
	"encoding/json"
	"time"

	"github.com/ethanbaker/api/pkg/api_types"
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  api_types.StatusType `json:"status"`          // Status message
	Code    int                  `json:"code"`            // Status code
	Message string               `json:"message"`         // Human-readable message
	Data    T                    `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any                  `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a format suitable for JSON responses
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  api_types.StatusSuccess,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  api_types.StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

/** Requests */

// CreateSessionRequest represents the request body for creating a new analysis session
type CreateSessionRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// AnalysisStartRequest represents the request body for starting a pipeline run
type AnalysisStartRequest struct {
	SessionID       string           `json:"session_id" binding:"required"`
	PerformanceData *PerformanceData `json:"performance_data"`
}

/** Responses */

// Session represents an analysis session in API responses
type Session struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`

	ImageAFilename string `json:"image_a_filename,omitempty"`
	ImageBFilename string `json:"image_b_filename,omitempty"`

	Results *Results `json:"results"`
	Error   string   `json:"error,omitempty"`
}

// Results holds the text produced by each completed pipeline stage
type Results struct {
	Stage1 string `json:"stage1,omitempty"`
	Stage2 string `json:"stage2,omitempty"`
	Stage3 string `json:"stage3,omitempty"`
}

// PerformanceMetrics holds observed traffic numbers for one image variant
type PerformanceMetrics struct {
	Visitors       float64 `json:"visitors"`
	Conversions    float64 `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// PerformanceData holds observed traffic numbers for both image variants
type PerformanceData struct {
	ImageA PerformanceMetrics `json:"image_a"`
	ImageB PerformanceMetrics `json:"image_b"`
}

// UploadResponse represents the response body after a successful image upload
type UploadResponse struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// AnalysisStartResponse represents the response body after a pipeline run is dispatched
type AnalysisStartResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// AnalysisStatusResponse represents the polled progress of a pipeline run
type AnalysisStatusResponse struct {
	SessionID    string     `json:"session_id"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	CurrentStage string     `json:"current_stage"`
	Results      *Results   `json:"results"`
	Error        string     `json:"error,omitempty"`
	FailedAt     *time.Time `json:"failed_at,omitempty"`
}

// AnalysisResultsResponse represents the final output of a completed pipeline run
type AnalysisResultsResponse struct {
	SessionID       string           `json:"session_id"`
	Results         *Results         `json:"results"`
	PerformanceData *PerformanceData `json:"performance_data"`
	CompletedAt     *time.Time       `json:"completed_at"`
}
