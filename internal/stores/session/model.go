package session

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an analysis session
type Status string

const (
	StatusDraft      Status = "draft"      // Created, collecting images
	StatusProcessing Status = "processing" // A pipeline run is active
	StatusCompleted  Status = "completed"  // All three stages finished
	StatusFailed     Status = "failed"     // A stage aborted the run
)

// ImageSlot identifies which variant an uploaded image belongs to
type ImageSlot string

const (
	SlotImageA ImageSlot = "image_a"
	SlotImageB ImageSlot = "image_b"
)

// Valid reports whether the slot is one of the two supported variants
func (s ImageSlot) Valid() bool {
	return s == SlotImageA || s == SlotImageB
}

// Stage identifies one of the three ordered pipeline stages
type Stage int

const (
	StageStructure Stage = iota + 1 // Layout and visual hierarchy comparison
	StageContent                    // Content differences, built on stage 1
	StageSynthesis                  // Final report from stages 1 and 2
)

// Results holds the text produced by each completed stage.
// Stage2 is never set without Stage1, and Stage3 never without Stage2.
type Results struct {
	Stage1 string `json:"stage1,omitempty"`
	Stage2 string `json:"stage2,omitempty"`
	Stage3 string `json:"stage3,omitempty"`
}

// PerformanceMetrics holds observed traffic numbers for one variant
type PerformanceMetrics struct {
	Visitors       float64 `json:"visitors"`
	Conversions    float64 `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// PerformanceData holds observed traffic numbers for both variants,
// attached when a pipeline run starts
type PerformanceData struct {
	ImageA PerformanceMetrics `json:"image_a"`
	ImageB PerformanceMetrics `json:"image_b"`
}

// Session is one A/B comparison job: its images, status, and results.
// Title and description are immutable after creation; everything else is
// mutated only through Store operations.
type Session struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`

	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`

	ImageAFilename string `json:"image_a_filename,omitempty"`
	ImageBFilename string `json:"image_b_filename,omitempty"`

	Results         *Results         `json:"results"`
	PerformanceData *PerformanceData `json:"performance_data,omitempty"`
	Error           string           `json:"error,omitempty"`

	// Creation order tiebreak for listing; only meaningful inside the store
	seq uint64
}

// clone returns a deep copy so callers never share memory with the store
func (s *Session) clone() *Session {
	out := *s

	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	if s.FailedAt != nil {
		t := *s.FailedAt
		out.FailedAt = &t
	}
	if s.Results != nil {
		r := *s.Results
		out.Results = &r
	}
	if s.PerformanceData != nil {
		p := *s.PerformanceData
		out.PerformanceData = &p
	}

	return &out
}
