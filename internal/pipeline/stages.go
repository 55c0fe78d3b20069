package pipeline

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"

	"github.com/ethanbaker/lp-analysis/internal/stores/session"
	"github.com/ethanbaker/lp-analysis/internal/vision"
)

// The three stages are pure functions of their declared inputs: each is a
// single completion through the model client with a stage-specific prompt.

// analyzeStructure compares layout, element placement and visual hierarchy
// of both images
func analyzeStructure(ctx context.Context, client vision.Completer, sys string, model openai.ChatModel, imageA, imageB []byte) (string, error) {
	return client.Complete(ctx, vision.Request{
		System:      sys,
		Text:        structureUserPrompt,
		Images:      [][]byte{imageA, imageB},
		Model:       model,
		MaxTokens:   visionMaxTokens,
		Temperature: visionTemperature,
	})
}

// analyzeContent compares textual, visual and functional content, framed by
// the structure analysis
func analyzeContent(ctx context.Context, client vision.Completer, sys string, model openai.ChatModel, imageA, imageB []byte, structure string) (string, error) {
	return client.Complete(ctx, vision.Request{
		System:      sys,
		Text:        fmt.Sprintf(contentUserPromptFormat, structure),
		Images:      [][]byte{imageA, imageB},
		Model:       model,
		MaxTokens:   visionMaxTokens,
		Temperature: visionTemperature,
	})
}

// generateFinalReport synthesizes both analyses, plus performance metrics
// when present, into the fixed report skeleton. No image input.
func generateFinalReport(ctx context.Context, client vision.Completer, sys string, model openai.ChatModel, structure, content string, perf *session.PerformanceData) (string, error) {
	return client.Complete(ctx, vision.Request{
		System:      sys,
		Text:        fmt.Sprintf(reportUserPromptFormat, structure, content, performanceContext(perf)),
		Model:       model,
		MaxTokens:   reportMaxTokens,
		Temperature: reportTemperature,
	})
}

// performanceContext renders the optional metrics block for the report prompt
func performanceContext(perf *session.PerformanceData) string {
	if perf == nil {
		return ""
	}

	return fmt.Sprintf(performanceContextFormat,
		perf.ImageA.Visitors, perf.ImageA.Conversions, perf.ImageA.ConversionRate,
		perf.ImageB.Visitors, perf.ImageB.Conversions, perf.ImageB.ConversionRate,
	)
}
