package analysis_module

import (
	"fmt"

	"github.com/openai/openai-go/v2"

	"github.com/ethanbaker/lp-analysis/internal/images"
	"github.com/ethanbaker/lp-analysis/internal/pipeline"
	"github.com/ethanbaker/lp-analysis/internal/stores/session"
	"github.com/ethanbaker/lp-analysis/internal/vision"
	"github.com/ethanbaker/lp-analysis/pkg/utils"
)

// AnalysisService owns the pipeline runner and resolves credentials for runs
type AnalysisService struct {
	store   session.Store
	storage *images.Storage
	runner  *pipeline.Runner
	cfg     *utils.Config
}

var service *AnalysisService

/** ---- INIT ---- */

// Init creates the analysis service and starts its worker pool
func Init(cfg *utils.Config, store session.Store, storage *images.Storage) error {
	if store == nil || storage == nil {
		return fmt.Errorf("a valid store and storage must be provided")
	}

	opts := pipeline.Options{
		Workers:         cfg.GetIntWithDefault("PIPELINE_WORKERS", pipeline.DefaultWorkers),
		VisionModel:     openai.ChatModel(cfg.Get("VISION_MODEL")),
		ReportModel:     openai.ChatModel(cfg.Get("REPORT_MODEL")),
		StructurePrompt: promptOverride(cfg, "STRUCTURE_SYSPROMPT_PATH"),
		ContentPrompt:   promptOverride(cfg, "CONTENT_SYSPROMPT_PATH"),
		ReportPrompt:    promptOverride(cfg, "REPORT_SYSPROMPT_PATH"),
	}

	runner := pipeline.NewRunner(store, storage, func(credential string) vision.Completer {
		return vision.NewClient(credential)
	}, opts)
	runner.Start()

	service = &AnalysisService{
		store:   store,
		storage: storage,
		runner:  runner,
		cfg:     cfg,
	}

	return nil
}

// GetService returns the initialized analysis service
func GetService() *AnalysisService {
	return service
}

// Stop drains the service's worker pool
func (s *AnalysisService) Stop() {
	s.runner.Stop()
}

// resolveCredential returns the request header override if present, otherwise
// the process-wide default
func (s *AnalysisService) resolveCredential(headerValue string) string {
	if headerValue != "" {
		return headerValue
	}
	return s.cfg.Get("OPENAI_API_KEY")
}

// promptOverride loads a stage system prompt from a configured file path.
// Returns empty (meaning: use the built-in prompt) when unset or unreadable.
func promptOverride(cfg *utils.Config, key string) string {
	path := cfg.Get(key)
	if path == "" {
		return ""
	}
	return utils.LoadPromptWithFallback(path, "")
}
