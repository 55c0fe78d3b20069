package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v2"

	"github.com/ethanbaker/lp-analysis/internal/images"
	"github.com/ethanbaker/lp-analysis/internal/stores/session"
	"github.com/ethanbaker/lp-analysis/internal/vision"
)

const (
	// DefaultWorkers is the number of concurrent pipeline runs
	DefaultWorkers = 4
	// queueSize bounds the number of dispatched-but-unstarted runs
	queueSize = 64
)

// Sentinel errors for dispatching
var (
	// ErrQueueFull indicates the job queue cannot accept another run right now
	ErrQueueFull = errors.New("analysis queue is full")
	// ErrStopped indicates the runner is no longer accepting jobs
	ErrStopped = errors.New("runner is stopped")
)

// Job is one unit of background work: which session to analyze and the
// credential for its model calls. The credential lives in the job and in the
// store's transient map for the duration of the run, nowhere else.
type Job struct {
	SessionID  uuid.UUID
	Credential string
}

// ClientFactory builds a model client from a run credential
type ClientFactory func(credential string) vision.Completer

// Options configures a Runner. Zero values fall back to defaults.
type Options struct {
	Workers int

	VisionModel openai.ChatModel // Stages 1 and 2
	ReportModel openai.ChatModel // Stage 3

	// System prompt overrides; built-in prompts are used when empty
	StructurePrompt string
	ContentPrompt   string
	ReportPrompt    string
}

// Runner executes pipeline runs detached from the request cycle. Handlers
// enqueue a Job and return immediately; a fixed pool of workers drains the
// queue and reports outcomes by mutating the session store.
type Runner struct {
	store     session.Store
	storage   *images.Storage
	newClient ClientFactory
	opts      Options

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a runner. Call Start before dispatching.
func NewRunner(store session.Store, storage *images.Storage, newClient ClientFactory, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.VisionModel == "" {
		opts.VisionModel = openai.ChatModelGPT4o
	}
	if opts.ReportModel == "" {
		opts.ReportModel = openai.ChatModelGPT4
	}
	if opts.StructurePrompt == "" {
		opts.StructurePrompt = defaultStructureSystemPrompt
	}
	if opts.ContentPrompt == "" {
		opts.ContentPrompt = defaultContentSystemPrompt
	}
	if opts.ReportPrompt == "" {
		opts.ReportPrompt = defaultReportSystemPrompt
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:     store,
		storage:   storage,
		newClient: newClient,
		opts:      opts,
		jobs:      make(chan Job, queueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the worker pool
func (r *Runner) Start() {
	for i := 0; i < r.opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	log.Printf("[PIPELINE]: Started %d worker(s)", r.opts.Workers)
}

// Stop refuses new jobs and waits for in-flight runs to finish.
// Dispatched runs are never aborted mid-flight.
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
}

// Dispatch enqueues a run without blocking. The caller must already have
// moved the session into processing via Store.BeginRun.
func (r *Runner) Dispatch(job Job) error {
	if r.ctx.Err() != nil {
		return ErrStopped
	}

	select {
	case r.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// worker drains the job queue until the runner stops
func (r *Runner) worker() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case job := <-r.jobs:
			r.run(job)
		}
	}
}

// run executes all three stages for one session, writing each stage result
// into the store before starting the next. Any failure ends the run through
// FailRun; together with CompleteRun that guarantees the transient credential
// is discarded on every exit path, panics included.
func (r *Runner) run(job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(job.SessionID, fmt.Errorf("analysis aborted: %v", rec))
		}
	}()

	ctx := context.Background()

	sess, err := r.store.Get(ctx, job.SessionID)
	if err != nil {
		log.Printf("[PIPELINE]: Dropping run for unknown session %s: %v", job.SessionID, err)
		return
	}

	imageA, err := r.storage.Read(sess.ImageAFilename)
	if err != nil {
		r.fail(job.SessionID, fmt.Errorf("failed to read image_a: %w", err))
		return
	}
	imageB, err := r.storage.Read(sess.ImageBFilename)
	if err != nil {
		r.fail(job.SessionID, fmt.Errorf("failed to read image_b: %w", err))
		return
	}

	client := r.newClient(job.Credential)

	// Stage 1: structure analysis
	structure, err := analyzeStructure(ctx, client, r.opts.StructurePrompt, r.opts.VisionModel, imageA, imageB)
	if err != nil {
		r.fail(job.SessionID, fmt.Errorf("structure analysis failed: %w", err))
		return
	}
	if err := r.store.SetStageResult(ctx, job.SessionID, session.StageStructure, structure); err != nil {
		r.fail(job.SessionID, fmt.Errorf("failed to record structure analysis: %w", err))
		return
	}

	// Stage 2: content analysis
	content, err := analyzeContent(ctx, client, r.opts.ContentPrompt, r.opts.VisionModel, imageA, imageB, structure)
	if err != nil {
		r.fail(job.SessionID, fmt.Errorf("content analysis failed: %w", err))
		return
	}
	if err := r.store.SetStageResult(ctx, job.SessionID, session.StageContent, content); err != nil {
		r.fail(job.SessionID, fmt.Errorf("failed to record content analysis: %w", err))
		return
	}

	// Stage 3: final synthesis
	report, err := generateFinalReport(ctx, client, r.opts.ReportPrompt, r.opts.ReportModel, structure, content, sess.PerformanceData)
	if err != nil {
		r.fail(job.SessionID, fmt.Errorf("final analysis failed: %w", err))
		return
	}
	if err := r.store.SetStageResult(ctx, job.SessionID, session.StageSynthesis, report); err != nil {
		r.fail(job.SessionID, fmt.Errorf("failed to record final analysis: %w", err))
		return
	}

	if err := r.store.CompleteRun(ctx, job.SessionID); err != nil {
		r.fail(job.SessionID, fmt.Errorf("failed to complete run: %w", err))
		return
	}

	log.Printf("[PIPELINE]: Analysis for session %s completed", job.SessionID)
}

// fail records a run failure; the store clears the credential as part of the
// transition
func (r *Runner) fail(id uuid.UUID, cause error) {
	log.Printf("[PIPELINE]: Analysis for session %s failed: %v", id, cause)

	if err := r.store.FailRun(context.Background(), id, cause); err != nil {
		log.Printf("[PIPELINE]: Could not record failure for session %s: %v", id, err)
	}
}
