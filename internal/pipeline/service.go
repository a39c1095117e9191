package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ketyia/aidiary/internal/diary"
	"github.com/ketyia/aidiary/internal/sentiment"
	"go.uber.org/zap"
)

var (
	errMissingStaging   = errors.New("staging store is required")
	errMissingRecords   = errors.New("record repository is required")
	errMissingText      = errors.New("text synthesizer is required")
	errMissingSentiment = errors.New("sentiment analyzer is required")
	errMissingImages    = errors.New("image generator is required")
	errMissingNamer     = errors.New("artifact namer is required")
	errMissingStore     = errors.New("artifact store is required")
	noOpLogger          = zap.NewNop()
)

// Stage failure classes. Each external stage wraps its upstream error in the
// matching sentinel so callers can map the failure without parsing messages.
var (
	// ErrSynthesis marks a text generation failure; staging is left intact.
	ErrSynthesis = errors.New("pipeline: text synthesis failed")
	// ErrAnalysis marks a sentiment analysis failure.
	ErrAnalysis = errors.New("pipeline: sentiment analysis failed")
	// ErrImageGen marks an image generation failure.
	ErrImageGen = errors.New("pipeline: image generation failed")
	// ErrArtifactStore marks an image fetch or blob upload failure.
	ErrArtifactStore = errors.New("pipeline: artifact store failed")
)

// ServiceError carries a stable operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "pipeline.service.new"
	opSubmit     = "pipeline.submit_questionnaire"
	opGenerate   = "pipeline.generate_narrative"
	opComplete   = "pipeline.complete"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// TextSynthesizer produces a diary narrative from a staged questionnaire.
type TextSynthesizer interface {
	ComposeDiary(ctx context.Context, questionnaire diary.Questionnaire) (string, error)
}

// SentimentAnalyzer classifies narrative text.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (sentiment.Score, error)
}

// ImageGenerator produces a transient URL to a generated image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ArtifactNamer derives a blob name from a timestamp.
type ArtifactNamer interface {
	Name(t time.Time) (string, error)
}

// ArtifactStore copies a transient image into durable blob storage.
type ArtifactStore interface {
	StoreFromURL(ctx context.Context, sourceURL, name string) error
}

// ServiceConfig describes the collaborators of the pipeline orchestrator.
type ServiceConfig struct {
	Staging      *diary.StagingStore
	Records      *diary.Repository
	Text         TextSynthesizer
	Sentiment    SentimentAnalyzer
	Images       ImageGenerator
	Namer        ArtifactNamer
	Store        ArtifactStore
	Clock        func() time.Time
	StageTimeout time.Duration
	Logger       *zap.Logger
}

// Service sequences the two-phase diary workflow.
//
// Phase 1 turns the staged questionnaire into a narrative and clears staging
// on success. Phase 2 takes the narrative back from the caller and runs
// analysis, image generation, blob upload and the final record insert in
// strict order. There is no compensation: a stage failure aborts the phase,
// earlier side effects are discarded server-side, and the record is only
// written after the blob is durable.
type Service struct {
	staging      *diary.StagingStore
	records      *diary.Repository
	text         TextSynthesizer
	sentiment    SentimentAnalyzer
	images       ImageGenerator
	namer        ArtifactNamer
	store        ArtifactStore
	clock        func() time.Time
	stageTimeout time.Duration
	logger       *zap.Logger
}

// NewService validates the collaborators and constructs the orchestrator.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Staging == nil {
		return nil, newServiceError(opServiceNew, "missing_staging", errMissingStaging)
	}
	if cfg.Records == nil {
		return nil, newServiceError(opServiceNew, "missing_records", errMissingRecords)
	}
	if cfg.Text == nil {
		return nil, newServiceError(opServiceNew, "missing_text_synthesizer", errMissingText)
	}
	if cfg.Sentiment == nil {
		return nil, newServiceError(opServiceNew, "missing_sentiment_analyzer", errMissingSentiment)
	}
	if cfg.Images == nil {
		return nil, newServiceError(opServiceNew, "missing_image_generator", errMissingImages)
	}
	if cfg.Namer == nil {
		return nil, newServiceError(opServiceNew, "missing_artifact_namer", errMissingNamer)
	}
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, "missing_artifact_store", errMissingStore)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	stageTimeout := cfg.StageTimeout
	if stageTimeout <= 0 {
		stageTimeout = 75 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		staging:      cfg.Staging,
		records:      cfg.Records,
		text:         cfg.Text,
		sentiment:    cfg.Sentiment,
		images:       cfg.Images,
		namer:        cfg.Namer,
		store:        cfg.Store,
		clock:        clock,
		stageTimeout: stageTimeout,
		logger:       logger,
	}, nil
}

// SubmitQuestionnaire stages a submission, replacing any prior one.
func (s *Service) SubmitQuestionnaire(ctx context.Context, questionnaire diary.Questionnaire) error {
	if err := s.staging.Replace(ctx, questionnaire); err != nil {
		s.logError(opSubmit, "staging_replace_failed", err)
		return newServiceError(opSubmit, "staging_replace_failed", err)
	}
	return nil
}

// GenerateNarrative runs phase 1: read the staged questionnaire, synthesize
// the narrative, and clear the consumed submission. A synthesis failure
// leaves staging untouched so the caller can retry. With nothing staged the
// call fails with diary.ErrNothingStaged before any model call.
func (s *Service) GenerateNarrative(ctx context.Context) (string, error) {
	staged, err := s.staging.Peek(ctx)
	if errors.Is(err, diary.ErrNothingStaged) {
		return "", newServiceError(opGenerate, "nothing_staged", err)
	}
	if err != nil {
		s.logError(opGenerate, "staging_read_failed", err)
		return "", newServiceError(opGenerate, "staging_read_failed", err)
	}

	narrative, err := s.callText(ctx, staged)
	if err != nil {
		s.logError(opGenerate, "synthesis_failed", err)
		return "", newServiceError(opGenerate, "synthesis_failed", fmt.Errorf("%w: %v", ErrSynthesis, err))
	}

	if err := s.staging.ClearByEvent(ctx, staged.TodaysEvent); err != nil {
		s.logError(opGenerate, "staging_clear_failed", err)
		return "", newServiceError(opGenerate, "staging_clear_failed", err)
	}

	s.logger.Info("narrative generated", zap.Int("length", len(narrative)))
	return narrative, nil
}

// CompletionResult reports the outcome of a successful phase 2 run.
type CompletionResult struct {
	RecordID  uint
	Label     string
	ImageName string
}

// Complete runs phase 2 on the caller-supplied author name and narrative:
// sentiment analysis, image generation, blob upload, then the single record
// insert. Stages run strictly in sequence and any failure aborts the phase;
// the insert happens only after the upload succeeded, so no record ever
// references an unwritten blob.
func (s *Service) Complete(ctx context.Context, authorName, narrative string) (CompletionResult, error) {
	score, err := s.callSentiment(ctx, narrative)
	if err != nil {
		s.logError(opComplete, "analysis_failed", err)
		return CompletionResult{}, newServiceError(opComplete, "analysis_failed", fmt.Errorf("%w: %v", ErrAnalysis, err))
	}

	imageURL, err := s.callImages(ctx, narrative)
	if err != nil {
		s.logError(opComplete, "image_generation_failed", err)
		return CompletionResult{}, newServiceError(opComplete, "image_generation_failed", fmt.Errorf("%w: %v", ErrImageGen, err))
	}

	imageName, err := s.namer.Name(s.clock())
	if err != nil {
		s.logError(opComplete, "naming_failed", err)
		return CompletionResult{}, newServiceError(opComplete, "naming_failed", err)
	}

	if err := s.callStore(ctx, imageURL, imageName); err != nil {
		s.logError(opComplete, "artifact_store_failed", err, zap.String("image_name", imageName))
		return CompletionResult{}, newServiceError(opComplete, "artifact_store_failed", fmt.Errorf("%w: %v", ErrArtifactStore, err))
	}

	recordID, err := s.records.Insert(ctx, &diary.Record{
		Username:    authorName,
		Diaries:     narrative,
		ImageName:   imageName,
		AnaResult:   score.Label,
		AnaPositive: score.Positive,
		AnaNeutral:  score.Neutral,
		AnaNegative: score.Negative,
	})
	if err != nil {
		s.logError(opComplete, "record_insert_failed", err, zap.String("image_name", imageName))
		return CompletionResult{}, newServiceError(opComplete, "record_insert_failed", err)
	}

	s.logger.Info("diary completed",
		zap.Uint("record_id", recordID),
		zap.String("sentiment", score.Label),
		zap.String("image_name", imageName))

	return CompletionResult{RecordID: recordID, Label: score.Label, ImageName: imageName}, nil
}

func (s *Service) callText(ctx context.Context, staged diary.Questionnaire) (string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	return s.text.ComposeDiary(stageCtx, staged)
}

func (s *Service) callSentiment(ctx context.Context, narrative string) (sentiment.Score, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	return s.sentiment.AnalyzeSentiment(stageCtx, narrative)
}

func (s *Service) callImages(ctx context.Context, narrative string) (string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	return s.images.GenerateImage(stageCtx, narrative)
}

func (s *Service) callStore(ctx context.Context, imageURL, imageName string) error {
	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	return s.store.StoreFromURL(stageCtx, imageURL, imageName)
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("pipeline service error", attrs...)
}
