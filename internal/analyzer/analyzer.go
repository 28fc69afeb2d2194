// Package analyzer orchestrates the extraction pipeline: cache lookup,
// preprocessing, rule-based parsing, the confidence-gated model fallback,
// fusion, postprocessing, and the deferred history write.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/diaryd/internal/cache"
	"github.com/fyrsmithlabs/diaryd/internal/config"
	"github.com/fyrsmithlabs/diaryd/internal/domain"
	"github.com/fyrsmithlabs/diaryd/internal/fusion"
	"github.com/fyrsmithlabs/diaryd/internal/history"
	"github.com/fyrsmithlabs/diaryd/internal/llm"
	"github.com/fyrsmithlabs/diaryd/internal/metrics"
	"github.com/fyrsmithlabs/diaryd/internal/postprocess"
	"github.com/fyrsmithlabs/diaryd/internal/preprocess"
)

// RuleParser is the rule-based extraction stage.
type RuleParser interface {
	Parse(text string) domain.ParseResult
}

// Request is one analyze call.
type Request struct {
	UserID int64       `json:"user_id"`
	Text   string      `json:"text"`
	Date   domain.Date `json:"date"`
}

// Analyzer runs the pipeline. It holds no per-request state; all shared
// state lives in the cache and history stores.
type Analyzer struct {
	cfg       config.AnalyzerConfig
	cleaner   *preprocess.Cleaner
	heuristic RuleParser
	model     llm.Parser
	fuser     *fusion.Fuser
	post      *postprocess.Processor
	cache     cache.Store
	history   history.Store
	logger    *zap.Logger

	// pending tracks deferred history writes so shutdown and tests can
	// wait for them.
	pending sync.WaitGroup
}

// New wires the pipeline stages together.
func New(
	cfg config.AnalyzerConfig,
	cleaner *preprocess.Cleaner,
	ruleParser RuleParser,
	model llm.Parser,
	historyStore history.Store,
	cacheStore cache.Store,
	logger *zap.Logger,
) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		cfg:       cfg,
		cleaner:   cleaner,
		heuristic: ruleParser,
		model:     model,
		fuser: fusion.New(historyStore, fusion.Config{
			DefaultMinutes: cfg.DefaultMinutes,
		}),
		post: postprocess.New(postprocess.Config{
			SimilarityThreshold:      cfg.SimilarityThreshold,
			DefaultMinutes:           cfg.DefaultMinutes,
			DefaultAchievementWeight: cfg.DefaultAchievementWeight,
		}),
		cache:   cacheStore,
		history: historyStore,
		logger:  logger,
	}
}

// Analyze runs the full pipeline for one request. The second return
// reports whether the result was served from cache; a cached result is
// returned exactly as stored. Only validation failures surface as
// errors; every other condition degrades and is reported via the result
// metadata.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*domain.AnalysisResult, bool, error) {
	metrics.RequestsTotal.Inc()

	if err := req.validate(a.cfg.MaxTextLength); err != nil {
		metrics.RequestsFailed.WithLabelValues("validation").Inc()
		return nil, false, err
	}

	start := time.Now()
	requestID := uuid.NewString()
	log := a.logger.With(zap.String("request_id", requestID), zap.Int64("user_id", req.UserID))

	normalized := preprocess.Normalize(req.Text)
	key := cache.Key(req.UserID, normalized)

	if cached, hit, err := a.cache.Get(ctx, key); err != nil {
		log.Warn("cache lookup failed, treating as miss", zap.Error(err))
	} else if hit {
		metrics.CacheHits.Inc()
		metrics.RequestsSuccess.Inc()
		log.Info("served from cache")
		return cached, true, nil
	}
	metrics.CacheMisses.Inc()

	date := req.Date
	if date.IsZero() {
		date = domain.Today()
	}

	meta := domain.Meta{
		RequestID:      requestID,
		UsedHeuristics: []string{},
	}

	preStart := time.Now()
	cleaned := a.cleaner.Clean(req.Text)
	meta.Latency.PreprocessMS = time.Since(preStart).Milliseconds()
	if cleaned.HasFindings() {
		log.Info("redacted PII", zap.Strings("rules", cleaned.RuleIDs()))
	}

	heuristicResult := a.heuristic.Parse(cleaned.Cleaned)
	meta.Latency.HeuristicMS = heuristicResult.LatencyMS
	meta.UsedHeuristics = heuristicResult.Heuristics
	metrics.HeuristicLatency.Observe(float64(heuristicResult.LatencyMS) / 1000)

	var modelActions []domain.RawAction
	if a.shouldUseModel(heuristicResult) {
		meta.UsedLLM = true
		modelResult := a.callModel(ctx, cleaned.Cleaned, log)
		meta.Latency.LLMMS = modelResult.LatencyMS
		meta.Errors = append(meta.Errors, modelResult.Errors...)
		modelActions = modelResult.Actions
	}

	fused := a.fuser.Merge(ctx, req.UserID, heuristicResult.Actions, modelActions)
	meta.Latency.FusionMS = fused.LatencyMS
	meta.Errors = append(meta.Errors, fused.Errors...)

	final := a.post.Finalize(fused.Actions)
	meta.Latency.PostprocessMS = final.LatencyMS
	meta.Errors = append(meta.Errors, final.Errors...)

	meta.Latency.TotalMS = time.Since(start).Milliseconds()
	metrics.RequestLatency.Observe(time.Since(start).Seconds())
	metrics.ActionsExtracted.Observe(float64(len(final.Actions)))

	result := &domain.AnalysisResult{
		UserID:  req.UserID,
		Date:    date,
		Actions: final.Actions,
		Meta:    meta,
	}

	if err := a.cache.Set(ctx, key, result); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}

	// The history write happens only for finished requests; a cancelled
	// caller must not leave partial observations behind.
	if ctx.Err() == nil {
		a.recordHistory(ctx, req.UserID, final.Actions, log)
	}

	metrics.RequestsSuccess.Inc()
	log.Info("analysis complete",
		zap.Int("actions", len(final.Actions)),
		zap.Bool("used_llm", meta.UsedLLM),
		zap.Int64("total_ms", meta.Latency.TotalMS),
	)
	return result, false, nil
}

// shouldUseModel gates the fallback: the model runs when the rule-based
// pass found nothing or its aggregate confidence is below the threshold.
func (a *Analyzer) shouldUseModel(result domain.ParseResult) bool {
	if !a.model.Available() {
		return false
	}
	if len(result.Actions) == 0 {
		return true
	}
	return result.Confidence < a.cfg.ConfidenceThreshold
}

// callModel invokes the model parser. Unavailability is a normal outcome
// carried in the result errors, never a request failure.
func (a *Analyzer) callModel(ctx context.Context, text string, log *zap.Logger) domain.ParseResult {
	metrics.LLMCallsTotal.Inc()
	result, err := a.model.Parse(ctx, text)
	metrics.LLMLatency.Observe(float64(result.LatencyMS) / 1000)
	if result.TokensUsed > 0 {
		metrics.LLMTokensUsed.Add(float64(result.TokensUsed))
	}
	if err != nil {
		metrics.LLMErrorsTotal.Inc()
		if errors.Is(err, llm.ErrModelUnavailable) {
			log.Warn("model unavailable, degrading to heuristics", zap.Error(err))
		} else {
			log.Error("model call failed", zap.Error(err))
		}
		if len(result.Errors) == 0 {
			result.Errors = []string{fmt.Sprintf("model unavailable: %v", err)}
		}
	}
	return result
}

// recordHistory folds the finalized durations into the history store in
// the background. Failures are logged; the response is already built.
func (a *Analyzer) recordHistory(ctx context.Context, userID int64, actions []domain.Action, log *zap.Logger) {
	observations := make([]domain.Action, 0, len(actions))
	for _, action := range actions {
		// An action timed from its own history template carries no new
		// information.
		if action.TimeSource == domain.TimeSourceHistory {
			continue
		}
		observations = append(observations, action)
	}
	if len(observations) == 0 {
		return
	}

	bg := context.WithoutCancel(ctx)
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		for _, action := range observations {
			normalized := preprocess.Normalize(action.Description)
			if normalized == "" {
				continue
			}
			if err := a.history.Record(bg, userID, normalized, action.EstimatedMinutes); err != nil {
				log.Warn("history write failed", zap.Error(err), zap.String("template", normalized))
			}
		}
	}()
}

// Flush waits for deferred history writes. Used by shutdown and tests.
func (a *Analyzer) Flush() {
	a.pending.Wait()
}

// Stats returns the user's history aggregates.
func (a *Analyzer) Stats(ctx context.Context, userID int64) (history.Stats, error) {
	if userID <= 0 {
		return history.Stats{}, &ValidationError{Field: "user_id", Message: "must be positive"}
	}
	return a.history.Stats(ctx, userID)
}

// ClearCache empties the result cache.
func (a *Analyzer) ClearCache(ctx context.Context) error {
	return a.cache.Clear(ctx)
}
