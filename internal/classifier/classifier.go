// Package classifier scores candidate companies against an ICP through batched LLM calls.
// Candidates are split into fixed-size chunks that run concurrently; a failed chunk
// contributes nothing and never affects its siblings.
package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jonathan/warm-intros/internal/config"
	"github.com/jonathan/warm-intros/internal/llm"
	"github.com/jonathan/warm-intros/internal/logger"
	"github.com/jonathan/warm-intros/internal/types"
)

// Candidate is one company sent for classification
type Candidate struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
}

// Classification is the classifier's verdict for one candidate
type Classification struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Results maps candidate id to its classification
type Results map[string]Classification

// Report is the outcome of one Classify call
type Report struct {
	Results      Results
	Chunks       int
	FailedChunks int
	CacheHits    int
}

// Cache stores classifications across runs. Implementations should treat
// missing keys as absent from the returned map, not as errors.
type Cache interface {
	GetMany(ctx context.Context, keys []string) (map[string]Classification, error)
	SetMany(ctx context.Context, entries map[string]Classification) error
}

// Option customizes a Classifier
type Option func(*Classifier)

// WithCache enables result caching.
func WithCache(c Cache) Option {
	return func(cl *Classifier) { cl.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(cl *Classifier) { cl.log = logger.OrNop(l) }
}

// WithRetryBackoff sets the base delay between rate-limited retries.
func WithRetryBackoff(d time.Duration) Option {
	return func(cl *Classifier) { cl.backoff = d }
}

// WithTier selects the model tier used for classification.
func WithTier(t llm.ModelTier) Option {
	return func(cl *Classifier) { cl.tier = t }
}

// Classifier dispatches chunked classification requests
type Classifier struct {
	client  llm.Client
	cfg     config.ClassifierConfig
	limiter *rate.Limiter
	cache   Cache
	log     *logger.Logger
	backoff time.Duration
	tier    llm.ModelTier
}

// New creates a Classifier. The rate limiter is shared by every call made through it.
func New(client llm.Client, cfg config.ClassifierConfig, opts ...Option) *Classifier {
	cfg = normalize(cfg)

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}

	c := &Classifier{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		log:     logger.Nop(),
		backoff: 500 * time.Millisecond,
		tier:    llm.TierLite,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "classifier")
	return c
}

func normalize(cfg config.ClassifierConfig) config.ClassifierConfig {
	def := config.Default().Classifier
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkTimeout <= 0 {
		cfg.ChunkTimeout = def.ChunkTimeout
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return cfg
}

// Classify scores candidates against icp. It never fails: chunk errors are logged and
// degrade to empty contributions. A nil icp or empty candidate list issues no requests.
func (c *Classifier) Classify(ctx context.Context, icp *types.ICPProfile, candidates []Candidate) Report {
	report := Report{Results: make(Results)}
	if icp == nil || len(candidates) == 0 {
		return report
	}

	fingerprint := icp.Fingerprint()
	pending := c.fromCache(ctx, fingerprint, candidates, &report)
	if len(pending) == 0 {
		return report
	}

	chunks := Partition(pending, c.cfg.ChunkSize)
	report.Chunks = len(chunks)
	partials := make([]Results, len(chunks))

	// Plain Group: a failing chunk must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(c.cfg.MaxConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := c.classifyChunk(ctx, icp, i, chunk)
			if err != nil {
				c.log.Warn("classification chunk failed",
					"chunk", i, "candidates", len(chunk), "error", err)
				return nil
			}
			partials[i] = res
			return nil
		})
	}
	_ = g.Wait()

	fresh := make(map[string]Classification)
	for i, part := range partials {
		if part == nil {
			report.FailedChunks++
			continue
		}
		for _, cand := range chunks[i] {
			verdict, ok := part[cand.ID]
			if !ok {
				verdict = Classification{Score: 0, Reasons: []string{}}
			}
			fresh[cacheKey(fingerprint, cand)] = verdict
		}
		for id, verdict := range part {
			report.Results[id] = verdict
		}
	}

	c.toCache(ctx, fresh)

	c.log.Info("classification finished",
		"candidates", len(candidates),
		"chunks", report.Chunks,
		"failed_chunks", report.FailedChunks,
		"cache_hits", report.CacheHits,
		"matches", len(report.Results))
	return report
}

// classifyChunk classifies one chunk inside the chunk timeout. A malformed payload
// gets one more request with the stricter retry prompt before the chunk is given up.
func (c *Classifier) classifyChunk(ctx context.Context, icp *types.ICPProfile, index int, chunk []Candidate) (Results, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ChunkTimeout)
	defer cancel()

	prompt, err := buildPrompt(icp, chunk)
	if err != nil {
		return nil, &ChunkError{Chunk: index, Size: len(chunk), Message: "failed to build prompt", Cause: err}
	}

	raw, err := c.request(ctx, index, chunk, prompt)
	if err != nil {
		return nil, err
	}
	res, parseErr := parseResponse(raw, chunk)
	if parseErr == nil {
		return res, nil
	}

	c.log.Debug("malformed classification payload, retrying", "chunk", index, "error", parseErr)
	prompt, err = buildRetryPrompt(icp, chunk)
	if err != nil {
		return nil, &ChunkError{Chunk: index, Size: len(chunk), Message: "failed to build retry prompt", Cause: errors.Join(parseErr, err)}
	}
	raw, err = c.request(ctx, index, chunk, prompt)
	if err != nil {
		return nil, err
	}
	res, err = parseResponse(raw, chunk)
	if err != nil {
		return nil, &ChunkError{Chunk: index, Size: len(chunk), Message: "malformed classification payload", Cause: err}
	}
	return res, nil
}

// request sends prompt, retrying rate-limit errors with exponential backoff until ctx ends.
func (c *Classifier) request(ctx context.Context, index int, chunk []Candidate, prompt string) (string, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &ChunkError{Chunk: index, Size: len(chunk), Message: "rate limiter wait aborted", Cause: err}
		}

		raw, err := c.client.GenerateJSON(ctx, prompt, c.tier)
		if err == nil {
			return raw, nil
		}
		if !llm.IsRateLimitError(err) || attempt >= c.cfg.MaxRetries {
			return "", &ChunkError{Chunk: index, Size: len(chunk), Message: "classification request failed", Cause: err}
		}

		delay := c.backoff << attempt
		c.log.Debug("rate limited, retrying", "chunk", index, "attempt", attempt+1, "delay", delay)
		select {
		case <-ctx.Done():
			return "", &ChunkError{Chunk: index, Size: len(chunk), Message: "timed out waiting to retry", Cause: errors.Join(err, ctx.Err())}
		case <-time.After(delay):
		}
	}
}

func (c *Classifier) fromCache(ctx context.Context, fingerprint string, candidates []Candidate, report *Report) []Candidate {
	if c.cache == nil {
		return candidates
	}

	keys := make([]string, len(candidates))
	for i, cand := range candidates {
		keys[i] = cacheKey(fingerprint, cand)
	}
	hits, err := c.cache.GetMany(ctx, keys)
	if err != nil {
		c.log.Warn("classification cache read failed", "error", err)
		return candidates
	}

	pending := make([]Candidate, 0, len(candidates))
	for i, cand := range candidates {
		verdict, ok := hits[keys[i]]
		if !ok {
			pending = append(pending, cand)
			continue
		}
		report.CacheHits++
		if verdict.Score > 0 {
			report.Results[cand.ID] = verdict
		}
	}
	return pending
}

func (c *Classifier) toCache(ctx context.Context, entries map[string]Classification) {
	if c.cache == nil || len(entries) == 0 {
		return
	}
	if err := c.cache.SetMany(ctx, entries); err != nil {
		c.log.Warn("classification cache write failed", "entries", len(entries), "error", err)
	}
}

// Partition splits candidates into consecutive chunks of at most size.
func Partition(candidates []Candidate, size int) [][]Candidate {
	if size <= 0 {
		size = len(candidates)
	}
	var chunks [][]Candidate
	for start := 0; start < len(candidates); start += size {
		end := min(start+size, len(candidates))
		chunks = append(chunks, candidates[start:end])
	}
	return chunks
}

// cacheKey identifies a candidate under one ICP, independent of candidate ids.
func cacheKey(fingerprint string, cand Candidate) string {
	sum := sha256.Sum256([]byte(fingerprint + "|" +
		strings.ToLower(strings.TrimSpace(cand.Name)) + "|" +
		strings.ToLower(strings.TrimSpace(cand.Domain))))
	return hex.EncodeToString(sum[:])
}
