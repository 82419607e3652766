// Package chat implements the assistant's request pipeline and the chat
// session built on top of it.
package chat

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"golang.org/x/time/rate"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// PipelineOption configures the pipeline.
type PipelineOption func(*Pipeline)

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p RetryPolicy) PipelineOption {
	return func(pl *Pipeline) {
		pl.retry = p
	}
}

// WithRateLimits overrides the request ceilings.
func WithRateLimits(l RateLimits) PipelineOption {
	return func(pl *Pipeline) {
		pl.limits = l
	}
}

// WithClock sets the clock used for rate limiting, backoff and timestamps.
func WithClock(c clock.Clock) PipelineOption {
	return func(pl *Pipeline) {
		pl.clock = c
	}
}

// WithTokenBudget drops the oldest history turns while the prompt is over
// budget tokens. A budget of 0 disables trimming.
func WithTokenBudget(counter TokenCounter, budget int) PipelineOption {
	return func(pl *Pipeline) {
		pl.tokens = counter
		pl.budget = budget
	}
}

// WithHistoryLimit sets how many turns each session keeps.
func WithHistoryLimit(n int) PipelineOption {
	return func(pl *Pipeline) {
		pl.historyMax = n
	}
}

// Pipeline turns a user message and a platform snapshot into a reply:
// sanitize, rate check, compose, generate with retry, record history.
// Safe for concurrent use.
type Pipeline struct {
	gen        domain.Generator
	log        *logger.Logger
	clock      clock.Clock
	limits     RateLimits
	limiter    *RateLimiter
	retry      RetryPolicy
	history    *History
	historyMax int
	tokens     TokenCounter
	budget     int
	rejectLog  rate.Sometimes
}

// NewPipeline creates a pipeline around a generator.
func NewPipeline(gen domain.Generator, log *logger.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		gen:        gen,
		log:        log.With("component", "chat"),
		clock:      clock.New(),
		limits:     DefaultRateLimits(),
		retry:      DefaultRetryPolicy(),
		historyMax: MaxHistoryTurns,
		rejectLog:  rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.limiter = NewRateLimiter(p.limits, p.clock)
	p.history = NewHistory(p.historyMax)
	return p
}

// Limiter exposes the pipeline's rate limiter.
func (p *Pipeline) Limiter() *RateLimiter {
	return p.limiter
}

// Generate returns the assistant's reply to text. Validation and rate
// limit failures return immediately without calling the generator;
// transient failures are retried per the retry policy.
func (p *Pipeline) Generate(ctx context.Context, sessionID, text string, pc domain.PlatformContext) (string, error) {
	clean := Sanitize(text)
	if clean == "" {
		return "", &domain.ValidationError{Field: "message", Msg: "message is empty after sanitizing"}
	}

	if err := p.limiter.Allow(); err != nil {
		p.rejectLog.Do(func() {
			p.log.Warn("session %s: %v", sessionID, err)
		})
		return "", err
	}

	prompt := p.compose(sessionID, clean, pc)

	var reply string
	err := p.retry.Do(ctx, p.clock, func(ctx context.Context, attempt int) error {
		if attempt > 0 {
			if err := p.limiter.Allow(); err != nil {
				p.log.Warn("session %s: retry %d refused: %v", sessionID, attempt, err)
				return err
			}
			p.log.Debug("session %s: retry %d", sessionID, attempt)
		}
		p.limiter.Record()
		out, err := p.gen.Generate(ctx, prompt)
		if err != nil {
			p.log.Warn("session %s: attempt %d failed: %v", sessionID, attempt+1, err)
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		return "", err
	}

	now := p.clock.Now()
	p.history.Append(sessionID,
		domain.Turn{Role: domain.RoleUser, Text: clean, At: now},
		domain.Turn{Role: domain.RoleModel, Text: reply, At: now},
	)
	return reply, nil
}

// compose builds the prompt, dropping old turns while it is over the
// token budget.
func (p *Pipeline) compose(sessionID, message string, pc domain.PlatformContext) string {
	turns := p.history.Recent(sessionID, PromptHistoryTurns)
	prompt := composePrompt(pc, turns, message)
	if p.tokens == nil || p.budget <= 0 {
		return prompt
	}
	for len(turns) > 0 && p.tokens.Count(prompt) > p.budget {
		turns = turns[1:]
		prompt = composePrompt(pc, turns, message)
	}
	p.log.Debug("session %s: prompt uses %d history turns", sessionID, len(turns))
	return prompt
}

// ConversationHistory returns the stored turns of a session, oldest first.
func (p *Pipeline) ConversationHistory(sessionID string) []domain.Turn {
	return p.history.All(sessionID)
}

// ClearHistory forgets a session's turns.
func (p *Pipeline) ClearHistory(sessionID string) {
	p.history.Clear(sessionID)
}
