package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// fakeGenerator records prompts and replies from a script of errors.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	errs    []error // consumed one per call; nil entries succeed
	reply   func(prompt string) string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if f.reply != nil {
		return f.reply(prompt), nil
	}
	return "Hi! How can I help?", nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func newTestPipeline(gen domain.Generator, opts ...PipelineOption) *Pipeline {
	base := []PipelineOption{
		WithClock(clock.NewMock()),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3}),
	}
	return NewPipeline(gen, logger.New(logger.LevelOff, nil), append(base, opts...)...)
}

func TestPipelineSanitizesBeforePrompting(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestPipeline(gen)

	_, err := p.Generate(context.Background(), "s1", "<script>alert(1)</script>hello", domain.PlatformContext{})
	require.NoError(t, err)

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "User: hello\n")
	assert.NotContains(t, prompt, "<script>")
	assert.NotContains(t, prompt, "alert(1)")
}

func TestPipelineRejectsEmptyAfterSanitize(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestPipeline(gen)

	_, err := p.Generate(context.Background(), "s1", "<script>x</script>   ", domain.PlatformContext{})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, gen.calls())
}

func TestPipelineRetriesTransientFailures(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantErr   bool
		wantCalls int
	}{
		{"network then ok", []error{&domain.NetworkError{Op: "generate", Err: errors.New("reset")}}, false, 2},
		{"two 503 then ok", []error{&domain.APIError{StatusCode: 503}, &domain.APIError{StatusCode: 503}}, false, 3},
		{"always 500", []error{
			&domain.APIError{StatusCode: 500}, &domain.APIError{StatusCode: 500}, &domain.APIError{StatusCode: 500},
		}, true, 3},
		{"bad request not retried", []error{&domain.APIError{StatusCode: 400, Permanent: true}}, true, 1},
		{"blocked not retried", []error{&domain.APIError{Message: "blocked", Permanent: true}}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{errs: tt.errs}
			p := newTestPipeline(gen)

			_, err := p.Generate(context.Background(), "s1", "hi", domain.PlatformContext{})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, gen.calls())

			minute, _ := p.Limiter().Counts()
			assert.Equal(t, tt.wantCalls, minute, "every dispatched attempt counts")
		})
	}
}

func TestPipelineBacksOffOnClock(t *testing.T) {
	mock := clock.NewMock()
	gen := &fakeGenerator{errs: []error{&domain.APIError{StatusCode: 503}}}
	p := newTestPipeline(gen, WithClock(mock), WithRetryPolicy(RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}))

	done := make(chan error, 1)
	go func() {
		_, err := p.Generate(context.Background(), "s1", "hi", domain.PlatformContext{})
		done <- err
	}()

	require.Eventually(t, func() bool { return gen.calls() == 1 }, time.Second, time.Millisecond)
	// Keep nudging the mock until the waiting retry fires.
	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		return gen.calls() == 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, <-done)
}

func TestPipelineRateLimitFailsFast(t *testing.T) {
	mock := clock.NewMock()
	gen := &fakeGenerator{}
	p := newTestPipeline(gen, WithClock(mock))
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := p.Generate(ctx, "s1", fmt.Sprintf("message %d", i), domain.PlatformContext{})
		require.NoError(t, err)
	}

	_, err := p.Generate(ctx, "s1", "one more", domain.PlatformContext{})
	var rl *domain.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "minute", rl.Window)
	assert.Equal(t, 60, gen.calls(), "rejected request must not reach the generator")

	mock.Add(time.Minute + time.Second)
	_, err = p.Generate(ctx, "s1", "after the window", domain.PlatformContext{})
	require.NoError(t, err)
	assert.Equal(t, 61, gen.calls())
}

func TestPipelineRateLimitNotRetried(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestPipeline(gen, WithRateLimits(RateLimits{PerMinute: 1, PerHour: 10}))
	ctx := context.Background()

	_, err := p.Generate(ctx, "s1", "first", domain.PlatformContext{})
	require.NoError(t, err)
	_, err = p.Generate(ctx, "s1", "second", domain.PlatformContext{})
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.False(t, domain.IsRetryable(err))
	assert.Equal(t, 1, gen.calls())
}

func TestPipelineRetryRespectsRateLimit(t *testing.T) {
	gen := &fakeGenerator{errs: []error{
		&domain.NetworkError{Op: "generate", Err: errors.New("reset")},
		&domain.NetworkError{Op: "generate", Err: errors.New("reset")},
	}}
	p := newTestPipeline(gen, WithRateLimits(RateLimits{PerMinute: 2, PerHour: 10}))
	p.Limiter().Record() // one slot left

	_, err := p.Generate(context.Background(), "s1", "hi", domain.PlatformContext{})
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 1, gen.calls(), "the retry must not be dispatched over the ceiling")

	minute, _ := p.Limiter().Counts()
	assert.Equal(t, 2, minute)
	assert.Empty(t, p.ConversationHistory("s1"))
}

func TestPipelineHistoryIsBounded(t *testing.T) {
	gen := &fakeGenerator{reply: func(prompt string) string { return "ok" }}
	p := newTestPipeline(gen, WithRateLimits(RateLimits{}))
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := p.Generate(ctx, "s1", fmt.Sprintf("message %d", i), domain.PlatformContext{})
		require.NoError(t, err)
	}

	turns := p.ConversationHistory("s1")
	require.Len(t, turns, MaxHistoryTurns)
	last := turns[len(turns)-2]
	assert.Equal(t, domain.RoleUser, last.Role)
	assert.Equal(t, "message 59", last.Text)
	assert.Equal(t, "message 35", turns[0].Text)
}

func TestPipelinePromptUsesRecentTurns(t *testing.T) {
	gen := &fakeGenerator{reply: func(prompt string) string { return "ok" }}
	p := newTestPipeline(gen)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := p.Generate(ctx, "s1", fmt.Sprintf("message %d", i), domain.PlatformContext{})
		require.NoError(t, err)
	}
	_, err := p.Generate(ctx, "s1", "latest", domain.PlatformContext{})
	require.NoError(t, err)

	prompt := gen.lastPrompt()
	// 10 turns = the last 5 exchanges.
	assert.NotContains(t, prompt, "message 2\n")
	assert.Contains(t, prompt, "User: message 3\n")
	assert.Contains(t, prompt, "User: message 7\n")
	assert.True(t, strings.HasSuffix(prompt, "User: latest\nAssistant:"))
}

func TestPipelineSessionsAreIsolated(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestPipeline(gen)
	ctx := context.Background()

	_, err := p.Generate(ctx, "a", "from a", domain.PlatformContext{})
	require.NoError(t, err)
	_, err = p.Generate(ctx, "b", "from b", domain.PlatformContext{})
	require.NoError(t, err)

	assert.NotContains(t, gen.lastPrompt(), "from a")
	assert.Len(t, p.ConversationHistory("a"), 2)

	p.ClearHistory("a")
	assert.Empty(t, p.ConversationHistory("a"))
	assert.Len(t, p.ConversationHistory("b"), 2)
}

// wordCounter counts whitespace separated words.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func TestPipelineTokenBudgetDropsOldestTurns(t *testing.T) {
	gen := &fakeGenerator{reply: func(prompt string) string { return "ok" }}
	p := newTestPipeline(gen)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := p.Generate(ctx, "s1", fmt.Sprintf("turn%d %s", i, strings.Repeat("pad ", 50)), domain.PlatformContext{})
		require.NoError(t, err)
	}

	bare := composePrompt(domain.PlatformContext{}, nil, "final")
	budgeted := newTestPipeline(gen, WithTokenBudget(wordCounter{}, wordCounter{}.Count(bare)+60))
	budgeted.history = p.history

	_, err := budgeted.Generate(ctx, "s1", "final", domain.PlatformContext{})
	require.NoError(t, err)

	prompt := gen.lastPrompt()
	assert.Contains(t, prompt, "turn3")
	assert.NotContains(t, prompt, "turn0")
	assert.NotContains(t, prompt, "turn2")
}

func TestPipelineConcurrentGenerate(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestPipeline(gen, WithRateLimits(RateLimits{}))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := p.Generate(ctx, "s1", fmt.Sprintf("m%d", i), domain.PlatformContext{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	turns := p.ConversationHistory("s1")
	require.Len(t, turns, 40)
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, domain.RoleUser, turns[i].Role)
		assert.Equal(t, domain.RoleModel, turns[i+1].Role)
	}
}
