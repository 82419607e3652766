package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/facebookgo/clock"

	"github.com/hammamikhairi/foodify/internal/domain"
)

func TestRateLimiterMinuteWindow(t *testing.T) {
	mock := clock.NewMock()
	rl := NewRateLimiter(RateLimits{PerMinute: 3, PerHour: 100}, mock)

	for i := 0; i < 3; i++ {
		if err := rl.Allow(); err != nil {
			t.Fatalf("request %d rejected: %v", i, err)
		}
		rl.Record()
		mock.Add(time.Second)
	}

	err := rl.Allow()
	var rle *domain.RateLimitError
	if !errors.As(err, &rle) || rle.Window != "minute" {
		t.Fatalf("expected minute RateLimitError, got %v", err)
	}

	// Rejections are not counted.
	if m, _ := rl.Counts(); m != 3 {
		t.Fatalf("expected minute count 3, got %d", m)
	}

	mock.Add(time.Minute + time.Second)
	if err := rl.Allow(); err != nil {
		t.Fatalf("expected window reset, got %v", err)
	}
	if m, h := rl.Counts(); m != 0 || h != 3 {
		t.Fatalf("expected counts 0/3, got %d/%d", m, h)
	}
}

func TestRateLimiterResetFollowsLastRequest(t *testing.T) {
	mock := clock.NewMock()
	rl := NewRateLimiter(RateLimits{PerMinute: 2, PerHour: 100}, mock)

	rl.Record()
	mock.Add(50 * time.Second)
	rl.Record()
	mock.Add(50 * time.Second)

	// 100s after the first request but only 50s after the last one.
	if err := rl.Allow(); err == nil {
		t.Fatal("expected rejection while the last request is within the window")
	}
}

func TestRateLimiterHourWindow(t *testing.T) {
	mock := clock.NewMock()
	rl := NewRateLimiter(RateLimits{PerMinute: 100, PerHour: 2}, mock)

	rl.Record()
	rl.Record()

	err := rl.Allow()
	var rle *domain.RateLimitError
	if !errors.As(err, &rle) || rle.Window != "hour" {
		t.Fatalf("expected hour RateLimitError, got %v", err)
	}
	if domain.IsRetryable(err) {
		t.Fatal("rate limit errors must not be retried")
	}

	mock.Add(2 * time.Minute)
	if rl.Allow() == nil {
		t.Fatal("hour window should still be full")
	}
	mock.Add(time.Hour)
	if err := rl.Allow(); err != nil {
		t.Fatalf("expected hour window reset, got %v", err)
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
	if p.Delay(0) != time.Second || p.Delay(1) != 2*time.Second || p.Delay(2) != 4*time.Second {
		t.Fatalf("unexpected delays %v %v %v", p.Delay(0), p.Delay(1), p.Delay(2))
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}

	attempts := 0
	err := p.Do(ctx, clock.NewMock(), func(ctx context.Context, attempt int) error {
		attempts++
		cancel()
		return &domain.NetworkError{Op: "test", Err: errors.New("down")}
	})
	if err == nil || attempts != 1 {
		t.Fatalf("expected a single attempt and an error, got %d, %v", attempts, err)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  hello  ", "hello"},
		{"script block", "<script>alert(1)</script>hello", "hello"},
		{"script with attrs", `hi <SCRIPT type="text/javascript">x()</SCRIPT> there`, "hi  there"},
		{"dangling tag", "<script src=x>hello", "hello"},
		{"javascript uri", `<a href="javascript:alert(1)">x</a>`, `<a href="alert(1)">x</a>`},
		{"event handler", `<img src=x onerror="alert(1)">`, `<img src=x>`},
		{"several handlers", `<b onclick=go() onmouseover='x'>hi</b>`, `<b>hi</b>`},
		{"split script tag", "<scr<script>ipt>alert(1)hello", "alert(1)hello"},
		{"split javascript uri", "javajavascript:script:alert(1)", "alert(1)"},
		{"handler-like text kept", "only=2 and online = yes", "only=2 and online = yes"},
		{"only script", "<script>bad()</script>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeTruncates(t *testing.T) {
	long := strings.Repeat("é", MaxMessageLength+50)
	got := Sanitize(long)
	if n := len([]rune(got)); n != MaxMessageLength {
		t.Fatalf("expected %d runes, got %d", MaxMessageLength, n)
	}
}

func TestHistoryBound(t *testing.T) {
	h := NewHistory(4)
	for i := 0; i < 6; i++ {
		h.Append("s", domain.Turn{Role: domain.RoleUser, Text: string(rune('a' + i))})
	}
	all := h.All("s")
	if len(all) != 4 || all[0].Text != "c" || all[3].Text != "f" {
		t.Fatalf("unexpected history %+v", all)
	}
	if r := h.Recent("s", 2); len(r) != 2 || r[0].Text != "e" {
		t.Fatalf("unexpected recent turns %+v", r)
	}
	h.Clear("s")
	if len(h.All("s")) != 0 {
		t.Fatal("expected empty history after clear")
	}
}
