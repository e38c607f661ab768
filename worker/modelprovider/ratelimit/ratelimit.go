// Package ratelimit wraps a worker.LanguageModel with an adaptive
// tokens-per-minute budget, so a Runner never needs to know whether its
// model client is throttled.
package ratelimit

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/zby/golem-forge-sub002/worker"
)

// Limiter applies an AIMD-style adaptive token bucket in front of a
// worker.LanguageModel: it estimates the token cost of each request, blocks
// the caller until capacity is available, and halves its budget whenever the
// provider reports a rate-limit error, recovering gradually on success.
//
// Unlike the teacher's cluster-aware limiter (which coordinates a shared
// budget across processes via a replicated map), this one is process-local:
// a single workerctl process has no peers to coordinate with.
type Limiter struct {
	mu sync.Mutex

	limiter *rate.Limiter

	currentTPM   float64
	minTPM       float64
	maxTPM       float64
	recoveryRate float64
}

// New constructs a Limiter with an initial tokens-per-minute budget and an
// upper bound. A non-positive initialTPM defaults to 60000; maxTPM is
// clamped up to initialTPM if given lower.
func New(initialTPM, maxTPM float64) *Limiter {
	if initialTPM <= 0 {
		initialTPM = 60000
	}
	if maxTPM <= 0 || maxTPM < initialTPM {
		maxTPM = initialTPM
	}
	minTPM := initialTPM * 0.1
	if minTPM < 1 {
		minTPM = 1
	}
	recoveryRate := initialTPM * 0.05
	if recoveryRate < 1 {
		recoveryRate = 1
	}
	return &Limiter{
		limiter:      rate.NewLimiter(rate.Limit(initialTPM/60.0), int(initialTPM)),
		currentTPM:   initialTPM,
		minTPM:       minTPM,
		maxTPM:       maxTPM,
		recoveryRate: recoveryRate,
	}
}

// Wrap returns a worker.LanguageModel that enforces l's budget before
// delegating each Generate call to next.
func (l *Limiter) Wrap(next worker.LanguageModel) worker.LanguageModel {
	if next == nil {
		return nil
	}
	return &limitedModel{next: next, limiter: l}
}

type limitedModel struct {
	next    worker.LanguageModel
	limiter *Limiter
}

func (m *limitedModel) Generate(ctx context.Context, messages []worker.Message, tools []worker.ToolDescriptor) (*worker.ModelResponse, error) {
	if err := m.limiter.wait(ctx, messages); err != nil {
		return nil, err
	}
	resp, err := m.next.Generate(ctx, messages, tools)
	m.limiter.observe(err)
	return resp, err
}

func (l *Limiter) wait(ctx context.Context, messages []worker.Message) error {
	// WaitN fails at once for n above the burst, so a request estimated
	// larger than the whole budget waits for a full bucket instead.
	n := estimateTokens(messages)
	if burst := l.limiter.Burst(); n > burst {
		n = burst
	}
	return l.limiter.WaitN(ctx, n)
}

func (l *Limiter) observe(err error) {
	if err == nil {
		l.probe()
		return
	}
	if isRateLimited(err) {
		l.backoff()
	}
}

func (l *Limiter) backoff() {
	l.mu.Lock()
	defer l.mu.Unlock()

	newTPM := l.currentTPM * 0.5
	if newTPM < l.minTPM {
		newTPM = l.minTPM
	}
	if newTPM == l.currentTPM {
		return
	}
	l.currentTPM = newTPM
	l.limiter.SetLimit(rate.Limit(newTPM / 60.0))
	l.limiter.SetBurst(int(newTPM))
}

func (l *Limiter) probe() {
	l.mu.Lock()
	defer l.mu.Unlock()

	newTPM := l.currentTPM + l.recoveryRate
	if newTPM > l.maxTPM {
		newTPM = l.maxTPM
	}
	if newTPM == l.currentTPM {
		return
	}
	l.currentTPM = newTPM
	l.limiter.SetLimit(rate.Limit(newTPM / 60.0))
	l.limiter.SetBurst(int(newTPM))
}

// isRateLimited reports whether err looks like a provider rate-limit
// response. Provider SDKs vary in how they surface this, so this matches on
// the wording providers commonly use rather than a specific error type.
func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

// estimateTokens computes a cheap heuristic for the number of tokens in a
// conversation: it counts characters across text parts and tool results,
// converts to tokens at a fixed ratio, and adds a flat buffer for system
// prompts and provider framing.
func estimateTokens(messages []worker.Message) int {
	charCount := 0
	for _, m := range messages {
		switch v := m.(type) {
		case worker.SystemMessage:
			charCount += len(v.Text)
		case worker.UserMessage:
			for _, p := range v.Parts {
				if tp, ok := p.(worker.TextPart); ok {
					charCount += len(tp.Text)
				}
			}
		case worker.AssistantMessage:
			for _, p := range v.Parts {
				if tp, ok := p.(worker.TextPart); ok {
					charCount += len(tp.Text)
				}
			}
		case worker.ToolMessage:
			for _, r := range v.Results {
				if r.Output != nil {
					charCount += len(r.Output.Summary())
				}
				charCount += len(r.Error)
			}
		}
	}
	if charCount <= 0 {
		return 500
	}
	tokens := charCount / 3
	if tokens < 1 {
		tokens = 1
	}
	return tokens + 500
}
