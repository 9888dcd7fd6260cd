package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/use-agent/harvest/models"
)

// phase is the state of a single URL's retry sequence.
type phase int

const (
	phaseAttempting phase = iota
	phaseSucceeded
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseAttempting:
		return "attempting"
	case phaseSucceeded:
		return "succeeded"
	case phaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// attemptState is the retry state machine:
//
//	Attempting(n) --ok--------------------> Succeeded
//	Attempting(n) --err, n < max----------> Attempting(n+1)
//	Attempting(n) --err, n == max---------> Failed
//	Attempting(n) --non-retryable err-----> Failed
//
// Transitions are pure; the caller performs the attempts and waits.
type attemptState struct {
	phase   phase
	attempt int // current attempt number, 1-based
	max     int

	content *models.ScrapedContent

	lastCode string
	lastErr  string // "Attempt k/max: <cause>" of the latest failure
}

func newAttemptState(maxAttempts int) attemptState {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return attemptState{phase: phaseAttempting, attempt: 1, max: maxAttempts}
}

// advance applies the outcome of the current attempt.
func (s attemptState) advance(content *models.ScrapedContent, err error) attemptState {
	if s.phase != phaseAttempting {
		return s
	}
	if err == nil {
		s.phase = phaseSucceeded
		s.content = content
		return s
	}

	s.lastCode = models.CodeOf(err)
	s.lastErr = fmt.Sprintf("Attempt %d/%d: %s", s.attempt, s.max, causeOf(err))

	if s.attempt >= s.max || !retryable(err) {
		s.phase = phaseFailed
		return s
	}
	s.attempt++
	return s
}

// interrupted is the terminal state when the per-URL budget runs out or
// the caller cancels.
func interrupted(parent context.Context, maxAttempts int) attemptState {
	s := attemptState{phase: phaseFailed, max: maxAttempts}
	if parent.Err() != nil {
		s.lastCode = models.ErrCodeCanceled
		s.lastErr = "Request canceled"
	} else {
		s.lastCode = models.ErrCodeOverallTimeout
		s.lastErr = "Overall timeout exceeded"
	}
	return s
}

// result converts a terminal state into an envelope. attempts is the
// number of attempts that were started.
func (s attemptState) result(attempts int) models.ScrapeResult {
	if s.phase == phaseSucceeded {
		return models.Succeeded(s.content, attempts)
	}
	code, msg := s.lastCode, s.lastErr
	if code == "" {
		code = models.ErrCodeInternal
	}
	if msg == "" {
		msg = "scrape did not complete"
	}
	return models.Failed(code, msg, attempts)
}

// backoff is the wait after failed attempt n: base * 2^(n-1).
func backoff(base time.Duration, n int) time.Duration {
	if n < 1 || base <= 0 {
		return 0
	}
	if n > 16 {
		n = 16
	}
	return base << (n - 1)
}

func retryable(err error) bool {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

func causeOf(err error) string {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.Cause()
	}
	return err.Error()
}
