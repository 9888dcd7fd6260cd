package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/harvest/models"
)

func TestAttemptState_Transitions(t *testing.T) {
	navErr := models.NewScrapeError(models.ErrCodeNavigation, "failed to navigate", errors.New("reset"))

	st := newAttemptState(3)
	assert.Equal(t, phaseAttempting, st.phase)
	assert.Equal(t, 1, st.attempt)

	st = st.advance(nil, navErr)
	assert.Equal(t, phaseAttempting, st.phase)
	assert.Equal(t, 2, st.attempt)
	assert.Equal(t, "Attempt 1/3: failed to navigate: reset", st.lastErr)

	st = st.advance(nil, navErr)
	assert.Equal(t, 3, st.attempt)

	st = st.advance(nil, navErr)
	assert.Equal(t, phaseFailed, st.phase)
	assert.Equal(t, "Attempt 3/3: failed to navigate: reset", st.lastErr)
	assert.Equal(t, models.ErrCodeNavigation, st.lastCode)

	// Terminal states do not move.
	assert.Equal(t, st, st.advance(&models.ScrapedContent{}, nil))
}

func TestAttemptState_SuccessOnLastAttempt(t *testing.T) {
	content := &models.ScrapedContent{URL: "https://example.com"}
	st := newAttemptState(2).advance(nil, errors.New("x")).advance(content, nil)

	res := st.result(2)
	assert.True(t, res.Success)
	assert.Same(t, content, res.Content)
	assert.Empty(t, res.Error)
	assert.Equal(t, 2, res.Attempts)
}

func TestAttemptState_NonRetryableStops(t *testing.T) {
	st := newAttemptState(5).advance(nil, models.NewScrapeError(models.ErrCodeCanceled, "request canceled", nil))

	assert.Equal(t, phaseFailed, st.phase)
	assert.Equal(t, 1, st.attempt)
}

func TestAttemptState_ClampsMax(t *testing.T) {
	st := newAttemptState(0)
	assert.Equal(t, 1, st.max)
	assert.Equal(t, phaseFailed, st.advance(nil, errors.New("x")).phase)
}

func TestAttemptState_PlainErrorIsInternal(t *testing.T) {
	res := newAttemptState(1).advance(nil, errors.New("weird")).result(1)

	assert.False(t, res.Success)
	assert.Nil(t, res.Content)
	assert.Equal(t, models.ErrCodeInternal, res.Code)
	assert.Equal(t, "Attempt 1/1: weird", res.Error)
}

func TestInterrupted(t *testing.T) {
	res := interrupted(context.Background(), 3).result(2)
	assert.Equal(t, models.ErrCodeOverallTimeout, res.Code)
	assert.Equal(t, "Overall timeout exceeded", res.Error)
	assert.Equal(t, 2, res.Attempts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = interrupted(ctx, 3).result(1)
	assert.Equal(t, models.ErrCodeCanceled, res.Code)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(time.Second, 1))
	assert.Equal(t, 2*time.Second, backoff(time.Second, 2))
	assert.Equal(t, 4*time.Second, backoff(time.Second, 3))
	assert.Equal(t, time.Duration(0), backoff(time.Second, 0))
	assert.Equal(t, time.Duration(0), backoff(0, 3))
	assert.Equal(t, backoff(time.Millisecond, 16), backoff(time.Millisecond, 40))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "attempting", phaseAttempting.String())
	assert.Equal(t, "succeeded", phaseSucceeded.String())
	assert.Equal(t, "failed", phaseFailed.String())
	assert.Equal(t, "phase(9)", phase(9).String())
}
