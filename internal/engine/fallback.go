package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/docufin/docufin/internal/document"
)

// CoordinatorConfig configures the fallback chain.
type CoordinatorConfig struct {
	// Engines in priority order. The coordinator holds exactly this list;
	// there is no process-wide engine registry.
	Engines []Engine

	// Threshold is the confidence a result must meet to be accepted
	// without falling back to the next engine.
	Threshold float64

	// Attempts is the per-engine retry budget (including the first try).
	Attempts uint

	// RetryDelay is the base backoff delay between attempts.
	RetryDelay time.Duration

	// Timeout bounds each individual engine attempt. Zero means the
	// caller's context deadline applies alone.
	Timeout time.Duration

	Logger *slog.Logger
}

// Coordinator tries engines in priority order until one meets the
// confidence threshold. Deterministic: no randomness, no concurrency
// between engines on the same page.
type Coordinator struct {
	engines    []Engine
	threshold  float64
	attempts   uint
	retryDelay time.Duration
	timeout    time.Duration
	logger     *slog.Logger
}

// NewCoordinator creates a Coordinator over an ordered engine list.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 2
	}
	delay := cfg.RetryDelay
	if delay == 0 {
		delay = time.Second
	}
	return &Coordinator{
		engines:    cfg.Engines,
		threshold:  cfg.Threshold,
		attempts:   attempts,
		retryDelay: delay,
		timeout:    cfg.Timeout,
		logger:     logger,
	}
}

// Engines returns the configured priority order.
func (c *Coordinator) Engines() []Engine { return c.engines }

// Recognize runs the fallback chain for one page image.
//
// The first result meeting the threshold wins. Engines that fail after
// retries contribute a warning and the chain moves on. If no result meets
// the threshold the highest-confidence result is returned with
// BelowThreshold set; ties go to the engine earlier in priority order.
// Only when every engine fails outright does Recognize return an error.
func (c *Coordinator) Recognize(ctx context.Context, img document.PageImage, lang string) (document.PageText, []document.Warning, error) {
	if len(c.engines) == 0 {
		return document.PageText{}, nil, newError("fallback", "no engines configured", nil)
	}

	var (
		warnings []document.Warning
		best     document.PageText
		haveBest bool
	)

	for _, eng := range c.engines {
		if err := ctx.Err(); err != nil {
			return document.PageText{}, warnings, err
		}

		result, err := c.tryEngine(ctx, eng, img, lang)
		if err != nil {
			if ctx.Err() != nil {
				return document.PageText{}, warnings, ctx.Err()
			}
			warnings = append(warnings, document.Warning{
				Stage:   document.StageOCR,
				Page:    img.Index,
				Message: fmt.Sprintf("engine %s failed: %v", eng.Name(), err),
			})
			c.logger.Warn("ocr engine failed, falling back",
				"engine", eng.Name(), "page", img.Index, "error", err)
			continue
		}

		if result.Confidence >= c.threshold {
			return result, warnings, nil
		}

		c.logger.Debug("ocr confidence below threshold",
			"engine", eng.Name(), "page", img.Index,
			"confidence", result.Confidence, "threshold", c.threshold)

		// Strictly-greater keeps the earlier engine on equal confidence.
		if !haveBest || result.Confidence > best.Confidence {
			best = result
			haveBest = true
		}
	}

	if haveBest {
		best.BelowThreshold = true
		warnings = append(warnings, document.Warning{
			Stage:   document.StageOCR,
			Page:    img.Index,
			Message: fmt.Sprintf("no engine met confidence threshold %.2f; best was %s at %.2f", c.threshold, best.Engine, best.Confidence),
		})
		return best, warnings, nil
	}

	return document.PageText{}, warnings, newError("fallback", "all engines failed", nil)
}

// tryEngine runs one engine with the retry budget and per-attempt timeout.
func (c *Coordinator) tryEngine(ctx context.Context, eng Engine, img document.PageImage, lang string) (document.PageText, error) {
	var result document.PageText

	err := retry.Do(
		func() error {
			attemptCtx := ctx
			if c.timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
				defer cancel()
			}

			r, err := eng.ExtractText(attemptCtx, img, lang)
			if err != nil {
				return err
			}
			result = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return document.PageText{}, err
	}
	return result, nil
}
