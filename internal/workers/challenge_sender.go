package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"adespota/internal/config"
	"adespota/internal/domain"
	"adespota/internal/render"
	"adespota/pkg/e"
)

type ChallengeSource interface {
	BRPop(ctx context.Context, timeout time.Duration) (domain.Challenge, error)
}

type MessageRenderer interface {
	Challenge(ch domain.Challenge) (render.Message, error)
}

type DispatchRecorder interface {
	ChallengeDispatched(channel, status string)
}

// ChallengeSender drains the challenge queue and posts rendered messages to the
// delivery gateway. With dispatch disabled the message is only logged.
type ChallengeSender struct {
	logger   *slog.Logger
	cfg      config.VerificationConfig
	queue    ChallengeSource
	renderer MessageRenderer
	metrics  DispatchRecorder
	http     *http.Client

	maxRetries int
	popTimeout time.Duration
	backoff    func(attempt int) time.Duration
}

func NewChallengeSender(logger *slog.Logger, cfg config.VerificationConfig, q ChallengeSource, r MessageRenderer, m DispatchRecorder) *ChallengeSender {
	return &ChallengeSender{
		logger:     logger,
		cfg:        cfg,
		queue:      q,
		renderer:   r,
		metrics:    m,
		http:       &http.Client{Timeout: 5 * time.Second},
		maxRetries: 3,
		popTimeout: 5 * time.Second,
		backoff:    func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
	}
}

// Run starts cfg.Workers consumers and blocks until ctx is done.
func (s *ChallengeSender) Run(ctx context.Context) {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	s.logger.Info("challenge sender started",
		slog.Int("workers", workers),
		slog.Bool("dispatch_enabled", s.cfg.DispatchEnabled))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()

	s.logger.Info("challenge sender stopped", slog.String("reason", context.Cause(ctx).Error()))
}

func (s *ChallengeSender) worker(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		ch, err := s.queue.BRPop(ctx, s.popTimeout)
		if err != nil {
			if errors.Is(err, e.ErrQueueEmpty) || ctx.Err() != nil {
				continue
			}
			s.logger.Error("BRPop failed", slog.Any("error", err))
			sleep(ctx, 500*time.Millisecond)
			continue
		}

		if err := s.Send(ctx, ch); err != nil {
			s.logger.Error("challenge delivery failed",
				slog.String("challenge_id", ch.ID.String()),
				slog.String("channel", string(ch.Channel)),
				slog.Any("error", err))
		}
	}
}

// Send delivers one challenge, retrying transient gateway failures.
func (s *ChallengeSender) Send(ctx context.Context, ch domain.Challenge) error {
	msg, err := s.renderer.Challenge(ch)
	if err != nil {
		s.record(ch, "failed")
		return fmt.Errorf("render challenge: %w", err)
	}

	if !s.cfg.DispatchEnabled {
		s.logger.Debug("challenge dispatch disabled, message logged",
			slog.String("channel", string(msg.Channel)),
			slog.String("to", msg.To),
			slog.String("code", ch.Code))
		s.record(ch, "logged")
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		s.record(ch, "failed")
		return fmt.Errorf("marshal message: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = s.post(ctx, body)
		if lastErr == nil {
			s.record(ch, "sent")
			return nil
		}

		s.logger.Warn("challenge post failed",
			slog.Int("attempt", attempt),
			slog.String("url", s.cfg.DispatchURL),
			slog.String("reason", lastErr.Error()),
		)

		if attempt < s.maxRetries {
			sleep(ctx, s.backoff(attempt))
		}
	}

	s.record(ch, "failed")
	return lastErr
}

func (s *ChallengeSender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.DispatchURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway responded %s", resp.Status)
	}
	return nil
}

func (s *ChallengeSender) record(ch domain.Challenge, status string) {
	if s.metrics != nil {
		s.metrics.ChallengeDispatched(string(ch.Channel), status)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
