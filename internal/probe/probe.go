// Package probe checks the live counter the way a visitor sees it: load the
// page in a browser, wait for the widget, read the element.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/terngkub/the-cloud-resume-challenge/pkg/models"
)

var (
	ErrDisallowed    = errors.New("page disallowed by robots.txt")
	ErrNotANumber    = errors.New("element text is not a visitor count")
	ErrNotIncreasing = errors.New("visitor counter did not increase")
)

var digits = regexp.MustCompile(`^[0-9]+$`)

type Config struct {
	PageURL      string
	ElementID    string
	UserAgent    string
	SettleWait   time.Duration
	LoadInterval time.Duration
}

type Probe struct {
	cfg     Config
	browser Browser
	guard   *robotsGuard
	limiter *rate.Limiter
	logger  *zap.Logger
	now     func() time.Time
}

// New builds a probe. httpClient fetches robots.txt; nil means http.DefaultClient.
func New(cfg Config, browser Browser, httpClient *http.Client, logger *zap.Logger) *Probe {
	if logger == nil {
		logger = zap.NewNop()
	}
	every := rate.Inf
	if cfg.LoadInterval > 0 {
		every = rate.Every(cfg.LoadInterval)
	}
	return &Probe{
		cfg:     cfg,
		browser: browser,
		guard:   newRobotsGuard(httpClient, cfg.UserAgent),
		limiter: rate.NewLimiter(every, 1),
		logger:  logger,
		now:     time.Now,
	}
}

// Read loads the page once and returns the count it displays.
func (p *Probe) Read(ctx context.Context) (models.Reading, error) {
	allowed, err := p.guard.Allowed(ctx, p.cfg.PageURL)
	if err != nil {
		return models.Reading{}, err
	}
	if !allowed {
		return models.Reading{}, fmt.Errorf("%w: %s", ErrDisallowed, p.cfg.PageURL)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return models.Reading{}, err
	}

	text, err := p.browser.LoadText(ctx, p.cfg.PageURL, "#"+p.cfg.ElementID, p.cfg.SettleWait)
	if err != nil {
		return models.Reading{}, err
	}
	count, err := ParseCount(text)
	if err != nil {
		return models.Reading{}, fmt.Errorf("read #%s on %s: %w", p.cfg.ElementID, p.cfg.PageURL, err)
	}

	reading := models.Reading{
		PageURL:    p.cfg.PageURL,
		Count:      count,
		ObservedAt: p.now(),
	}
	p.logger.Debug("probe reading",
		zap.String("page", reading.PageURL),
		zap.Int64("visitor-counter", int64(reading.Count)))
	return reading, nil
}

// VerifyIncrease loads the page twice and fails unless the second load shows
// a larger count than the first.
func (p *Probe) VerifyIncrease(ctx context.Context) (first, second models.Reading, err error) {
	if first, err = p.Read(ctx); err != nil {
		return first, second, err
	}
	if second, err = p.Read(ctx); err != nil {
		return first, second, err
	}
	return first, second, CheckIncreasing([]models.Reading{first, second})
}

// CheckIncreasing fails at the first reading that is not larger than the one before it.
func CheckIncreasing(readings []models.Reading) error {
	for i := 1; i < len(readings); i++ {
		if readings[i].Count <= readings[i-1].Count {
			return fmt.Errorf("%w: load %d showed %d after %d",
				ErrNotIncreasing, i+1, readings[i].Count, readings[i-1].Count)
		}
	}
	return nil
}

// ParseCount accepts element text made only of digits, ignoring surrounding space.
func ParseCount(text string) (models.VisitorCount, error) {
	t := strings.TrimSpace(text)
	if !digits.MatchString(t) {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, text)
	}
	n, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, text)
	}
	return models.VisitorCount(n), nil
}
