package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

const (
	defaultSummaryRange = 7 * 24 * time.Hour
	maxPathLength       = 512
)

// DedupChecker abstracts the page-view dedup store (Redis).
type DedupChecker interface {
	// IsDuplicate reports whether visitorHash already viewed path within the
	// dedup window, and records the view if not.
	IsDuplicate(ctx context.Context, visitorHash, path string) (bool, error)
}

type analyticsService struct {
	repo  ports.PageViewRepository
	dedup DedupChecker
	salt  string
	log   zerolog.Logger
	now   func() time.Time
}

// NewAnalyticsService returns an AnalyticsService. salt is mixed into every
// visitor hash so stored hashes cannot be matched against a plain IP table.
func NewAnalyticsService(repo ports.PageViewRepository, dedup DedupChecker, salt string, log zerolog.Logger) ports.AnalyticsService {
	return &analyticsService{repo: repo, dedup: dedup, salt: salt, log: log, now: time.Now}
}

// HashVisitor returns hex(sha256(salt || ip)).
func HashVisitor(salt, ip string) string {
	sum := sha256.Sum256([]byte(salt + ip))
	return hex.EncodeToString(sum[:])
}

// Record stores a page view. Repeat views of the same path by the same
// visitor inside the dedup window are skipped.
func (s *analyticsService) Record(ctx context.Context, in ports.PageViewInput) error {
	path := strings.TrimSpace(in.Path)
	if path == "" || !strings.HasPrefix(path, "/") || len(path) > maxPathLength {
		return domain.NewValidationError("path must be an absolute site path")
	}

	visitor := HashVisitor(s.salt, in.ClientIP)

	isDup, err := s.dedup.IsDuplicate(ctx, visitor, path)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("dedup check failed, recording anyway")
	} else if isDup {
		s.log.Debug().Str("path", path).Msg("duplicate page view skipped")
		return nil
	}

	viewedAt := in.ViewedAt
	if viewedAt.IsZero() {
		viewedAt = s.now()
	}

	if err := s.repo.Insert(ctx, &domain.PageView{
		Path:        path,
		VisitorHash: visitor,
		UserAgent:   in.UserAgent,
		Referrer:    in.Referrer,
		ViewedAt:    viewedAt.UTC(),
	}); err != nil {
		return fmt.Errorf("record page view: %w", err)
	}
	return nil
}

// Summary groups page views in [from, to) by window. Zero bounds default to
// the last seven days.
func (s *analyticsService) Summary(ctx context.Context, window domain.TimeWindow, from, to time.Time) ([]domain.PageViewBucket, error) {
	if window == "" {
		window = domain.WindowDay
	}
	if !window.Valid() {
		return nil, domain.NewValidationError("window must be one of: hour, day")
	}
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultSummaryRange)
	}
	if !from.Before(to) {
		return nil, domain.NewValidationError("from must be before to")
	}
	return s.repo.Aggregate(ctx, window, from.UTC(), to.UTC())
}
