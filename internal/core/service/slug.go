package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

const (
	slugSuffixDigits   = 4
	slugSuffixAttempts = 5
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases title and collapses every run of characters outside
// [a-z0-9] into a single hyphen, without leading or trailing hyphens.
func Slugify(title string) string {
	s := nonSlugRun.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.TrimPrefix(s, "-")
	return strings.TrimSuffix(s, "-")
}

// SlugLookup reports whether a listing already uses slug.
type SlugLookup interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// SlugAllocator derives unique listing slugs from titles.
//
// A free base slug is used as is. On collision the epoch-millisecond time is
// appended; if that is taken too, random digits are added after it. The
// result is only unique at check time, so callers must still handle
// domain.ErrSlugTaken from the store.
type SlugAllocator struct {
	lookup SlugLookup
	now    func() time.Time
	digits func() (string, error)
}

func NewSlugAllocator(lookup SlugLookup) *SlugAllocator {
	return &SlugAllocator{
		lookup: lookup,
		now:    time.Now,
		digits: func() (string, error) {
			return gonanoid.Generate("0123456789", slugSuffixDigits)
		},
	}
}

func (a *SlugAllocator) Allocate(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		return "", domain.NewValidationError("title must contain at least one letter or digit")
	}

	taken, err := a.lookup.SlugExists(ctx, base)
	if err != nil {
		return "", fmt.Errorf("check slug: %w", err)
	}
	if !taken {
		return base, nil
	}

	stamped := fmt.Sprintf("%s-%d", base, a.now().UnixMilli())
	taken, err = a.lookup.SlugExists(ctx, stamped)
	if err != nil {
		return "", fmt.Errorf("check slug: %w", err)
	}
	if !taken {
		return stamped, nil
	}

	for i := 0; i < slugSuffixAttempts; i++ {
		digits, err := a.digits()
		if err != nil {
			return "", fmt.Errorf("slug suffix: %w", err)
		}
		candidate := stamped + digits
		taken, err := a.lookup.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", domain.ErrSlugTaken
}
