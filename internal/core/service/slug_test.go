package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodealer/dealership-api/internal/core/domain"
)

type slugSet map[string]bool

func (s slugSet) SlugExists(_ context.Context, slug string) (bool, error) {
	return s[slug], nil
}

type failingLookup struct{}

func (failingLookup) SlugExists(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Porsche 911 GT3!":             "porsche-911-gt3",
		"  BMW   M3  ":                 "bmw-m3",
		"--Audi--RS6--":                "audi-rs6",
		"Mercedes-Benz C 300 (4MATIC)": "mercedes-benz-c-300-4matic",
		"Škoda Octavia":                "koda-octavia",
		"!!!":                          "",
		"already-a-slug":               "already-a-slug",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestSlugAllocator_FreeBase(t *testing.T) {
	alloc := NewSlugAllocator(slugSet{})

	slug, err := alloc.Allocate(context.Background(), "Porsche 911 GT3!")
	require.NoError(t, err)
	assert.Equal(t, "porsche-911-gt3", slug)
}

func TestSlugAllocator_CollisionAppendsTimestamp(t *testing.T) {
	existing := slugSet{"porsche-911-gt3": true}
	alloc := NewSlugAllocator(existing)
	fixed := time.UnixMilli(1718000000123)
	alloc.now = func() time.Time { return fixed }

	slug, err := alloc.Allocate(context.Background(), "Porsche 911 GT3!")
	require.NoError(t, err)
	assert.Equal(t, "porsche-911-gt3-1718000000123", slug)
	assert.Regexp(t, regexp.MustCompile(`^porsche-911-gt3-\d+$`), slug)
	assert.False(t, existing[slug])
}

func TestSlugAllocator_SameMillisecondCollisionAddsDigits(t *testing.T) {
	fixed := time.UnixMilli(1718000000123)
	existing := slugSet{
		"porsche-911-gt3":               true,
		"porsche-911-gt3-1718000000123": true,
	}
	alloc := NewSlugAllocator(existing)
	alloc.now = func() time.Time { return fixed }

	slug, err := alloc.Allocate(context.Background(), "Porsche 911 GT3!")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^porsche-911-gt3-1718000000123\d{4}$`), slug)
	assert.False(t, existing[slug])
}

func TestSlugAllocator_GivesUpAfterRepeatedCollisions(t *testing.T) {
	fixed := time.UnixMilli(42)
	existing := slugSet{"a": true, "a-42": true, "a-420000": true}
	alloc := NewSlugAllocator(existing)
	alloc.now = func() time.Time { return fixed }
	alloc.digits = func() (string, error) { return "0000", nil }

	_, err := alloc.Allocate(context.Background(), "A")
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestSlugAllocator_EmptyTitle(t *testing.T) {
	alloc := NewSlugAllocator(slugSet{})

	_, err := alloc.Allocate(context.Background(), "?!")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSlugAllocator_LookupError(t *testing.T) {
	alloc := NewSlugAllocator(failingLookup{})

	_, err := alloc.Allocate(context.Background(), "Audi A4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}
