package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubAdminRepo struct {
	byID    map[string]*domain.Admin
	findErr error
}

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{byID: make(map[string]*domain.Admin)}
}

func (r *stubAdminRepo) add(a *domain.Admin) *domain.Admin {
	clone := *a
	r.byID[a.ID] = &clone
	return a
}

func (r *stubAdminRepo) FindByID(_ context.Context, id string) (*domain.Admin, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAdminNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAdminRepo) FindByEmail(_ context.Context, email string) (*domain.Admin, error) {
	for _, a := range r.byID {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAdminNotFound
}

func (r *stubAdminRepo) Create(_ context.Context, a *domain.Admin) (*domain.Admin, error) {
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	clone := *a
	clone.ID = fmt.Sprintf("admin-%d", len(r.byID)+1)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

type stubAgentRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Agent
	bindCalls int
	// beforeBind runs inside BindPassword before the conditional write, to
	// simulate a concurrent login winning the race.
	beforeBind func()
}

func newStubAgentRepo() *stubAgentRepo {
	return &stubAgentRepo{byID: make(map[string]*domain.Agent)}
}

func (r *stubAgentRepo) add(a *domain.Agent) *domain.Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *a
	r.byID[a.ID] = &clone
	return a
}

func (r *stubAgentRepo) FindByID(_ context.Context, id string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAgentRepo) FindByEmail(_ context.Context, email string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAgentNotFound
}

func (r *stubAgentRepo) Create(_ context.Context, a *domain.Agent) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	clone := *a
	clone.ID = fmt.Sprintf("agent-%d", len(r.byID)+1)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubAgentRepo) List(_ context.Context) ([]*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Agent, 0, len(r.byID))
	for _, a := range r.byID {
		clone := *a
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubAgentRepo) SetActive(_ context.Context, id string, active bool) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	a.IsActive = active
	clone := *a
	return &clone, nil
}

func (r *stubAgentRepo) BindPassword(_ context.Context, id, hash string) error {
	if r.beforeBind != nil {
		r.beforeBind()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindCalls++
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAgentNotFound
	}
	if a.PasswordHash != "" {
		return domain.ErrAlreadyProvisioned
	}
	a.PasswordHash = hash
	return nil
}

type stubListingRepo struct {
	byID      map[string]*domain.Listing
	nextID    int
	createErr []error // consumed one per Create call before the real insert
}

func newStubListingRepo() *stubListingRepo {
	return &stubListingRepo{byID: make(map[string]*domain.Listing)}
}

func (r *stubListingRepo) slugTaken(slug, exceptID string) bool {
	for id, l := range r.byID {
		if l.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (r *stubListingRepo) Create(_ context.Context, l *domain.Listing) (*domain.Listing, error) {
	if len(r.createErr) > 0 {
		err := r.createErr[0]
		r.createErr = r.createErr[1:]
		return nil, err
	}
	if r.slugTaken(l.Slug, "") {
		return nil, domain.ErrSlugTaken
	}
	r.nextID++
	clone := *l
	clone.ID = fmt.Sprintf("car-%d", r.nextID)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubListingRepo) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *stubListingRepo) FindBySlug(_ context.Context, slug string) (*domain.Listing, error) {
	for _, l := range r.byID {
		if l.Slug == slug {
			clone := *l
			return &clone, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (r *stubListingRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	return r.slugTaken(slug, ""), nil
}

// List applies the same filters the real Mongo repo would use.
func (r *stubListingRepo) List(_ context.Context, f ports.ListListingsFilter) ([]*domain.Listing, int64, error) {
	var matched []*domain.Listing
	for _, l := range r.byID {
		if f.OwnerAgentID != "" && l.OwnerAgentID != f.OwnerAgentID {
			continue
		}
		if f.PublishedOnly && !l.IsPublished {
			continue
		}
		if f.FeaturedOnly && !l.IsFeatured {
			continue
		}
		if f.Brand != "" && !strings.EqualFold(l.Brand, f.Brand) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(f.Search)) {
			continue
		}
		clone := *l
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return []*domain.Listing{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *stubListingRepo) Update(_ context.Context, l *domain.Listing) (*domain.Listing, error) {
	if _, ok := r.byID[l.ID]; !ok {
		return nil, domain.ErrListingNotFound
	}
	if r.slugTaken(l.Slug, l.ID) {
		return nil, domain.ErrSlugTaken
	}
	clone := *l
	r.byID[l.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubListingRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(r.byID, id)
	return nil
}
