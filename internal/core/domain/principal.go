package domain

import (
	"strings"
	"time"
)

// Capability is the role scope a token or a route is bound to.
type Capability string

const (
	CapabilityAdmin Capability = "admin"
	CapabilityAgent Capability = "agent"
)

// Valid reports whether c is one of the known capabilities.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityAdmin, CapabilityAgent:
		return true
	}
	return false
}

// Title returns the capability name as used at the start of a sentence ("Admin", "Agent").
func (c Capability) Title() string {
	if c == "" {
		return ""
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ProvisionState tracks whether a principal has a password bound.
type ProvisionState int

const (
	Unprovisioned ProvisionState = iota
	Provisioned
)

func (s ProvisionState) String() string {
	if s == Provisioned {
		return "provisioned"
	}
	return "unprovisioned"
}

// Admin is a dashboard operator.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Agent is a listing author. Agents may be created without a password; the
// first accepted login binds one.
type Agent struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProvisionState reports whether the agent already has a password.
func (a *Agent) ProvisionState() ProvisionState {
	if a.PasswordHash == "" {
		return Unprovisioned
	}
	return Provisioned
}

// PrincipalView is the minimal descriptor attached to an authenticated request.
// It never carries credential material.
type PrincipalView struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Capability Capability `json:"type"`
}

// IsAdmin reports whether the principal was authenticated with admin capability.
func (p *PrincipalView) IsAdmin() bool {
	return p != nil && p.Capability == CapabilityAdmin
}

// AdminView projects an admin onto the request descriptor.
func AdminView(a *Admin) *PrincipalView {
	return &PrincipalView{ID: a.ID, Email: a.Email, Name: a.Name, Role: a.Role, Capability: CapabilityAdmin}
}

// AgentView projects an agent onto the request descriptor.
func AgentView(a *Agent) *PrincipalView {
	return &PrincipalView{ID: a.ID, Email: a.Email, Name: a.Name, Role: a.Role, Capability: CapabilityAgent}
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
