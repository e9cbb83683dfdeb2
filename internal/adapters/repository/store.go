// Package repository defines the persistence ports for profiles and
// contests, plus the staged candidate query pipeline the recommendation
// service runs against them.
package repository

import (
	"context"

	"github.com/teamforge/crew/internal/domain/profile"
)

// Contest is the slice of contest data the matcher cares about.
type Contest struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

// ProfileStore is the port for profile persistence.
type ProfileStore interface {
	// Get returns the profile with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*profile.Profile, error)

	// FindMany returns the profiles for the given ids. Missing ids are
	// simply absent from the result; the order follows ids.
	FindMany(ctx context.Context, ids []string) ([]*profile.Profile, error)

	// FindCandidates runs a staged candidate query: filter, project,
	// limit. Results carry only the projected fields.
	FindCandidates(ctx context.Context, q CandidateQuery) ([]*profile.Profile, error)

	// Count returns the number of stored profiles.
	Count(ctx context.Context) (int, error)
}

// ContestStore is the port for contest persistence.
type ContestStore interface {
	Get(ctx context.Context, id string) (*Contest, error)
	FindMany(ctx context.Context, ids []string) (map[string]*Contest, error)
}
