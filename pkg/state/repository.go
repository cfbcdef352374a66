package state

import "context"

// Repository loads and saves export progress.
type Repository interface {
	// Load returns the last saved state, or an empty state if none exists.
	Load(ctx context.Context) (State, error)

	// Save persists the state atomically.
	Save(ctx context.Context, state State) error
}
