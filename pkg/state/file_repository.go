package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

const stateFileName = "tobdump-state.json"

// FileRepository implements Repository using a JSON file.
type FileRepository struct {
	dir string
}

// NewFileRepository creates a new FileRepository for the given directory.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

// Load retrieves the last saved state from disk.
// Returns an empty state and nil error if no state file exists.
func (r *FileRepository) Load(ctx context.Context) (State, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, err
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Save writes the state to a temp file and renames it into place.
func (r *FileRepository) Save(ctx context.Context, st State) error {
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	path := r.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Path returns the full path to the state file.
func (r *FileRepository) Path() string {
	return filepath.Join(r.dir, stateFileName)
}
