package state

import "time"

// Table is the export progress of one table file.
type Table struct {
	// Records is the number of valid records at the last export.
	Records int `json:"records"`

	// LastRecord is the timestamp of the last exported record.
	LastRecord time.Time `json:"last_record"`

	// ExportedAt is when the table was last exported.
	ExportedAt time.Time `json:"exported_at"`
}

// State maps table file paths to their export progress.
type State struct {
	Tables map[string]Table `json:"tables"`
}

// IsEmpty returns true if no table has been exported yet.
func (s State) IsEmpty() bool {
	return len(s.Tables) == 0
}

// Changed reports whether path now holds a different number of valid
// records than at its last export.
func (s State) Changed(path string, records int) bool {
	t, ok := s.Tables[path]
	return !ok || t.Records != records
}

// Record stores the progress of an export of path.
func (s *State) Record(path string, records int, last time.Time) {
	if s.Tables == nil {
		s.Tables = make(map[string]Table)
	}
	s.Tables[path] = Table{Records: records, LastRecord: last, ExportedAt: time.Now().UTC()}
}

// Forget drops path, e.g. after the file was removed.
func (s *State) Forget(path string) {
	delete(s.Tables, path)
}
