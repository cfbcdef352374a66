// Package state persists per-table export progress for tobdump watch mode.
//
// The state records, for every table file seen, how many valid records it
// held and the timestamp of the last one when it was last exported. A table
// is exported again only when its valid record count changes.
//
// # Usage
//
//	repo := state.NewFileRepository("/path/to/state/dir")
//
//	s, err := repo.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	if s.Changed(path, count) {
//	    // ... export ...
//	    s.Record(path, count, last)
//	    if err := repo.Save(ctx, s); err != nil {
//	        return err
//	    }
//	}
package state
