// Package tob decodes TOB1, TOB2 and TOB3 binary data-logger tables into
// typed time-series columns.
//
// A table file starts with a short comma-separated ASCII header declaring the
// station, the table geometry and one column per declared variable, followed
// by fixed-size frames. [Open] parses the header once; every read then walks
// the frames with a transient [Scanner].
//
// # Usage
//
//	src, err := source.Open("CR1000_Table1.dat")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	f, err := tob.Open(src)
//	if err != nil {
//	    return err
//	}
//	col, ok := f.Column("AirTC_Avg")
//	if !ok {
//	    return errors.New("no such column")
//	}
//	times, values, err := tob.ReadColumn[float32](f, col)
//
// # End of data
//
// TOB2 and TOB3 tables are pre-allocated ring buffers. A frame whose footer
// validation stamp differs from the header's marks the end of valid data, and
// so does a frame whose footer carries the card-removal flag; that frame is
// not returned. Reads stop there without error.
//
// # Errors
//
// Header, scan and usage errors are sentinel values matched with errors.Is.
// When a scan error interrupts a read, the records decoded before the failing
// frame are returned together with the error.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package tob
