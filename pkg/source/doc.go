// Package source opens table files as random-access byte sources.
//
// Plain files are read in place through an io.SectionReader. Files that
// start with a gzip or zstd magic number are decompressed into memory first,
// since compressed streams cannot be read at arbitrary offsets.
package source
