// Package export writes decoded tables as CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/tobread/pkg/codec"
	"github.com/bft-labs/tobread/pkg/tob"
)

// Options selects what is exported.
type Options struct {
	// Columns lists the column names to export; empty means all.
	Columns []string

	// Parallelism bounds concurrent column reads. Zero or less means one
	// reader per column.
	Parallelism int
}

// Summary describes an export.
type Summary struct {
	Records int
	Last    time.Time
}

type column struct {
	times  []time.Time
	values []string
}

// WriteCSV reads the selected columns of f concurrently and writes one CSV
// row per record: TIMESTAMP followed by the column values.
func WriteCSV(ctx context.Context, w io.Writer, f *tob.File, opts Options) (Summary, error) {
	cols, err := selectColumns(f, opts.Columns)
	if err != nil {
		return Summary{}, err
	}

	results := make([]column, len(cols))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, c := range cols {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			times, values, err := Format(f, c)
			if err != nil {
				return fmt.Errorf("column %s: %w", c.Name, err)
			}
			results[i] = column{times: times, values: values}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	n := len(results[0].values)
	for i, r := range results {
		if len(r.values) != n {
			return Summary{}, fmt.Errorf("column %s has %d records, want %d", cols[i].Name, len(r.values), n)
		}
	}

	cw := csv.NewWriter(w)
	header := []string{"TIMESTAMP"}
	for _, c := range cols {
		header = append(header, c.Name)
	}
	if err := cw.Write(header); err != nil {
		return Summary{}, err
	}

	line := make([]string, len(cols)+1)
	for rec := 0; rec < n; rec++ {
		line[0] = formatTime(results[0].times[rec])
		for i := range cols {
			line[i+1] = results[i].values[rec]
		}
		if err := cw.Write(line); err != nil {
			return Summary{}, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return Summary{}, err
	}

	sum := Summary{Records: n}
	if n > 0 {
		sum.Last = results[0].times[n-1]
	}
	return sum, nil
}

func selectColumns(f *tob.File, names []string) ([]*tob.Column, error) {
	if len(names) == 0 {
		return f.Columns(), nil
	}
	cols := make([]*tob.Column, 0, len(names))
	for _, name := range names {
		c, ok := f.Column(name)
		if !ok {
			return nil, fmt.Errorf("table %s has no column %q", f.Header.TableName, name)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// Format reads col in its natural representation and renders each value as
// text.
func Format(f *tob.File, col *tob.Column) ([]time.Time, []string, error) {
	enc := col.Encoding
	switch enc.Kind {
	case codec.FixedText:
		return tob.ReadColumnText(f, col)
	case codec.Timestamp:
		times, values, err := tob.ReadColumnTimes(f, col)
		if err != nil {
			return nil, nil, err
		}
		return times, mapValues(values, formatTime), nil
	case codec.Boolean:
		return read(f, col, strconv.FormatBool)
	case codec.Float:
		if enc.ValueWidth == 8 {
			return read(f, col, func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) })
		}
		return read(f, col, func(v float32) string { return strconv.FormatFloat(float64(v), 'g', -1, 32) })
	case codec.SignedInt:
		switch enc.ValueWidth {
		case 1:
			return read(f, col, func(v int8) string { return strconv.FormatInt(int64(v), 10) })
		case 2:
			return read(f, col, func(v int16) string { return strconv.FormatInt(int64(v), 10) })
		case 4:
			return read(f, col, func(v int32) string { return strconv.FormatInt(int64(v), 10) })
		default:
			return read(f, col, func(v int64) string { return strconv.FormatInt(v, 10) })
		}
	case codec.UnsignedInt:
		switch enc.ValueWidth {
		case 1:
			return read(f, col, func(v uint8) string { return strconv.FormatUint(uint64(v), 10) })
		case 2:
			return read(f, col, func(v uint16) string { return strconv.FormatUint(uint64(v), 10) })
		case 4:
			return read(f, col, func(v uint32) string { return strconv.FormatUint(uint64(v), 10) })
		default:
			return read(f, col, func(v uint64) string { return strconv.FormatUint(v, 10) })
		}
	}
	return nil, nil, fmt.Errorf("column %s: unexpected kind %s", col.Name, enc.Kind)
}

func read[T tob.Value](f *tob.File, col *tob.Column, format func(T) string) ([]time.Time, []string, error) {
	times, values, err := tob.ReadColumn[T](f, col)
	if err != nil {
		return nil, nil, err
	}
	return times, mapValues(values, format), nil
}

func mapValues[T any](values []T, format func(T) string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = format(v)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05.000")
}
