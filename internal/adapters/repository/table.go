package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/bullpen/internal/domain/model"
)

// column maps one CSV header to a field of T. Empty cells leave the field at
// its zero value.
type column[T any] struct {
	name     string
	optional bool
	get      func(*T) string
	set      func(*T, string) error
}

func intCol[T any](name string, f func(*T) *int) column[T] {
	return column[T]{
		name: name,
		get:  func(t *T) string { return strconv.Itoa(*f(t)) },
		set: func(t *T, s string) error {
			v, err := strconv.Atoi(s)
			if err != nil {
				fl, ferr := strconv.ParseFloat(s, 64)
				if ferr != nil {
					return err
				}
				v = int(fl)
			}
			*f(t) = v
			return nil
		},
	}
}

func floatCol[T any](name string, f func(*T) *float64) column[T] {
	return column[T]{
		name: name,
		get:  func(t *T) string { return strconv.FormatFloat(*f(t), 'f', -1, 64) },
		set: func(t *T, s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*f(t) = v
			return nil
		},
	}
}

func stringCol[T any](name string, f func(*T) *string) column[T] {
	return column[T]{
		name: name,
		get:  func(t *T) string { return *f(t) },
		set: func(t *T, s string) error {
			*f(t) = s
			return nil
		},
	}
}

// boolCol writes 1 or 0 and reads anything strconv.ParseBool accepts.
func boolCol[T any](name string, f func(*T) *bool) column[T] {
	return column[T]{
		name: name,
		get: func(t *T) string {
			if *f(t) {
				return "1"
			}
			return "0"
		},
		set: func(t *T, s string) error {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			*f(t) = v
			return nil
		},
	}
}

func dateCol[T any](name string, f func(*T) *time.Time) column[T] {
	return column[T]{
		name: name,
		get: func(t *T) string {
			if f(t).IsZero() {
				return ""
			}
			return f(t).Format(model.DateLayout)
		},
		set: func(t *T, s string) error {
			v, err := model.ParseDate(s)
			if err != nil {
				return err
			}
			*f(t) = v
			return nil
		},
	}
}

func optional[T any](c column[T]) column[T] {
	c.optional = true
	return c
}

// writeTable writes a header line followed by one record per row.
func writeTable[T any](w io.Writer, cols []column[T], rows []T) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(cols))
	for i := range rows {
		for j, c := range cols {
			record[j] = c.get(&rows[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// readTable reads records by header name. Unknown columns are ignored and
// required columns must be present.
func readTable[T any](r io.Reader, cols []column[T]) ([]T, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	pos := make([]int, len(cols))
	for i, c := range cols {
		p, ok := index[c.name]
		if !ok {
			if !c.optional {
				return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c.name)
			}
			p = -1
		}
		pos[i] = p
	}

	var out []T
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}
		var row T
		for i, c := range cols {
			if pos[i] < 0 || pos[i] >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[pos[i]])
			if cell == "" {
				continue
			}
			if err := c.set(&row, cell); err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %w", ErrMalformedRow, line, c.name, err)
			}
		}
		out = append(out, row)
	}
	return out, nil
}
