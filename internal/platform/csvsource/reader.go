// Package csvsource streams rows out of delimited hospital extracts.
// Separator and text encoding vary per exporting system, so both are
// part of the reader's configuration rather than hardcoded.
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const utf8BOM = "\ufeff"

// RawRow is one source record: column name to raw cell value. A missing
// or empty cell is a nil pointer so handlers can distinguish "absent"
// from any real value.
type RawRow map[string]*string

// Get returns the raw value for column, or nil when the cell was empty.
func (r RawRow) Get(column string) *string {
	return r[column]
}

// Options configure a Reader for one importer variant.
type Options struct {
	Separator rune   // cell delimiter, e.g. ';' or ','
	Encoding  string // "utf-8" or "latin-1"
	Columns   []string
}

// Reader streams one RawRow at a time from a delimited file. It never
// buffers the whole file and keeps a running count of records read.
type Reader struct {
	file   *os.File
	csv    *csv.Reader
	header []string
	count  int
}

// Open validates the file extension, decodes the configured charset and
// checks the header against the variant's column contract. Any error
// here is fatal for the run.
func Open(path string, opt Options) (*Reader, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return nil, fmt.Errorf("required CSV, got: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var src io.Reader = f
	switch strings.ToLower(opt.Encoding) {
	case "", "utf-8", "utf8":
		// already UTF-8
	case "latin-1", "latin1", "iso-8859-1":
		src = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	case "windows-1252", "cp1252":
		src = transform.NewReader(f, charmap.Windows1252.NewDecoder())
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported csv encoding %q", opt.Encoding)
	}

	cr := csv.NewReader(src)
	cr.Comma = opt.Separator
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	owned := make([]string, len(header))
	for i, h := range header {
		owned[i] = strings.Clone(strings.TrimSpace(h))
	}

	r := &Reader{file: f, csv: cr, header: owned}
	if err := r.checkContract(opt.Columns); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// checkContract verifies that every column the variant's handlers read
// is present in the header. Extra columns are allowed and ignored.
func (r *Reader) checkContract(columns []string) error {
	present := make(map[string]bool, len(r.header))
	for _, h := range r.header {
		present[h] = true
	}
	var missing []string
	for _, c := range columns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("csv header is missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Next yields the next record, or io.EOF when the file is exhausted.
func (r *Reader) Next() (RawRow, error) {
	record, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	r.count++

	row := make(RawRow, len(r.header))
	for i, name := range r.header {
		if i >= len(record) {
			row[name] = nil
			continue
		}
		cell := strings.TrimSpace(record[i])
		if cell == "" {
			row[name] = nil
			continue
		}
		v := strings.Clone(cell) // detach from the reused record buffer
		row[name] = &v
	}
	return row, nil
}

// Count reports how many records have been read so far, header excluded.
func (r *Reader) Count() int {
	return r.count
}

func (r *Reader) Close() error {
	return r.file.Close()
}
