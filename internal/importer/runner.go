// Package importer wires the extraction pipeline to the warehouse
// domains and runs one source file end to end. Each row is fully
// processed before the next is read; there is no parallelism and no
// mid-run cancellation. Fatal errors can only occur before the first
// row; afterwards a failing row costs exactly that row.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/clindwh/clindwh/internal/pipeline"
	"github.com/clindwh/clindwh/internal/platform/csvsource"
)

// Importer is one configured variant: its definition, its handler
// chain, and the apply step that reconciles a complete draft against
// the warehouse.
type Importer struct {
	Definition pipeline.Definition
	Chain      *pipeline.Chain
	Apply      func(ctx context.Context, d *pipeline.Draft, acc *pipeline.Accumulator) error
}

// Run streams the file at path through the importer and returns the
// end-of-run summary. Row-level failures are logged and counted, never
// fatal; unreadable input aborts.
func Run(ctx context.Context, imp *Importer, path string, opt csvsource.Options, log zerolog.Logger) (pipeline.Summary, error) {
	reader, err := csvsource.Open(path, opt)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer reader.Close()

	acc := &pipeline.Accumulator{}
	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			acc.RowSeen()
			acc.RowRejected()
			log.Warn().Err(err).Int("line", parseErr.Line).Msg("malformed record rejected")
			continue
		}
		if err != nil {
			return pipeline.Summary{}, fmt.Errorf("read %s: %w", path, err)
		}

		acc.RowSeen()
		draft, err := imp.Chain.Run(row)
		if err != nil {
			acc.RowRejected()
			log.Warn().Err(err).Int("row", reader.Count()).Msg("row rejected")
			continue
		}
		if !draft.Complete(imp.Definition.Required) {
			acc.RowRejected()
			log.Warn().Int("row", reader.Count()).Msg("row incomplete, rejected")
			continue
		}

		if err := imp.Apply(ctx, draft, acc); err != nil {
			log.Error().Err(err).Int("row", reader.Count()).Msg("row import failed")
		}
	}

	return acc.Summary(), nil
}
