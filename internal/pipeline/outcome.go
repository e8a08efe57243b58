package pipeline

import "fmt"

// Accumulator collects run-level counters. It is touched only by the
// single processing goroutine and has no side effects beyond counting.
type Accumulator struct {
	rowsSeen      int
	rowsRejected  int
	rowsMatched   int
	factsInserted int
	factsUpdated  int
}

func (a *Accumulator) RowSeen()            { a.rowsSeen++ }
func (a *Accumulator) RowRejected()        { a.rowsRejected++ }
func (a *Accumulator) RowMatched()         { a.rowsMatched++ }
func (a *Accumulator) FactsInserted(n int) { a.factsInserted += n }
func (a *Accumulator) FactsUpdated(n int)  { a.factsUpdated += n }

// Summary freezes the counters into the end-of-run report.
func (a *Accumulator) Summary() Summary {
	return Summary{
		RowsSeen:      a.rowsSeen,
		RowsRejected:  a.rowsRejected,
		RowsMatched:   a.rowsMatched,
		FactsInserted: a.factsInserted,
		FactsUpdated:  a.factsUpdated,
	}
}

// Summary is the immutable end-of-run outcome.
type Summary struct {
	RowsSeen      int
	RowsRejected  int
	RowsMatched   int
	FactsInserted int
	FactsUpdated  int
}

// String renders the human-readable report printed after a run.
func (s Summary) String() string {
	return fmt.Sprintf(
		"rows in file: %d\nvalid rows: %d\nmatched encounters: %d\nimported facts: %d\nthereof replaced: %d\nthereof new: %d",
		s.RowsSeen,
		s.RowsSeen-s.RowsRejected,
		s.RowsMatched,
		s.FactsInserted,
		s.FactsUpdated,
		s.FactsInserted-s.FactsUpdated,
	)
}
