package identity

import (
	"context"
	"fmt"
	"time"
)

// Resolver allocates and looks up surrogate keys. New surrogates come
// from an in-memory high-water mark seeded from the mapping tables at
// startup; that is correct only under this importer's single-writer
// batch model. Concurrent writers would need a database-native sequence
// instead, otherwise two processes can allocate the same surrogate.
type Resolver struct {
	repo Repository
	tag  string
	now  func() time.Time

	patientHW   int64
	encounterHW int64
}

// NewResolver seeds both high-water marks from the current table
// maxima. A failure here aborts the run before any row is read.
func NewResolver(ctx context.Context, repo Repository, sourcesystemCD string) (*Resolver, error) {
	maxPat, err := repo.MaxPatientNum(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed patient surrogate mark: %w", err)
	}
	maxEnc, err := repo.MaxEncounterNum(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed encounter surrogate mark: %w", err)
	}
	return &Resolver{
		repo:        repo,
		tag:         sourcesystemCD,
		now:         time.Now,
		patientHW:   maxPat,
		encounterHW: maxEnc,
	}, nil
}

// LookupPatient returns the surrogate for an opaque patient identifier
// without allocating.
func (r *Resolver) LookupPatient(ctx context.Context, patientIDE string) (int64, bool, error) {
	return r.repo.PatientNumForIDE(ctx, patientIDE)
}

// LookupEncounter returns the surrogate for an opaque encounter
// identifier without allocating.
func (r *Resolver) LookupEncounter(ctx context.Context, encounterIDE string) (int64, bool, error) {
	return r.repo.EncounterNumForIDE(ctx, encounterIDE)
}

// ResolvePatient returns the surrogate for patientIDE, allocating and
// persisting the next one if the identifier is new. The mapping row is
// written before the surrogate is handed out; if the write fails the
// high-water mark is left untouched and no surrogate escapes.
func (r *Resolver) ResolvePatient(ctx context.Context, patientIDE string) (int64, error) {
	num, ok, err := r.repo.PatientNumForIDE(ctx, patientIDE)
	if err != nil {
		return 0, fmt.Errorf("look up patient mapping: %w", err)
	}
	if ok {
		return num, nil
	}
	candidate := r.patientHW + 1
	err = r.repo.InsertPatientMapping(ctx, &PatientMapping{
		PatientIDE:     patientIDE,
		PatientNum:     candidate,
		ImportDate:     r.now(),
		SourcesystemCD: r.tag,
	})
	if err != nil {
		return 0, fmt.Errorf("persist patient mapping: %w", err)
	}
	r.patientHW = candidate
	return candidate, nil
}

// ResolveEncounter is the encounter counterpart of ResolvePatient. The
// owning patient's opaque identifier is recorded on new mapping rows.
func (r *Resolver) ResolveEncounter(ctx context.Context, encounterIDE, patientIDE string) (int64, error) {
	num, ok, err := r.repo.EncounterNumForIDE(ctx, encounterIDE)
	if err != nil {
		return 0, fmt.Errorf("look up encounter mapping: %w", err)
	}
	if ok {
		return num, nil
	}
	candidate := r.encounterHW + 1
	err = r.repo.InsertEncounterMapping(ctx, &EncounterMapping{
		EncounterIDE:   encounterIDE,
		EncounterNum:   candidate,
		PatientIDE:     patientIDE,
		ImportDate:     r.now(),
		SourcesystemCD: r.tag,
	})
	if err != nil {
		return 0, fmt.Errorf("persist encounter mapping: %w", err)
	}
	r.encounterHW = candidate
	return candidate, nil
}
