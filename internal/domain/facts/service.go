package facts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TxRunner sequences a callback inside one database transaction. The
// reconciler uses it to keep delete-then-insert for an encounter
// atomic: a failed insert rolls the delete back instead of leaving the
// encounter with no facts.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Reconciler applies one encounter's facts to the warehouse under the
// importer's source-system tag. Two policies exist: replace-scoped-by-
// tag for reimports, and insert-if-absent for initial loads.
type Reconciler struct {
	repo      Repository
	tx        TxRunner
	tag       string
	tagPrefix string
	log       zerolog.Logger
	now       func() time.Time
}

func NewReconciler(repo Repository, tx TxRunner, tag, tagPrefix string, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		repo:      repo,
		tx:        tx,
		tag:       tag,
		tagPrefix: tagPrefix,
		log:       log,
		now:       time.Now,
	}
}

// EncounterExists is the presence gate: reimport variants act only on
// encounters the warehouse already has facts for.
func (r *Reconciler) EncounterExists(ctx context.Context, encounterNum int64) (bool, error) {
	return r.repo.EncounterExists(ctx, encounterNum)
}

// Replace removes this importer's prior rows for the encounter and
// writes newFacts, all in one transaction. Removed rows count as
// updated; rows written beyond that count as new. A single fact's
// insert failure is logged and skipped without abandoning its siblings.
func (r *Reconciler) Replace(ctx context.Context, encounterNum, patientNum int64, newFacts []Fact) (Result, error) {
	var res Result
	err := r.tx.InTx(ctx, func(ctx context.Context) error {
		deleted, err := r.repo.DeleteByTagPrefix(ctx, encounterNum, r.tagPrefix)
		if err != nil {
			return fmt.Errorf("remove prior facts: %w", err)
		}
		res.Updated = deleted
		res.Inserted, res.Skipped = r.insertAll(ctx, encounterNum, patientNum, newFacts)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// InsertIfAbsent writes newFacts only when the encounter has no facts
// yet; otherwise it reports everything skipped. Initial-load variants
// use it so reruns do not duplicate rows.
func (r *Reconciler) InsertIfAbsent(ctx context.Context, encounterNum, patientNum int64, newFacts []Fact) (Result, error) {
	exists, err := r.repo.EncounterExists(ctx, encounterNum)
	if err != nil {
		return Result{}, fmt.Errorf("check encounter facts: %w", err)
	}
	if exists {
		return Result{Skipped: len(newFacts)}, nil
	}
	var res Result
	err = r.tx.InTx(ctx, func(ctx context.Context) error {
		res.Inserted, res.Skipped = r.insertAll(ctx, encounterNum, patientNum, newFacts)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (r *Reconciler) insertAll(ctx context.Context, encounterNum, patientNum int64, newFacts []Fact) (inserted, skipped int) {
	importDate := r.now()
	for i := range newFacts {
		f := newFacts[i]
		f.EncounterNum = encounterNum
		f.PatientNum = patientNum
		f.ImportDate = importDate
		f.SourcesystemCD = r.tag
		if f.ModifierCD == "" {
			f.ModifierCD = "@"
		}
		if f.InstanceNum == 0 {
			f.InstanceNum = 1
		}
		if err := r.repo.Insert(ctx, &f); err != nil {
			r.log.Error().Err(err).
				Int64("encounter_num", encounterNum).
				Str("concept_cd", f.ConceptCD).
				Msg("insert observation fact failed")
			skipped++
			continue
		}
		inserted++
	}
	return inserted, skipped
}
