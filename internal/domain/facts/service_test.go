package facts

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockRepo struct {
	rows        []Fact
	failConcept string // inserts of this concept fail
}

func (m *mockRepo) EncounterExists(_ context.Context, encounterNum int64) (bool, error) {
	for _, f := range m.rows {
		if f.EncounterNum == encounterNum {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) DeleteByTagPrefix(_ context.Context, encounterNum int64, tagPrefix string) (int, error) {
	var kept []Fact
	deleted := 0
	for _, f := range m.rows {
		if f.EncounterNum == encounterNum && strings.HasPrefix(f.SourcesystemCD, tagPrefix) {
			deleted++
			continue
		}
		kept = append(kept, f)
	}
	m.rows = kept
	return deleted, nil
}

func (m *mockRepo) Insert(_ context.Context, f *Fact) error {
	if m.failConcept != "" && f.ConceptCD == m.failConcept {
		return fmt.Errorf("duplicate key")
	}
	m.rows = append(m.rows, *f)
	return nil
}

func (m *mockRepo) rowsFor(encounterNum int64) []Fact {
	var out []Fact
	for _, f := range m.rows {
		if f.EncounterNum == encounterNum {
			out = append(out, f)
		}
	}
	return out
}

// passthroughTx satisfies TxRunner without a database.
type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newReconciler(repo Repository) *Reconciler {
	return NewReconciler(repo, passthroughTx{}, "gfi_anacV1.0.0_h", "gfi_anac", zerolog.Nop())
}

func icdFacts(codes ...string) []Fact {
	out := make([]Fact, 0, len(codes))
	for _, c := range codes {
		out = append(out, Fact{ConceptCD: "ICD10GM:" + c, ProviderID: "@", StartDate: "2024-01-15 00:00"})
	}
	return out
}

func TestReplaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{}
	r := newReconciler(repo)

	first, err := r.Replace(ctx, 10, 20, icdFacts("A01", "B02"))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if first.Inserted != 2 || first.Updated != 0 {
		t.Errorf("first run = %+v", first)
	}

	second, err := r.Replace(ctx, 10, 20, icdFacts("A01", "B02"))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if second.Inserted != 2 || second.Updated != 2 {
		t.Errorf("second run = %+v", second)
	}
	if got := len(repo.rowsFor(10)); got != 2 {
		t.Errorf("encounter has %d fact rows after reimport, want 2", got)
	}
}

func TestReplaceLeavesOtherTagsAlone(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{rows: []Fact{
		{EncounterNum: 10, ConceptCD: "ICD10GM:Z99", SourcesystemCD: "gfi_otherV2.0.0_x"},
	}}
	r := newReconciler(repo)

	res, err := r.Replace(ctx, 10, 20, icdFacts("A01"))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if res.Updated != 0 {
		t.Errorf("foreign rows counted as updated: %+v", res)
	}

	rows := repo.rowsFor(10)
	if len(rows) != 2 {
		t.Fatalf("encounter has %d rows, want 2", len(rows))
	}
	foreign := 0
	for _, f := range rows {
		if f.SourcesystemCD == "gfi_otherV2.0.0_x" {
			foreign++
		}
	}
	if foreign != 1 {
		t.Error("foreign importer's row was disturbed")
	}
}

func TestReplaceAcrossVersionsOfSameImporter(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{rows: []Fact{
		{EncounterNum: 10, ConceptCD: "ICD10GM:A00", SourcesystemCD: "gfi_anacV0.9.0_old"},
	}}
	r := newReconciler(repo)

	res, err := r.Replace(ctx, 10, 20, icdFacts("A01"))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if res.Updated != 1 || res.Inserted != 1 {
		t.Errorf("result = %+v", res)
	}
	rows := repo.rowsFor(10)
	if len(rows) != 1 || rows[0].ConceptCD != "ICD10GM:A01" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestReplaceStampsMetadata(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{}
	r := newReconciler(repo)

	if _, err := r.Replace(ctx, 10, 20, icdFacts("A01")); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	f := repo.rows[0]
	if f.EncounterNum != 10 || f.PatientNum != 20 {
		t.Errorf("surrogates = %d/%d", f.EncounterNum, f.PatientNum)
	}
	if f.SourcesystemCD != "gfi_anacV1.0.0_h" {
		t.Errorf("tag = %q", f.SourcesystemCD)
	}
	if f.ModifierCD != "@" || f.InstanceNum != 1 {
		t.Errorf("defaults not applied: %+v", f)
	}
	if f.ImportDate.IsZero() {
		t.Error("import date not stamped")
	}
}

func TestSingleRowFailureDoesNotAbortSiblings(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{failConcept: "ICD10GM:B02"}
	r := newReconciler(repo)

	res, err := r.Replace(ctx, 10, 20, icdFacts("A01", "B02", "C03"))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if res.Inserted != 2 || res.Skipped != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestInsertIfAbsentSkipsExistingEncounter(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{rows: []Fact{
		{EncounterNum: 10, ConceptCD: "ESI:3", SourcesystemCD: "gfi_saiV1.0.0_h"},
	}}
	r := newReconciler(repo)

	res, err := r.InsertIfAbsent(ctx, 10, 20, icdFacts("A01"))
	if err != nil {
		t.Fatalf("InsertIfAbsent: %v", err)
	}
	if res.Inserted != 0 || res.Skipped != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(repo.rowsFor(10)) != 1 {
		t.Error("rows were written for an existing encounter")
	}
}

func TestInsertIfAbsentWritesNewEncounter(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepo{}
	r := newReconciler(repo)

	res, err := r.InsertIfAbsent(ctx, 10, 20, icdFacts("A01", "B02"))
	if err != nil {
		t.Fatalf("InsertIfAbsent: %v", err)
	}
	if res.Inserted != 2 {
		t.Errorf("result = %+v", res)
	}
}
