package pipeline

import (
	"testing"

	"github.com/clindwh/clindwh/internal/platform/csvsource"
	"github.com/clindwh/clindwh/internal/platform/pseudonym"
)

func testPseud(t *testing.T) *pseudonym.Pseudonymizer {
	t.Helper()
	p, err := pseudonym.New("sha1", "salt", "patroot", "encroot")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func rawRow(cells map[string]string) csvsource.RawRow {
	row := make(csvsource.RawRow, len(cells))
	for k, v := range cells {
		v := v
		row[k] = &v
	}
	return row
}

func TestChainExtractsDraft(t *testing.T) {
	p := testPseud(t)
	chain := NewChain(
		EncounterIDHandler{Col: "Aufnahmenummer", Pseud: p},
		PatientIDHandler{Col: "Patientennummer", Pseud: p},
		StartDateTimeHandler("Aufnahmedatumuhrzeit"),
		DiagnosesHandler{Col: "Entlassdiagnosen"},
		DiagnosesHandler{Col: "Aufnahmediagnosen"},
	)

	draft, err := chain.Run(rawRow(map[string]string{
		"Aufnahmenummer":       "E100",
		"Patientennummer":      "P200",
		"Aufnahmedatumuhrzeit": "202401150000",
		"Entlassdiagnosen":     "A01; B02",
	}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if draft.EncounterIDE == nil || *draft.EncounterIDE != p.Anonymize(pseudonym.Encounter, "E100") {
		t.Error("encounter ide not pseudonymized")
	}
	if draft.PatientIDE == nil || *draft.PatientIDE != p.Anonymize(pseudonym.Patient, "P200") {
		t.Error("patient ide not pseudonymized")
	}
	if draft.StartDateTime == nil || *draft.StartDateTime != "2024-01-15 00:00" {
		t.Errorf("start = %v", draft.StartDateTime)
	}
	if len(draft.Diagnoses) != 2 || draft.Diagnoses[0] != "A01" || draft.Diagnoses[1] != "B02" {
		t.Errorf("diagnoses = %v", draft.Diagnoses)
	}
}

// The admission-diagnosis handler runs after the discharge-diagnosis
// handler and overrides its value when both columns are filled.
func TestAdmissionDiagnosesOverrideDischarge(t *testing.T) {
	chain := NewChain(
		DiagnosesHandler{Col: "Entlassdiagnosen"},
		DiagnosesHandler{Col: "Aufnahmediagnosen"},
	)

	draft, err := chain.Run(rawRow(map[string]string{
		"Entlassdiagnosen":  "X1",
		"Aufnahmediagnosen": "X2",
	}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(draft.Diagnoses) != 1 || draft.Diagnoses[0] != "X2" {
		t.Errorf("diagnoses = %v, want [X2]", draft.Diagnoses)
	}
}

func TestDischargeDiagnosesSurviveEmptyAdmissionColumn(t *testing.T) {
	chain := NewChain(
		DiagnosesHandler{Col: "Entlassdiagnosen"},
		DiagnosesHandler{Col: "Aufnahmediagnosen"},
	)

	draft, err := chain.Run(rawRow(map[string]string{"Entlassdiagnosen": "X1"}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(draft.Diagnoses) != 1 || draft.Diagnoses[0] != "X1" {
		t.Errorf("diagnoses = %v, want [X1]", draft.Diagnoses)
	}
}

func TestUnparseableDateRejectsRow(t *testing.T) {
	chain := NewChain(StartDateTimeHandler("AUFNAHME_DATUM"))
	if _, err := chain.Run(rawRow(map[string]string{"AUFNAHME_DATUM": "not-a-date"})); err == nil {
		t.Fatal("expected rejection")
	}
}

func TestMissingColumnLeavesFieldUnset(t *testing.T) {
	p := testPseud(t)
	chain := NewChain(PatientIDHandler{Col: "Patientennummer", Pseud: p})

	draft, err := chain.Run(rawRow(nil))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if draft.PatientIDE != nil {
		t.Error("patient ide set from absent column")
	}
	if draft.Complete([]Field{FieldPatientIDE}) {
		t.Error("draft without patient ide reported complete")
	}
}

func TestAgeHandler(t *testing.T) {
	h := AgeHandler{Col: "Alter des Patienten"}

	d := &Draft{}
	if err := h.Process(d, rawRow(map[string]string{"Alter des Patienten": "42"})); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if d.AgeYears == nil || *d.AgeYears != 42 {
		t.Errorf("age = %v", d.AgeYears)
	}

	for _, bad := range []string{"0", "-3", "abc"} {
		if err := h.Process(&Draft{}, rawRow(map[string]string{"Alter des Patienten": bad})); err == nil {
			t.Errorf("age %q accepted", bad)
		}
	}
	if err := h.Process(&Draft{}, rawRow(nil)); err == nil {
		t.Error("missing age accepted")
	}
}

func TestSexHandlerRemaps(t *testing.T) {
	h := SexHandler{Col: "Geschlecht", Map: map[string]string{"M": "M", "W": "F", "U": "X"}}

	d := &Draft{}
	if err := h.Process(d, rawRow(map[string]string{"Geschlecht": "W"})); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if d.SexCode == nil || *d.SexCode != "F" {
		t.Errorf("sex = %v, want F", d.SexCode)
	}

	if err := h.Process(&Draft{}, rawRow(map[string]string{"Geschlecht": "Q"})); err == nil {
		t.Error("unknown sex code accepted")
	}
}

func TestAssessmentHandlerRange(t *testing.T) {
	h := AssessmentHandler{Col: "PTS"}
	for _, ok := range []string{"1", "3", "5"} {
		if err := h.Process(&Draft{}, rawRow(map[string]string{"PTS": ok})); err != nil {
			t.Errorf("assessment %q rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"0", "6", "x", ""} {
		if err := h.Process(&Draft{}, rawRow(map[string]string{"PTS": bad})); err == nil {
			t.Errorf("assessment %q accepted", bad)
		}
	}
}

func TestFirstContactAddsToAssessmentDate(t *testing.T) {
	h := FirstContactHandler{Col: "ErstkontaktArzt"}

	base := "2024-01-15 13:40"
	d := &Draft{AssessmentDate: &base}
	if err := h.Process(d, rawRow(map[string]string{"ErstkontaktArzt": "12:30"})); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if d.FirstContact == nil || *d.FirstContact != "2024-01-15 13:52:30" {
		t.Errorf("first contact = %v", d.FirstContact)
	}
}

// Later handlers may depend on fields set earlier; ordering the
// first-contact handler before the assessment date rejects the row.
func TestFirstContactRequiresAssessmentDate(t *testing.T) {
	h := FirstContactHandler{Col: "ErstkontaktArzt"}
	if err := h.Process(&Draft{}, rawRow(map[string]string{"ErstkontaktArzt": "01:00"})); err == nil {
		t.Fatal("expected rejection without assessment date")
	}
}
