package importer

import (
	"context"

	"github.com/clindwh/clindwh/internal/domain/facts"
	"github.com/clindwh/clindwh/internal/domain/identity"
	"github.com/clindwh/clindwh/internal/pipeline"
	"github.com/clindwh/clindwh/internal/platform/pseudonym"
)

// Diagnosis codes are written under the German ICD-10 modification.
const icdScheme = "ICD10GM:"

// NewDiagnoses builds the diagnosis reimport variant. It acts only on
// encounters the warehouse already knows (presence gate) and replaces
// its own prior rows per encounter (replace-scoped-by-tag), which makes
// reimporting the same extract idempotent.
//
// Column semantics: discharge diagnoses are extracted first, admission
// diagnoses afterwards; when both are present the admission list wins.
func NewDiagnoses(def pipeline.Definition, pseud *pseudonym.Pseudonymizer, resolver *identity.Resolver, reconciler *facts.Reconciler) *Importer {
	chain := pipeline.NewChain(
		pipeline.EncounterIDHandler{Col: "Aufnahmenummer", Pseud: pseud},
		pipeline.PatientIDHandler{Col: "Patientennummer", Pseud: pseud},
		pipeline.StartDateTimeHandler("Aufnahmedatumuhrzeit"),
		pipeline.DiagnosesHandler{Col: "Entlassdiagnosen"},
		pipeline.DiagnosesHandler{Col: "Aufnahmediagnosen"},
	)

	apply := func(ctx context.Context, d *pipeline.Draft, acc *pipeline.Accumulator) error {
		encounterNum, encOK, err := resolver.LookupEncounter(ctx, *d.EncounterIDE)
		if err != nil {
			return err
		}
		patientNum, patOK, err := resolver.LookupPatient(ctx, *d.PatientIDE)
		if err != nil {
			return err
		}
		if !encOK || !patOK {
			return nil // encounter never reached the warehouse, nothing to update
		}
		exists, err := reconciler.EncounterExists(ctx, encounterNum)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}
		acc.RowMatched()

		newFacts := make([]facts.Fact, 0, len(d.Diagnoses))
		for _, code := range d.Diagnoses {
			newFacts = append(newFacts, facts.Fact{
				ConceptCD:  icdScheme + code,
				ProviderID: "@",
				StartDate:  *d.StartDateTime,
			})
		}
		res, err := reconciler.Replace(ctx, encounterNum, patientNum, newFacts)
		if err != nil {
			return err
		}
		acc.FactsInserted(res.Inserted)
		acc.FactsUpdated(res.Updated)
		return nil
	}

	return &Importer{Definition: def, Chain: chain, Apply: apply}
}

// DiagnosesDefinition describes the diagnosis reimport extract: a
// semicolon-separated, Latin-1 encoded CSV.
func DiagnosesDefinition(id, version string) pipeline.Definition {
	return pipeline.Definition{
		ID:        id,
		Version:   version,
		Separator: ';',
		Encoding:  "latin-1",
		Columns: []string{
			"Aufnahmenummer", "Patientennummer", "Aufnahmedatumuhrzeit",
			"Entlassdiagnosen", "Aufnahmediagnosen",
		},
		Required: []pipeline.Field{
			pipeline.FieldEncounterIDE,
			pipeline.FieldPatientIDE,
			pipeline.FieldStartDateTime,
			pipeline.FieldDiagnoses,
		},
	}
}
