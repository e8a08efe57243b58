package importer

import (
	"context"

	"github.com/clindwh/clindwh/internal/domain/dimension"
	"github.com/clindwh/clindwh/internal/domain/facts"
	"github.com/clindwh/clindwh/internal/domain/identity"
	"github.com/clindwh/clindwh/internal/pipeline"
	"github.com/clindwh/clindwh/internal/platform/pseudonym"
)

// Triage and first-contact concept codes for the initial-load facts.
const (
	triageScheme         = "ESI:"
	physEncounterConcept = "AKTIN:PHYSENCOUNTER"
)

// sexMap remaps the source sex codes onto the warehouse vocabulary.
var sexMap = map[string]string{"M": "M", "W": "F", "U": "X"}

// NewAdmissions builds the initial-load variant: it allocates mappings
// for unseen patients and encounters, fills the dimension tables, and
// writes triage facts for encounters that have none yet. Rerunning the
// same extract changes nothing.
func NewAdmissions(def pipeline.Definition, pseud *pseudonym.Pseudonymizer, resolver *identity.Resolver, dims *dimension.Service, reconciler *facts.Reconciler) *Importer {
	chain := pipeline.NewChain(
		pipeline.StartDateTimeHandler("AUFNAHME_DATUM"),
		pipeline.EncounterIDHandler{Col: "Fall", Pseud: pseud},
		pipeline.PatientIDHandler{Col: "Patient", Pseud: pseud},
		pipeline.BirthDateHandler("Geburtsdatum"),
		pipeline.AgeHandler{Col: "Alter des Patienten"},
		pipeline.SexHandler{Col: "Geschlecht", Map: sexMap},
		pipeline.AssessmentHandler{Col: "PTS"},
		pipeline.AssessmentDateHandler("TIMES_PRIO"),
		pipeline.FirstContactHandler{Col: "ErstkontaktArzt"},
	)

	apply := func(ctx context.Context, d *pipeline.Draft, acc *pipeline.Accumulator) error {
		patientNum, err := resolver.ResolvePatient(ctx, *d.PatientIDE)
		if err != nil {
			return err
		}
		if err := dims.EnsurePatient(ctx, patientNum, *d.BirthDate, *d.SexCode, *d.AgeYears); err != nil {
			return err
		}
		encounterNum, err := resolver.ResolveEncounter(ctx, *d.EncounterIDE, *d.PatientIDE)
		if err != nil {
			return err
		}
		if err := dims.EnsureVisit(ctx, encounterNum, patientNum, *d.StartDateTime); err != nil {
			return err
		}
		acc.RowMatched()

		newFacts := []facts.Fact{
			{
				ConceptCD:  triageScheme + *d.Assessment,
				ProviderID: def.ID,
				StartDate:  *d.AssessmentDate,
			},
			{
				ConceptCD:  physEncounterConcept,
				ProviderID: def.ID,
				StartDate:  *d.FirstContact,
			},
		}
		res, err := reconciler.InsertIfAbsent(ctx, encounterNum, patientNum, newFacts)
		if err != nil {
			return err
		}
		acc.FactsInserted(res.Inserted)
		return nil
	}

	return &Importer{Definition: def, Chain: chain, Apply: apply}
}

// AdmissionsDefinition describes the initial-load extract: a
// comma-separated UTF-8 CSV covering demographics and triage.
func AdmissionsDefinition(id, version string) pipeline.Definition {
	return pipeline.Definition{
		ID:        id,
		Version:   version,
		Separator: ',',
		Encoding:  "utf-8",
		Columns: []string{
			"AUFNAHME_DATUM", "Fall", "Patient", "Geburtsdatum",
			"Alter des Patienten", "Geschlecht", "PTS", "TIMES_PRIO",
			"ErstkontaktArzt",
		},
		Required: []pipeline.Field{
			pipeline.FieldStartDateTime,
			pipeline.FieldEncounterIDE,
			pipeline.FieldPatientIDE,
			pipeline.FieldBirthDate,
			pipeline.FieldAgeYears,
			pipeline.FieldSexCode,
			pipeline.FieldAssessment,
			pipeline.FieldAssessmentDate,
			pipeline.FieldFirstContact,
		},
	}
}
