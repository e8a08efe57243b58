// Package pipeline implements the column-extraction stage shared by all
// importer variants: an ordered list of handlers, each owning one source
// column, that transform raw cells into a draft record. A draft is
// all-or-nothing; if any handler fails or a required field stays unset,
// the whole row is discarded.
package pipeline

// Field names a logical slot of the draft record.
type Field string

const (
	FieldPatientIDE     Field = "patient_ide"
	FieldEncounterIDE   Field = "encounter_ide"
	FieldStartDateTime  Field = "start_datetime"
	FieldDiagnoses      Field = "diagnoses"
	FieldBirthDate      Field = "birth_date"
	FieldAgeYears       Field = "age_years"
	FieldSexCode        Field = "sex_cd"
	FieldAssessment     Field = "assessment"
	FieldAssessmentDate Field = "assessment_date"
	FieldFirstContact   Field = "first_contact"
)

// Draft accumulates parsed fields while one source row walks the
// handler chain. Scalar fields are pointers so "never set" stays
// distinguishable from any real value. Dates and timestamps are kept in
// their warehouse text form.
type Draft struct {
	PatientIDE     *string
	EncounterIDE   *string
	StartDateTime  *string
	Diagnoses      []string
	BirthDate      *string
	AgeYears       *int
	SexCode        *string
	Assessment     *string
	AssessmentDate *string
	FirstContact   *string
}

// Has reports whether the given field has been set.
func (d *Draft) Has(f Field) bool {
	switch f {
	case FieldPatientIDE:
		return d.PatientIDE != nil
	case FieldEncounterIDE:
		return d.EncounterIDE != nil
	case FieldStartDateTime:
		return d.StartDateTime != nil
	case FieldDiagnoses:
		return len(d.Diagnoses) > 0
	case FieldBirthDate:
		return d.BirthDate != nil
	case FieldAgeYears:
		return d.AgeYears != nil
	case FieldSexCode:
		return d.SexCode != nil
	case FieldAssessment:
		return d.Assessment != nil
	case FieldAssessmentDate:
		return d.AssessmentDate != nil
	case FieldFirstContact:
		return d.FirstContact != nil
	}
	return false
}

// Complete reports whether every required field has been set.
func (d *Draft) Complete(required []Field) bool {
	for _, f := range required {
		if !d.Has(f) {
			return false
		}
	}
	return true
}
