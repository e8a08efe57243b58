// Package identity maps pseudonymized external identifiers onto the
// warehouse's surrogate integer keys via the patient_mapping and
// encounter_mapping tables. Surrogates are allocated at most once per
// opaque identifier and never reused.
package identity

import "time"

// Source and project constants stamped onto every mapping row, matching
// the warehouse convention.
const (
	IDESource = "HIVE"
	ProjectID = "AKTIN"
)

// PatientMapping links one opaque patient identifier to its surrogate.
type PatientMapping struct {
	PatientIDE     string
	PatientNum     int64
	ImportDate     time.Time
	SourcesystemCD string
}

// EncounterMapping links one opaque encounter identifier to its
// surrogate and to the patient it belongs to.
type EncounterMapping struct {
	EncounterIDE   string
	EncounterNum   int64
	PatientIDE     string
	ImportDate     time.Time
	SourcesystemCD string
}
