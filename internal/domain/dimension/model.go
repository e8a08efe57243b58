// Package dimension writes the patient_dimension and visit_dimension
// star-schema tables. Dimension rows are created once per surrogate and
// never replaced by the importers; reruns leave existing rows alone.
package dimension

import "time"

// Patient is one patient_dimension row.
type Patient struct {
	PatientNum     int64
	BirthDate      string
	SexCD          string
	AgeYears       int
	ImportDate     time.Time
	SourcesystemCD string
}

// Visit is one visit_dimension row.
type Visit struct {
	EncounterNum   int64
	PatientNum     int64
	StartDate      string
	ImportDate     time.Time
	SourcesystemCD string
}
