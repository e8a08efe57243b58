// Package facts reconciles observation_fact rows. Fact rows are keyed
// by (encounter surrogate, concept code, source-system tag); the tag
// scopes which existing rows a reimport may replace, so one importer
// never disturbs rows written by another.
package facts

import "time"

// Fact is one observation_fact row. Importers fill the clinical fields;
// the reconciler stamps surrogates, tag and import timestamp.
type Fact struct {
	EncounterNum   int64
	PatientNum     int64
	ConceptCD      string
	ProviderID     string
	StartDate      string
	ModifierCD     string
	InstanceNum    int
	ImportDate     time.Time
	SourcesystemCD string
}

// Result reports what one reconciliation did.
type Result struct {
	Inserted int // fact rows written
	Updated  int // prior rows of this importer removed before writing
	Skipped  int // rows abandoned after a row-level failure
}
