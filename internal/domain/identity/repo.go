package identity

import "context"

// Repository is the persistence surface of the two mapping tables.
// Lookups return ok=false when the opaque identifier is unknown.
type Repository interface {
	PatientNumForIDE(ctx context.Context, patientIDE string) (int64, bool, error)
	MaxPatientNum(ctx context.Context) (int64, error)
	InsertPatientMapping(ctx context.Context, m *PatientMapping) error

	EncounterNumForIDE(ctx context.Context, encounterIDE string) (int64, bool, error)
	MaxEncounterNum(ctx context.Context) (int64, error)
	InsertEncounterMapping(ctx context.Context, m *EncounterMapping) error
}
