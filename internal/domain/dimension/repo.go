package dimension

import "context"

type Repository interface {
	PatientExists(ctx context.Context, patientNum int64) (bool, error)
	InsertPatient(ctx context.Context, p *Patient) error
	VisitExists(ctx context.Context, encounterNum int64) (bool, error)
	InsertVisit(ctx context.Context, v *Visit) error
}
