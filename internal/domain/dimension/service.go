package dimension

import (
	"context"
	"fmt"
	"time"
)

// Service inserts dimension rows if they are absent. Existing rows are
// never modified here; dimensions are owned by whichever run created
// them first.
type Service struct {
	repo Repository
	tag  string
	now  func() time.Time
}

func NewService(repo Repository, sourcesystemCD string) *Service {
	return &Service{repo: repo, tag: sourcesystemCD, now: time.Now}
}

// EnsurePatient writes the patient_dimension row for patientNum unless
// one already exists.
func (s *Service) EnsurePatient(ctx context.Context, patientNum int64, birthDate, sexCD string, ageYears int) error {
	exists, err := s.repo.PatientExists(ctx, patientNum)
	if err != nil {
		return fmt.Errorf("check patient dimension: %w", err)
	}
	if exists {
		return nil
	}
	err = s.repo.InsertPatient(ctx, &Patient{
		PatientNum:     patientNum,
		BirthDate:      birthDate,
		SexCD:          sexCD,
		AgeYears:       ageYears,
		ImportDate:     s.now(),
		SourcesystemCD: s.tag,
	})
	if err != nil {
		return fmt.Errorf("insert patient dimension: %w", err)
	}
	return nil
}

// EnsureVisit writes the visit_dimension row for encounterNum unless
// one already exists.
func (s *Service) EnsureVisit(ctx context.Context, encounterNum, patientNum int64, startDate string) error {
	exists, err := s.repo.VisitExists(ctx, encounterNum)
	if err != nil {
		return fmt.Errorf("check visit dimension: %w", err)
	}
	if exists {
		return nil
	}
	err = s.repo.InsertVisit(ctx, &Visit{
		EncounterNum:   encounterNum,
		PatientNum:     patientNum,
		StartDate:      startDate,
		ImportDate:     s.now(),
		SourcesystemCD: s.tag,
	})
	if err != nil {
		return fmt.Errorf("insert visit dimension: %w", err)
	}
	return nil
}
