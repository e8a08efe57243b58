package facts

import "context"

type Repository interface {
	EncounterExists(ctx context.Context, encounterNum int64) (bool, error)
	// DeleteByTagPrefix removes this encounter's facts whose
	// source-system tag starts with tagPrefix and returns how many
	// rows went away.
	DeleteByTagPrefix(ctx context.Context, encounterNum int64, tagPrefix string) (int, error)
	Insert(ctx context.Context, f *Fact) error
}
