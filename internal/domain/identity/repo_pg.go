package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clindwh/clindwh/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) PatientNumForIDE(ctx context.Context, patientIDE string) (int64, bool, error) {
	var num int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT patient_num FROM patient_mapping WHERE patient_ide = $1`, patientIDE,
	).Scan(&num)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return num, true, nil
}

func (r *repoPG) MaxPatientNum(ctx context.Context) (int64, error) {
	var max int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(patient_num), 0) FROM patient_mapping`,
	).Scan(&max)
	return max, err
}

func (r *repoPG) InsertPatientMapping(ctx context.Context, m *PatientMapping) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_mapping (
			patient_ide, patient_ide_source, patient_num, project_id,
			import_date, sourcesystem_cd
		) VALUES ($1,$2,$3,$4,$5,$6)`,
		m.PatientIDE, IDESource, m.PatientNum, ProjectID,
		m.ImportDate, m.SourcesystemCD,
	)
	return err
}

func (r *repoPG) EncounterNumForIDE(ctx context.Context, encounterIDE string) (int64, bool, error) {
	var num int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT encounter_num FROM encounter_mapping WHERE encounter_ide = $1`, encounterIDE,
	).Scan(&num)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return num, true, nil
}

func (r *repoPG) MaxEncounterNum(ctx context.Context) (int64, error) {
	var max int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(encounter_num), 0) FROM encounter_mapping`,
	).Scan(&max)
	return max, err
}

func (r *repoPG) InsertEncounterMapping(ctx context.Context, m *EncounterMapping) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO encounter_mapping (
			encounter_ide, encounter_ide_source, encounter_num,
			patient_ide, patient_ide_source, project_id,
			import_date, sourcesystem_cd
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.EncounterIDE, IDESource, m.EncounterNum,
		m.PatientIDE, IDESource, ProjectID,
		m.ImportDate, m.SourcesystemCD,
	)
	return err
}
