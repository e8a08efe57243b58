package dimension

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

func (r *repoPG) PatientExists(ctx context.Context, patientNum int64) (bool, error) {
	var num int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT patient_num FROM patient_dimension WHERE patient_num = $1`, patientNum,
	).Scan(&num)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *repoPG) InsertPatient(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_dimension (
			patient_num, birth_date, sex_cd, age_in_years_num,
			import_date, sourcesystem_cd
		) VALUES ($1,$2,$3,$4,$5,$6)`,
		p.PatientNum, p.BirthDate, p.SexCD, p.AgeYears,
		p.ImportDate, p.SourcesystemCD,
	)
	return err
}

func (r *repoPG) VisitExists(ctx context.Context, encounterNum int64) (bool, error) {
	var num int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT encounter_num FROM visit_dimension WHERE encounter_num = $1`, encounterNum,
	).Scan(&num)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *repoPG) InsertVisit(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visit_dimension (
			encounter_num, patient_num, start_date,
			import_date, sourcesystem_cd
		) VALUES ($1,$2,$3,$4,$5)`,
		v.EncounterNum, v.PatientNum, v.StartDate,
		v.ImportDate, v.SourcesystemCD,
	)
	return err
}
