package facts

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

func (r *repoPG) EncounterExists(ctx context.Context, encounterNum int64) (bool, error) {
	var num int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT encounter_num FROM observation_fact WHERE encounter_num = $1 LIMIT 1`, encounterNum,
	).Scan(&num)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// starts_with avoids LIKE here: tag prefixes contain underscores, which
// LIKE would treat as wildcards.
func (r *repoPG) DeleteByTagPrefix(ctx context.Context, encounterNum int64, tagPrefix string) (int, error) {
	ct, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM observation_fact
		WHERE encounter_num = $1 AND starts_with(sourcesystem_cd, $2)`,
		encounterNum, tagPrefix,
	)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

const insertFactSQL = `
	INSERT INTO observation_fact (
		encounter_num, patient_num, concept_cd, provider_id,
		start_date, modifier_cd, instance_num,
		import_date, sourcesystem_cd
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

// Insert writes one fact row. Inside a surrounding transaction it runs
// under a savepoint, so a duplicate-key failure poisons neither the
// enclosing delete nor the sibling inserts.
func (r *repoPG) Insert(ctx context.Context, f *Fact) error {
	args := []interface{}{
		f.EncounterNum, f.PatientNum, f.ConceptCD, f.ProviderID,
		f.StartDate, f.ModifierCD, f.InstanceNum,
		f.ImportDate, f.SourcesystemCD,
	}

	if tx := db.TxFromContext(ctx); tx != nil {
		sp, err := tx.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := sp.Exec(ctx, insertFactSQL, args...); err != nil {
			sp.Rollback(ctx)
			return err
		}
		return sp.Commit(ctx)
	}

	_, err := r.pool.Exec(ctx, insertFactSQL, args...)
	return err
}
