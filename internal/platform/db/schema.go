package db

import (
	"context"
	"fmt"
	"strings"
)

// TableContract is the explicit, versioned shape an importer expects a
// warehouse table to have. Contracts replace runtime table reflection:
// every table an importer touches is declared up front and checked
// against the live database before the first row is processed.
type TableContract struct {
	Name    string
	Version int
	Columns []string
}

// Warehouse table contracts shared by all importer variants.
var (
	PatientMappingTable = TableContract{
		Name:    "patient_mapping",
		Version: 1,
		Columns: []string{
			"patient_ide", "patient_ide_source", "patient_num",
			"project_id", "import_date", "sourcesystem_cd",
		},
	}
	EncounterMappingTable = TableContract{
		Name:    "encounter_mapping",
		Version: 1,
		Columns: []string{
			"encounter_ide", "encounter_ide_source", "encounter_num",
			"patient_ide", "patient_ide_source", "project_id",
			"import_date", "sourcesystem_cd",
		},
	}
	PatientDimensionTable = TableContract{
		Name:    "patient_dimension",
		Version: 1,
		Columns: []string{
			"patient_num", "birth_date", "sex_cd", "age_in_years_num",
			"import_date", "sourcesystem_cd",
		},
	}
	VisitDimensionTable = TableContract{
		Name:    "visit_dimension",
		Version: 1,
		Columns: []string{
			"encounter_num", "patient_num", "start_date",
			"import_date", "sourcesystem_cd",
		},
	}
	ObservationFactTable = TableContract{
		Name:    "observation_fact",
		Version: 1,
		Columns: []string{
			"encounter_num", "patient_num", "concept_cd", "provider_id",
			"start_date", "modifier_cd", "instance_num",
			"import_date", "sourcesystem_cd",
		},
	}
)

// ValidateContracts checks each contract against information_schema and
// fails fast on any missing table or column. Run at startup, before any
// row is read.
func ValidateContracts(ctx context.Context, q Querier, contracts ...TableContract) error {
	for _, c := range contracts {
		if err := validateContract(ctx, q, c); err != nil {
			return err
		}
	}
	return nil
}

func validateContract(ctx context.Context, q Querier, c TableContract) error {
	rows, err := q.Query(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_name = $1`, c.Name)
	if err != nil {
		return fmt.Errorf("inspect table %s: %w", c.Name, err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return fmt.Errorf("scan column of %s: %w", c.Name, err)
		}
		present[col] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect table %s: %w", c.Name, err)
	}

	if len(present) == 0 {
		return fmt.Errorf("table %s (contract v%d) does not exist in the warehouse", c.Name, c.Version)
	}

	var missing []string
	for _, col := range c.Columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s does not satisfy contract v%d: missing columns %s",
			c.Name, c.Version, strings.Join(missing, ", "))
	}
	return nil
}
