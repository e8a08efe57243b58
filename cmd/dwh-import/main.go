package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clindwh/clindwh/internal/config"
	"github.com/clindwh/clindwh/internal/domain/dimension"
	"github.com/clindwh/clindwh/internal/domain/facts"
	"github.com/clindwh/clindwh/internal/domain/identity"
	"github.com/clindwh/clindwh/internal/importer"
	"github.com/clindwh/clindwh/internal/pipeline"
	"github.com/clindwh/clindwh/internal/platform/db"
	"github.com/clindwh/clindwh/internal/platform/pseudonym"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dwh-import",
		Short: "Batch importer for the pseudonymized clinical data warehouse",
	}

	rootCmd.PersistentFlags().String("properties", "/etc/aktin/aktin.properties", "Path to the warehouse properties file")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(schemaCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a source extract into the warehouse",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "diagnoses <file.csv>",
		Short: "Reimport diagnosis data for encounters already in the warehouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, _ := cmd.Flags().GetString("properties")
			return runImport(cmd.Context(), props, args[0], buildDiagnoses)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "admissions <file.csv>",
		Short: "Load admission, demographic and triage data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, _ := cmd.Flags().GetString("properties")
			return runImport(cmd.Context(), props, args[0], buildAdmissions)
		},
	})

	return cmd
}

// builder assembles one importer variant against an open pool.
type builder func(ctx context.Context, cfg *config.Config, pseud *pseudonym.Pseudonymizer, pool *pgxpool.Pool, log zerolog.Logger) (*importer.Importer, []db.TableContract, error)

func buildDiagnoses(ctx context.Context, cfg *config.Config, pseud *pseudonym.Pseudonymizer, pool *pgxpool.Pool, log zerolog.Logger) (*importer.Importer, []db.TableContract, error) {
	def := importer.DiagnosesDefinition(cfg.ImporterID, cfg.ImporterVersion)
	tag := def.Tag(pseud)

	resolver, err := identity.NewResolver(ctx, identity.NewRepo(pool), tag)
	if err != nil {
		return nil, nil, err
	}
	reconciler := facts.NewReconciler(facts.NewRepo(pool), db.PoolTxRunner{Pool: pool}, tag, pipeline.TagPrefix(tag), log)

	contracts := []db.TableContract{
		db.PatientMappingTable, db.EncounterMappingTable, db.ObservationFactTable,
	}
	return importer.NewDiagnoses(def, pseud, resolver, reconciler), contracts, nil
}

func buildAdmissions(ctx context.Context, cfg *config.Config, pseud *pseudonym.Pseudonymizer, pool *pgxpool.Pool, log zerolog.Logger) (*importer.Importer, []db.TableContract, error) {
	def := importer.AdmissionsDefinition(cfg.ImporterID, cfg.ImporterVersion)
	tag := def.Tag(pseud)

	resolver, err := identity.NewResolver(ctx, identity.NewRepo(pool), tag)
	if err != nil {
		return nil, nil, err
	}
	dims := dimension.NewService(dimension.NewRepo(pool), tag)
	reconciler := facts.NewReconciler(facts.NewRepo(pool), db.PoolTxRunner{Pool: pool}, tag, pipeline.TagPrefix(tag), log)

	contracts := []db.TableContract{
		db.PatientMappingTable, db.EncounterMappingTable,
		db.PatientDimensionTable, db.VisitDimensionTable, db.ObservationFactTable,
	}
	return importer.NewAdmissions(def, pseud, resolver, dims, reconciler), contracts, nil
}

func runImport(ctx context.Context, propsPath, csvPath string, build builder) error {
	cfg, err := config.Load(propsPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(cfg).With().Str("run_id", uuid.NewString()).Logger()

	pseud, err := pseudonym.New(cfg.Algorithm, cfg.Salt, cfg.PatientRoot, cfg.EncounterRoot)
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.ConnectionURL, cfg.Username, cfg.Password)
	if err != nil {
		return err
	}
	defer pool.Close()

	imp, contracts, err := build(ctx, cfg, pseud, pool, log)
	if err != nil {
		return err
	}
	if err := db.ValidateContracts(ctx, pool, contracts...); err != nil {
		return err
	}

	log.Info().Str("importer", imp.Definition.ID).Str("file", csvPath).Msg("import started")

	summary, err := importer.Run(ctx, imp, csvPath, imp.Definition.ReaderOptions(cfg.CSVSeparator, cfg.CSVEncoding), log)
	if err != nil {
		return err
	}

	fmt.Println(summary)
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the warehouse schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			props, _ := cmd.Flags().GetString("properties")
			dir, _ := cmd.Flags().GetString("dir")

			pool, err := openPool(cmd.Context(), props)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			props, _ := cmd.Flags().GetString("properties")
			dir, _ := cmd.Flags().GetString("dir")

			pool, err := openPool(cmd.Context(), props)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, st := range statuses {
				mark := "pending"
				if st.Applied {
					mark = "applied " + st.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Printf("%3d  %-40s %s\n", st.Version, st.Name, mark)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the warehouse schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the warehouse tables against the importer contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			props, _ := cmd.Flags().GetString("properties")

			pool, err := openPool(cmd.Context(), props)
			if err != nil {
				return err
			}
			defer pool.Close()

			err = db.ValidateContracts(cmd.Context(), pool,
				db.PatientMappingTable, db.EncounterMappingTable,
				db.PatientDimensionTable, db.VisitDimensionTable,
				db.ObservationFactTable,
			)
			if err != nil {
				return err
			}
			fmt.Println("All table contracts satisfied.")
			return nil
		},
	})
	return cmd
}

func openPool(ctx context.Context, propsPath string) (*pgxpool.Pool, error) {
	cfg, err := config.Load(propsPath)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectionURL == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("CONNECTION_URL, USERNAME and PASSWORD are required")
	}
	return db.NewPool(ctx, cfg.ConnectionURL, cfg.Username, cfg.Password)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}
