package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config carries everything the importer needs at startup: the
// pseudonymization settings read from the warehouse properties file and
// the connection/identity values supplied through the environment.
type Config struct {
	// From the properties file.
	Salt          string
	Algorithm     string
	PatientRoot   string
	EncounterRoot string

	// From the environment.
	Username        string `mapstructure:"USERNAME"`
	Password        string `mapstructure:"PASSWORD"`
	ConnectionURL   string `mapstructure:"CONNECTION_URL"`
	ImporterID      string `mapstructure:"IMPORTER_ID"`
	ImporterVersion string `mapstructure:"IMPORTER_VERSION"`
	Env             string `mapstructure:"ENV"`

	// Per-variant CSV settings. Empty means "use the variant default";
	// set them to override a site's deviating extract format.
	CSVSeparator string `mapstructure:"CSV_SEPARATOR"`
	CSVEncoding  string `mapstructure:"CSV_ENCODING"`
}

// Properties file keys, unchanged from the warehouse convention so one
// file can serve every importer variant.
const (
	propSalt          = "pseudonym.salt"
	propAlgorithm     = "pseudonym.algorithm"
	propPatientRoot   = "cda.patient.root.preset"
	propEncounterRoot = "cda.encounter.root.preset"
)

// Load reads the properties file at propsPath and the process
// environment. A missing or unreadable properties file is a fatal
// startup error; per-row concerns never are.
func Load(propsPath string) (*Config, error) {
	if _, err := os.Stat(propsPath); err != nil {
		return nil, fmt.Errorf("properties file %s: %w", propsPath, err)
	}

	props := viper.New()
	props.SetConfigFile(propsPath)
	props.SetConfigType("properties")
	if err := props.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read properties file %s: %w", propsPath, err)
	}

	env := viper.New()
	env.AutomaticEnv()
	env.SetDefault("ENV", "production")
	env.SetDefault("IMPORTER_VERSION", "1.0.0")

	// Bind env vars explicitly so Unmarshal picks them up
	env.BindEnv("USERNAME")
	env.BindEnv("PASSWORD")
	env.BindEnv("CONNECTION_URL")
	env.BindEnv("IMPORTER_ID")
	env.BindEnv("IMPORTER_VERSION")
	env.BindEnv("ENV")
	env.BindEnv("CSV_SEPARATOR")
	env.BindEnv("CSV_ENCODING")

	cfg := &Config{}
	if err := env.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Salt = props.GetString(propSalt)
	cfg.Algorithm = normalizeAlgorithm(props.GetString(propAlgorithm))
	cfg.PatientRoot = props.GetString(propPatientRoot)
	cfg.EncounterRoot = props.GetString(propEncounterRoot)

	return cfg, nil
}

// normalizeAlgorithm maps names like "SHA-1" or "SHA/1" to the registry
// form used by the pseudonymizer. Empty defaults to sha1.
func normalizeAlgorithm(name string) string {
	if name == "" {
		return "sha1"
	}
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "/", "_")
	return strings.ToLower(name)
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is complete enough to open a
// warehouse connection and pseudonymize identifiers. It runs before the
// first row is read; any error here aborts the run.
func (c *Config) Validate() error {
	if c.ConnectionURL == "" {
		return fmt.Errorf("CONNECTION_URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("USERNAME is required")
	}
	if c.Password == "" {
		return fmt.Errorf("PASSWORD is required")
	}
	if c.ImporterID == "" {
		return fmt.Errorf("IMPORTER_ID is required")
	}
	if c.PatientRoot == "" {
		return fmt.Errorf("%s is required in the properties file", propPatientRoot)
	}
	if c.EncounterRoot == "" {
		return fmt.Errorf("%s is required in the properties file", propEncounterRoot)
	}
	return nil
}
