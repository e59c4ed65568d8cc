// Package config defines the data structures of the initialization file and
// includes functions for loading, checking and writing it.
package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/grmpy/grmpy-go/pkg/constants"
	"github.com/grmpy/grmpy-go/pkg/model"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for a simulation run.
type Configuration struct {
	Simulation    SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Deterministic bool             `mapstructure:"deterministic" yaml:"deterministic"`
	Treated       EquationConfig   `mapstructure:"treated" yaml:"treated"`
	Untreated     EquationConfig   `mapstructure:"untreated" yaml:"untreated"`
	Cost          EquationConfig   `mapstructure:"cost" yaml:"cost"`
	Dist          DistConfig       `mapstructure:"dist" yaml:"dist"`
	Logging       LoggingConfig    `mapstructure:"logging" yaml:"logging,omitempty"`
	Output        OutputConfig     `mapstructure:"output" yaml:"output,omitempty"`
}

// SimulationConfig holds the run size, seed and output file stem.
type SimulationConfig struct {
	Agents       int    `mapstructure:"agents" yaml:"agents"`
	Seed         uint64 `mapstructure:"seed" yaml:"seed"`
	Source       string `mapstructure:"source" yaml:"source"`
	Replications int    `mapstructure:"replications" yaml:"replications,omitempty"`
}

// EquationConfig holds the coefficients of one equation. Types describe the
// covariate columns: each entry is "nonbinary" or a map {binary: p}. Outcome
// column types are read from the treated equation since both outcome
// equations share the regressors X.
type EquationConfig struct {
	Coeff []float64     `mapstructure:"coeff" yaml:"coeff"`
	Types []interface{} `mapstructure:"types" yaml:"types,omitempty"`
}

// DistConfig holds (Var U0, Var U1, Var Uc, Cov(U0,U1), Cov(U0,Uc), Cov(U1,Uc)).
type DistConfig struct {
	Coeff []float64 `mapstructure:"coeff" yaml:"coeff"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output configuration options
type OutputConfig struct {
	Format      string    `mapstructure:"format" yaml:"format,omitempty"` // text, csv
	Directory   string    `mapstructure:"directory" yaml:"directory,omitempty"`
	Quantiles   []float64 `mapstructure:"quantiles" yaml:"quantiles,omitempty"`
	MetricsFile string    `mapstructure:"metricsFile" yaml:"metricsFile,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// initialization file there. Values may be overridden through GRMPY_*
// environment variables, e.g. GRMPY_SIMULATION_SEED.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromBytes loads an initialization file held in memory.
func LoadConfigurationFromBytes(data []byte) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("grmpy")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("simulation.source", constants.DefaultSource)
	v.SetDefault("simulation.replications", 1)
	v.SetDefault("output.format", constants.OutputFormatText)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// OutputFormat returns the dataset file format, defaulting to text.
func (c *Configuration) OutputFormat() string {
	if c.Output.Format == "" {
		return constants.OutputFormatText
	}
	return c.Output.Format
}

// Quantiles returns the MTE quantiles to report.
func (c *Configuration) Quantiles() []float64 {
	if len(c.Output.Quantiles) == 0 {
		return constants.DefaultMTEQuantiles()
	}
	return c.Output.Quantiles
}

// ModelParameters converts the configuration into validated model parameters.
func (c *Configuration) ModelParameters() (model.ModelParameters, error) {
	dist, err := model.DistributionFromCoefficients(c.Dist.Coeff)
	if err != nil {
		return model.ModelParameters{}, err
	}
	outcomeColumns, err := ParseCovariateTypes(c.Treated.Types)
	if err != nil {
		return model.ModelParameters{}, fmt.Errorf("%w: treated types: %w", model.ErrMalformedParameters, err)
	}
	costColumns, err := ParseCovariateTypes(c.Cost.Types)
	if err != nil {
		return model.ModelParameters{}, fmt.Errorf("%w: cost types: %w", model.ErrMalformedParameters, err)
	}

	params := model.ModelParameters{
		Untreated:      c.Untreated.Coeff,
		Treated:        c.Treated.Coeff,
		Cost:           c.Cost.Coeff,
		Distribution:   dist,
		OutcomeColumns: outcomeColumns,
		CostColumns:    costColumns,
		Agents:         c.Simulation.Agents,
		Deterministic:  c.Deterministic,
	}
	if err := params.Validate(); err != nil {
		return model.ModelParameters{}, err
	}
	return params, nil
}

// FromModelParameters builds a configuration describing params.
func FromModelParameters(params model.ModelParameters, seed uint64, source string) Configuration {
	return Configuration{
		Simulation: SimulationConfig{
			Agents: params.Agents,
			Seed:   seed,
			Source: source,
		},
		Deterministic: params.Deterministic,
		Treated:       EquationConfig{Coeff: params.Treated, Types: FormatCovariateTypes(params.OutcomeColumns)},
		Untreated:     EquationConfig{Coeff: params.Untreated},
		Cost:          EquationConfig{Coeff: params.Cost, Types: FormatCovariateTypes(params.CostColumns)},
		Dist:          DistConfig{Coeff: params.Distribution.Coefficients()},
	}
}
