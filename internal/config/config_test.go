package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grmpy/grmpy-go/pkg/constants"
	"github.com/grmpy/grmpy-go/pkg/model"
)

const exampleInit = `simulation:
  agents: 500
  seed: 42
  source: example
treated:
  coeff: [1.0, 0.5, 0.25]
  types:
    - nonbinary
    - nonbinary
    - binary: 0.3
untreated:
  coeff: [0.5, 0.25, 0.1]
cost:
  coeff: [0.2, 0.1]
dist:
  coeff: [1.0, 1.5, 0.8, 0.3, 0.1, -0.2]
logging:
  level: debug
  format: console
output:
  quantiles: [0.25, 0.5, 0.75]
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "init.grmpy.yml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	conf, err := LoadConfiguration(writeConfig(t, exampleInit))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Simulation.Agents != 500 || conf.Simulation.Seed != 42 || conf.Simulation.Source != "example" {
		t.Errorf("unexpected simulation block: %+v", conf.Simulation)
	}
	if conf.Simulation.Replications != 1 {
		t.Errorf("expected default replications of 1, got %d", conf.Simulation.Replications)
	}
	if len(conf.Treated.Coeff) != 3 || conf.Treated.Coeff[1] != 0.5 {
		t.Errorf("unexpected treated coefficients: %v", conf.Treated.Coeff)
	}
	if conf.Logging.Level != "debug" || conf.Logging.Format != "console" {
		t.Errorf("unexpected logging block: %+v", conf.Logging)
	}
	if conf.OutputFormat() != constants.OutputFormatText {
		t.Errorf("expected default output format text, got %q", conf.OutputFormat())
	}
	if got := conf.Quantiles(); len(got) != 3 || got[1] != 0.5 {
		t.Errorf("unexpected quantiles: %v", got)
	}

	params, err := conf.ModelParameters()
	if err != nil {
		t.Fatalf("ModelParameters() error = %v", err)
	}
	want := model.Distribution{VarU0: 1.0, VarU1: 1.5, VarUC: 0.8, CovU0U1: 0.3, CovU0UC: 0.1, CovU1UC: -0.2}
	if params.Distribution != want {
		t.Errorf("Distribution = %+v, want %+v", params.Distribution, want)
	}
	spec := params.OutcomeSpec()
	if len(spec) != 3 || spec[1].Binary || !spec[2].Binary || spec[2].Probability != 0.3 {
		t.Errorf("unexpected outcome columns: %+v", spec)
	}
	if len(params.CostSpec()) != 2 {
		t.Errorf("expected default cost columns, got %+v", params.CostSpec())
	}
}

func TestLoadConfigurationDefaultsAndErrors(t *testing.T) {
	conf, err := LoadConfiguration(writeConfig(t, "simulation:\n  agents: 3\n"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if conf.Simulation.Source != constants.DefaultSource {
		t.Errorf("expected default source, got %q", conf.Simulation.Source)
	}
	if len(conf.Quantiles()) != len(constants.DefaultMTEQuantiles()) {
		t.Errorf("expected default quantiles")
	}

	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Errorf("expected error for missing file")
	}
	if _, err := LoadConfigurationFromBytes([]byte("simulation: [")); err == nil {
		t.Errorf("expected error for malformed YAML")
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("GRMPY_SIMULATION_SEED", "7")
	conf, err := LoadConfiguration(writeConfig(t, exampleInit))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if conf.Simulation.Seed != 7 {
		t.Errorf("expected seed override of 7, got %d", conf.Simulation.Seed)
	}
}

func TestCheck(t *testing.T) {
	valid := func() *Configuration {
		conf, err := LoadConfigurationFromBytes([]byte(exampleInit))
		if err != nil {
			t.Fatalf("LoadConfigurationFromBytes() error = %v", err)
		}
		return conf
	}

	tests := []struct {
		name        string
		mutate      func(c *Configuration)
		errContains string
		warning     string
	}{
		{name: "valid"},
		{name: "no agents", mutate: func(c *Configuration) { c.Simulation.Agents = 0 }, errContains: "simulation.agents"},
		{name: "coefficient mismatch", mutate: func(c *Configuration) { c.Untreated.Coeff = []float64{1} }, errContains: "same number of coefficients"},
		{name: "empty cost", mutate: func(c *Configuration) { c.Cost.Coeff = nil }, errContains: "cost.coeff"},
		{name: "short dist", mutate: func(c *Configuration) { c.Dist.Coeff = []float64{1, 1, 1} }, errContains: "6 entries"},
		{name: "negative variance", mutate: func(c *Configuration) { c.Dist.Coeff[1] = -1 }, errContains: "variance"},
		{name: "too many types", mutate: func(c *Configuration) { c.Cost.Types = []interface{}{"nonbinary", "nonbinary", "nonbinary"} }, errContains: "cost.types has 3"},
		{name: "bad probability", mutate: func(c *Configuration) { c.Treated.Types[2] = map[string]interface{}{"binary": 1.5} }, errContains: "outside [0, 1]"},
		{name: "unknown type", mutate: func(c *Configuration) { c.Treated.Types[1] = "categorical" }, errContains: "unknown covariate type"},
		{name: "bad format", mutate: func(c *Configuration) { c.Output.Format = "xml" }, errContains: "output format"},
		{name: "bad quantile", mutate: func(c *Configuration) { c.Output.Quantiles = []float64{0, 0.5} }, errContains: "quantile"},
		{name: "binary intercept", mutate: func(c *Configuration) { c.Treated.Types[0] = map[string]interface{}{"binary": 0.5} }, warning: "intercept"},
		{name: "zero coefficients", mutate: func(c *Configuration) { c.Cost.Coeff = []float64{0, 0} }, warning: "all cost coefficients are zero"},
		{name: "untreated types", mutate: func(c *Configuration) { c.Untreated.Types = []interface{}{"nonbinary"} }, warning: "untreated.types is ignored"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := valid()
			if tt.mutate != nil {
				tt.mutate(conf)
			}
			warnings, err := conf.Check()

			if tt.errContains == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.errContains != "" && (err == nil || !strings.Contains(err.Error(), tt.errContains)) {
				t.Fatalf("expected error containing %q, got %v", tt.errContains, err)
			}
			if tt.warning != "" && !strings.Contains(strings.Join(warnings, "\n"), tt.warning) {
				t.Fatalf("expected warning containing %q, got %v", tt.warning, warnings)
			}
			if tt.warning == "" && tt.errContains == "" && len(warnings) != 0 {
				t.Fatalf("unexpected warnings: %v", warnings)
			}
		})
	}
}

func TestModelParametersRejectsMalformed(t *testing.T) {
	conf, err := LoadConfigurationFromBytes([]byte(exampleInit))
	if err != nil {
		t.Fatalf("LoadConfigurationFromBytes() error = %v", err)
	}
	conf.Dist.Coeff = conf.Dist.Coeff[:5]
	if _, err := conf.ModelParameters(); !errors.Is(err, model.ErrMalformedParameters) {
		t.Errorf("expected ErrMalformedParameters, got %v", err)
	}

	conf, _ = LoadConfigurationFromBytes([]byte(exampleInit))
	conf.Treated.Types = []interface{}{42}
	if _, err := conf.ModelParameters(); !errors.Is(err, model.ErrMalformedParameters) {
		t.Errorf("expected ErrMalformedParameters, got %v", err)
	}
}

func TestWriteInitFileRoundTrip(t *testing.T) {
	params := model.ModelParameters{
		Untreated: []float64{0.5, -1.25},
		Treated:   []float64{1, 2},
		Cost:      []float64{0.75},
		Distribution: model.Distribution{
			VarU0: 1, VarU1: 2, VarUC: 3, CovU0U1: 0.1, CovU0UC: 0.2, CovU1UC: 0.3,
		},
		OutcomeColumns: []model.CovariateColumn{{}, {Binary: true, Probability: 0.25}},
		CostColumns:    []model.CovariateColumn{{}},
		Agents:         12,
		Deterministic:  true,
	}
	path := filepath.Join(t.TempDir(), "fixture"+constants.InitFileSuffix)
	if err := WriteInitFile(path, FromModelParameters(params, 99, "fixture")); err != nil {
		t.Fatalf("WriteInitFile() error = %v", err)
	}

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if warnings, err := conf.Check(); err != nil || len(warnings) != 0 {
		t.Fatalf("Check() = %v, %v", warnings, err)
	}
	if conf.Simulation.Seed != 99 || conf.Simulation.Source != "fixture" {
		t.Errorf("unexpected simulation block: %+v", conf.Simulation)
	}

	got, err := conf.ModelParameters()
	if err != nil {
		t.Fatalf("ModelParameters() error = %v", err)
	}
	if got.Distribution != params.Distribution || got.Agents != 12 || !got.Deterministic {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Untreated[1] != -1.25 || got.Cost[0] != 0.75 {
		t.Errorf("coefficients not preserved: %+v", got)
	}
	if !got.OutcomeColumns[1].Binary || got.OutcomeColumns[1].Probability != 0.25 {
		t.Errorf("covariate types not preserved: %+v", got.OutcomeColumns)
	}
}

func TestParseCovariateTypes(t *testing.T) {
	tests := []struct {
		name    string
		raw     []interface{}
		want    []model.CovariateColumn
		wantErr bool
	}{
		{name: "empty", raw: nil, want: nil},
		{name: "nonbinary", raw: []interface{}{"nonbinary", "NonBinary"}, want: []model.CovariateColumn{{}, {}}},
		{name: "nil entry", raw: []interface{}{nil}, want: []model.CovariateColumn{{}}},
		{name: "binary int", raw: []interface{}{"nonbinary", map[string]interface{}{"binary": 1}}, want: []model.CovariateColumn{{}, {Binary: true, Probability: 1}}},
		{name: "binary yaml v2 map", raw: []interface{}{map[interface{}]interface{}{"binary": 0.5}}, want: []model.CovariateColumn{{Binary: true, Probability: 0.5}}},
		{name: "extra key", raw: []interface{}{map[string]interface{}{"binary": 0.5, "other": 1}}, wantErr: true},
		{name: "missing key", raw: []interface{}{map[string]interface{}{"p": 0.5}}, wantErr: true},
		{name: "bad probability", raw: []interface{}{map[string]interface{}{"binary": "high"}}, wantErr: true},
		{name: "number", raw: []interface{}{3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCovariateTypes(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCovariateTypes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseCovariateTypes() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("column %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
