// Package output formats simulated datasets and their summary reports.
package output

import (
	"fmt"
	"io"
	"math"

	"github.com/grmpy/grmpy-go/internal/simulation"
	"github.com/grmpy/grmpy-go/pkg/constants"
	"github.com/grmpy/grmpy-go/pkg/mathutil"
	"github.com/grmpy/grmpy-go/pkg/model"
	"github.com/grmpy/grmpy-go/pkg/mte"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberFormat = fmt.Sprintf("%%.%df", constants.ReportPrecision)

// Counts holds the number of agents per treatment group.
type Counts struct {
	All       int `json:"all"`
	Treated   int `json:"treated"`
	Untreated int `json:"untreated"`
}

// GroupSummaries describes a variable over all agents and per group.
type GroupSummaries struct {
	All       mathutil.Summary `json:"all"`
	Treated   mathutil.Summary `json:"treated"`
	Untreated mathutil.Summary `json:"untreated"`
}

// Parameter is one entry of the model parametrization.
type Parameter struct {
	Section string  `json:"section"`
	Index   int     `json:"index"`
	Value   float64 `json:"value"`
}

// Report summarizes a simulated dataset.
type Report struct {
	Observations Counts         `json:"observations"`
	Outcomes     GroupSummaries `json:"outcomes"`
	Effects      GroupSummaries `json:"effects"`
	MTE          []mte.Point    `json:"mte"`
	Parameters   []Parameter    `json:"parameters"`
}

// NewReport builds the report of ds simulated from params, evaluating the
// MTE at quantiles.
func NewReport(params model.ModelParameters, ds *simulation.Dataset, quantiles []float64) (*Report, error) {
	points, err := simulation.MTE(params, ds, quantiles)
	if err != nil {
		return nil, err
	}

	treated := ds.Treated()
	effects := ds.Effects()
	return &Report{
		Observations: Counts{All: ds.Len(), Treated: treated, Untreated: ds.Len() - treated},
		Outcomes:     summarize(ds.Y, ds.D),
		Effects:      summarize(effects, ds.D),
		MTE:          points,
		Parameters:   parametrization(params),
	}, nil
}

func summarize(x []float64, d []int) GroupSummaries {
	return GroupSummaries{
		All:       mathutil.Describe(x),
		Treated:   mathutil.Describe(mathutil.Select(x, d, 1)),
		Untreated: mathutil.Describe(mathutil.Select(x, d, 0)),
	}
}

func parametrization(params model.ModelParameters) []Parameter {
	var out []Parameter
	for _, section := range []struct {
		name  string
		coeff []float64
	}{
		{"treated", params.Treated},
		{"untreated", params.Untreated},
		{"cost", params.Cost},
		{"dist", params.Distribution.Coefficients()},
	} {
		for i, v := range section.coeff {
			out = append(out, Parameter{Section: section.name, Index: i, Value: v})
		}
	}
	return out
}

// WriteInfo writes the report in the plain-text info layout.
func WriteInfo(w io.Writer, r *Report) error {
	p := message.NewPrinter(language.English)
	ew := &errWriter{w: w}

	ew.printf(p, "\n  Number of Observations\n\n")
	ew.printf(p, "  %-12s%12s\n", "", "Count")
	ew.printf(p, "  %-12s%12d\n", "All", r.Observations.All)
	ew.printf(p, "  %-12s%12d\n", "Treated", r.Observations.Treated)
	ew.printf(p, "  %-12s%12d\n", "Untreated", r.Observations.Untreated)

	for _, block := range []struct {
		title string
		g     GroupSummaries
	}{{"Distribution of Outcomes", r.Outcomes}, {"Distribution of Effects", r.Effects}} {
		ew.printf(p, "\n  %s\n\n", block.title)
		ew.printf(p, "  %-12s%12s%12s%12s%12s%12s\n", "", "Mean", "Std-Dev", "25%", "50%", "75%")
		writeSummary(ew, p, "All", block.g.All)
		writeSummary(ew, p, "Treated", block.g.Treated)
		writeSummary(ew, p, "Untreated", block.g.Untreated)
	}

	ew.printf(p, "\n  MTE Information\n\n")
	ew.printf(p, "  %-12s%12s\n", "Quantile", "Value")
	for _, pt := range r.MTE {
		ew.printf(p, "  %-12s%12s\n", quantileLabel(pt.Quantile), number(p, pt.Effect))
	}

	ew.printf(p, "\n  Parametrization\n\n")
	ew.printf(p, "  %-12s%12s%12s\n", "Section", "Identifier", "Value")
	for _, param := range r.Parameters {
		ew.printf(p, "  %-12s%12d%12s\n", param.Section, param.Index, number(p, param.Value))
	}
	return ew.err
}

func writeSummary(ew *errWriter, p *message.Printer, label string, s mathutil.Summary) {
	ew.printf(p, "  %-12s%12s%12s%12s%12s%12s\n", label,
		number(p, s.Mean), number(p, s.StdDev), number(p, s.Q25), number(p, s.Median), number(p, s.Q75))
}

// number formats v at report precision; undefined values print as "---".
func number(p *message.Printer, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "---"
	}
	return p.Sprintf(numberFormat, v)
}

func quantileLabel(q float64) string {
	return fmt.Sprintf("%g%%", math.Round(q*1e6)/1e4)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(p *message.Printer, format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = p.Fprintf(ew.w, format, args...)
}
