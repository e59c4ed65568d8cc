// Package constants provides shared constants for the grmpy simulator.
package constants

// Output file suffixes appended to the simulation source name.
const (
	// DatasetTableSuffix is the suffix of the fixed-width dataset table
	DatasetTableSuffix = ".grmpy.txt"

	// DatasetCSVSuffix is the suffix of the CSV dataset
	DatasetCSVSuffix = ".grmpy.csv"

	// InfoSuffix is the suffix of the descriptive report
	InfoSuffix = ".grmpy.info"

	// InitFileSuffix is the suffix of generated initialization files
	InitFileSuffix = ".grmpy.yml"
)

// Output format constants
const (
	// OutputFormatText is the fixed-width table dataset format
	OutputFormatText = "text"

	// OutputFormatCSV is the CSV dataset format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default initialization file name
	DefaultConfigFile = "init.grmpy.yml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultSource is the output file stem used when none is configured
	DefaultSource = "data"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for init files (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultMaxServerAgents caps the agent count accepted by the HTTP API
	DefaultMaxServerAgents = 1_000_000
)

// Covariate type markers used in initialization files.
const (
	// CovariateNonBinary marks a standard normal covariate column
	CovariateNonBinary = "nonbinary"

	// CovariateBinary is the map key marking a Bernoulli covariate column
	CovariateBinary = "binary"
)

// Numerical constants
const (
	// EigenvalueTolerance is the relative slack allowed on negative
	// eigenvalues when checking positive semi-definiteness.
	EigenvalueTolerance = 1e-10

	// ReportPrecision is the number of decimals printed in reports
	ReportPrecision = 4
)

// DefaultMTEQuantiles returns the quantiles reported in the info file:
// 1%, 5%, 10%, ..., 95%, 99%.
func DefaultMTEQuantiles() []float64 {
	quantiles := []float64{0.01}
	for p := 5; p < 100; p += 5 {
		quantiles = append(quantiles, float64(p)/100)
	}
	return append(quantiles, 0.99)
}
