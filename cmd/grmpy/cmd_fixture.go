package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/grmpy/grmpy-go/internal/config"
	"github.com/grmpy/grmpy-go/pkg/constants"
	"github.com/grmpy/grmpy-go/pkg/fixture"
	"github.com/grmpy/grmpy-go/pkg/rng"
	"github.com/spf13/cobra"
)

func newFixtureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Write a random valid initialization file",
		Long: `Draws a random but valid model parameterization and writes it as an
initialization file named after the fixture label.

Examples:
  grmpy fixture --seed 7
  grmpy fixture --probability 0 --no-zero --agents 500 --out init.grmpy.yml`,
		RunE: runFixture,
	}

	cmd.Flags().Uint64("seed", 0, "seed of the generating stream (0 uses the clock)")
	cmd.Flags().Float64("probability", fixture.DefaultDeterministicProbability, "probability of a deterministic fixture")
	cmd.Flags().Bool("no-zero", false, "never draw all-zero coefficient vectors")
	cmd.Flags().Int("agents", 0, "number of agents (0 draws one)")
	cmd.Flags().Uint64("simulation-seed", 0, "simulation seed written to the file (0 draws one)")
	cmd.Flags().String("out", "", "output path (default <label>.grmpy.yml)")

	return cmd
}

func runFixture(cmd *cobra.Command, args []string) error {
	seed, _ := cmd.Flags().GetUint64("seed")
	probability, _ := cmd.Flags().GetFloat64("probability")
	noZero, _ := cmd.Flags().GetBool("no-zero")
	agents, _ := cmd.Flags().GetInt("agents")
	simulationSeed, _ := cmd.Flags().GetUint64("simulation-seed")
	out, _ := cmd.Flags().GetString("out")

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rng.New(seed)

	constraints, err := fixture.NewConstraints(src, fixture.Options{
		DeterministicProbability: probability,
		AllowZeroCoefficients:    !noZero,
		Agents:                   agents,
		Seed:                     simulationSeed,
	})
	if err != nil {
		return err
	}
	fx := fixture.Generate(src, constraints)

	if out == "" {
		out = filepath.Join(".", fx.Label+constants.InitFileSuffix)
	}
	if err := config.WriteInitFile(out, config.FromModelParameters(fx.Params, fx.Seed, fx.Label)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", fx.Label, out)
	return nil
}
