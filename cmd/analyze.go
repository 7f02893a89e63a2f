package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/siteselect-cli/internal/census"
	"github.com/sells-group/siteselect-cli/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank candidate store locations",
	Long: `Analyze one or more municipios and rank candidate store locations.

For each municipio this generates a candidate grid around the urban
center, spreads the target population over it as demand, pulls nearby
competitors and commercial zones from the Places API, runs the P-Median
and Huff models, and scores every candidate on the weighted criteria.

Examples:
  # Rank candidates in Rionegro
  analyze --municipio rionegro

  # Compare two municipios in one ranking
  analyze --municipio rionegro --municipio marinilla

  # Rank every municipio in the registry, export to Excel
  analyze --all --format xlsx --output resultados.xlsx

  # Denser grid, top 10 only
  analyze --municipio "la ceja" --grid-size 20 --top 10`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringSlice("municipio", nil, "municipio to analyze (repeatable)")
	f.Bool("all", false, "analyze every municipio in the registry")
	f.Int("grid-size", 0, "candidate grid size per axis (overrides config)")
	f.Int("facilities", 0, "number of facilities for the P-Median pass (overrides config)")
	f.Float64("radius-km", 0, "candidate grid radius in km (overrides config)")
	f.Int("top", 0, "limit output to the top N candidates (0=all)")
	f.String("format", "table", "output format: table, csv, or xlsx")
	f.String("output", "", "output file path (default: stdout; required for xlsx)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	top, _ := cmd.Flags().GetInt("top")

	switch format {
	case "table", "csv":
	case "xlsx":
		if outputPath == "" {
			return eris.New("analyze: --format xlsx requires --output")
		}
	default:
		return eris.Errorf("analyze: --format must be table, csv, or xlsx (got %q)", format)
	}

	registry, err := buildRegistry()
	if err != nil {
		return err
	}

	municipios, err := analyzeTargets(cmd, registry)
	if err != nil {
		return err
	}

	finder, cache, err := buildFinder(ctx)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	eng, err := buildEngine(cmd, registry, finder)
	if err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "analyze"))
	log.Info("starting analysis", zap.Strings("municipios", municipios))

	candidates, results, err := eng.RankAll(ctx, municipios)
	if err != nil {
		return err
	}

	summary := report.Summarize(results)
	log.Info("analysis complete",
		zap.Int("municipios", summary.Municipios),
		zap.Int("candidates", summary.Candidates),
		zap.Int("competitors", summary.Competitors),
		zap.String("best", summary.BestCandidateID),
		zap.Float64("best_score", summary.BestScore))

	switch format {
	case "xlsx":
		if err := report.WriteXLSX(outputPath, results); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d candidates across %d municipios)\n",
			outputPath, summary.Candidates, summary.Municipios)
		return nil
	case "csv":
		out, closeOut, err := openOutput(outputPath)
		if err != nil {
			return err
		}
		defer closeOut()
		return report.WriteCSV(out, candidates, top)
	default:
		out, closeOut, err := openOutput(outputPath)
		if err != nil {
			return err
		}
		defer closeOut()
		return report.WriteTable(out, candidates, top)
	}
}

// analyzeTargets resolves the --municipio/--all flags into the list of
// municipio names to analyze, drawing --all from the registry.
func analyzeTargets(cmd *cobra.Command, registry *census.Registry) ([]string, error) {
	all, _ := cmd.Flags().GetBool("all")
	names, _ := cmd.Flags().GetStringSlice("municipio")

	if all {
		if len(names) > 0 {
			return nil, eris.New("analyze: --all and --municipio are mutually exclusive")
		}
		for _, m := range registry.All() {
			names = append(names, m.Nombre)
		}
		return names, nil
	}

	if len(names) == 0 {
		return nil, eris.New("analyze: at least one --municipio is required (or --all)")
	}
	for i, n := range names {
		names[i] = strings.TrimSpace(n)
	}
	return names, nil
}

// openOutput returns a writer for path, or stdout when path is empty.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "cmd: create %s", path)
	}
	return f, func() { f.Close() }, nil
}
