package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tgaillard/pluscan/internal/pipeline"
)

var zonesCmd = &cobra.Command{
	Use:   "zones <reglement-url>",
	Short: "Extract the rules of every zone detected in a règlement",
	Long: `Zones downloads the règlement once, detects every zone-like heading
in it, and runs the single-zone extraction for each detected code
concurrently. Zones that cannot be located or extracted are reported as
failures without aborting the batch.

Example:
  pluscan zones https://ville.fr/plu/reglement.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runZones,
}

func init() {
	addCommonFlags(zonesCmd)
	rootCmd.AddCommand(zonesCmd)
}

func runZones(cmd *cobra.Command, args []string) error {
	pdfURL := args[0]

	cfg := buildConfig()
	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	report, err := p.AnalyzeAllZones(cmd.Context(), pdfURL, pipeline.Options{ForceRefresh: forceRefresh})
	if err != nil {
		return err
	}

	if err := writeResult(report); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "\n%d zones extracted, %d failed, mean confidence %.2f\n",
			report.Stats.ZonesOK, report.Stats.ZonesFailed, report.Stats.AvgConfiance)
		m := p.Metrics().Snapshot()
		fmt.Fprintf(os.Stderr, "cache hits: %d  deterministic: %d  generative: %d\n",
			m.CacheHits, m.Deterministic, m.Generative)
	}
	return nil
}
