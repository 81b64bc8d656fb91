package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgaillard/pluscan/internal/model"
	"github.com/tgaillard/pluscan/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <reglement-url> <zone>",
	Short: "Extract the construction rules of one zone from a règlement",
	Long: `Analyze downloads a règlement de PLU (PDF or HTML), locates the
section of the given zone code (UB, N, 1AUa, ...), and extracts its
construction rules with the regex pattern library. When the deterministic
result scores below the acceptance threshold and a generative provider is
configured, the section is re-read through the language model.

Examples:
  pluscan analyze https://ville.fr/plu/reglement.pdf UB
  pluscan analyze --llm-provider local --llm-model mistral https://ville.fr/plu/reglement.pdf N
  pluscan analyze --force-refresh --json ub.json https://ville.fr/plu/reglement.pdf UB`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	addCommonFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	pdfURL, zone := args[0], args[1]

	cfg := buildConfig()
	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	rec, err := p.AnalyzeZone(cmd.Context(), pdfURL, zone, pipeline.Options{ForceRefresh: forceRefresh})
	if err != nil {
		if pipeline.IsZoneNotFound(err) {
			return fmt.Errorf("zone %q not found in the document; try `pluscan zones %s` to list detected zones", strings.ToUpper(zone), pdfURL)
		}
		return err
	}

	if err := writeResult(rec); err != nil {
		return err
	}

	if verbose {
		printRecordSummary(rec)
	}
	return nil
}

// writeResult renders any value as indented JSON, to a file or stdout
func writeResult(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	data = append(data, '\n')

	if outJSON == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outJSON, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outJSON, err)
	}
	fmt.Fprintf(os.Stderr, "Result written to %s\n", outJSON)
	return nil
}

func printRecordSummary(rec *model.RuleRecord) {
	fmt.Fprintf(os.Stderr, "\nZone %s (%s, confidence %.2f)\n", rec.Zone, rec.Methode, rec.Confiance)
	for _, r := range rec.Restrictions() {
		fmt.Fprintf(os.Stderr, "  - %s\n", r)
	}
	for _, d := range rec.Droits() {
		fmt.Fprintf(os.Stderr, "  + %s\n", d)
	}
}
