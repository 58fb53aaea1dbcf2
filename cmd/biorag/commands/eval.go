// ABOUTME: CLI command to evaluate answer quality against a scenario file
// ABOUTME: Reports faithfulness and context recall per scenario and exports JSON results
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/biorag/internal/eval"
)

var (
	evalOutput string
)

// NewEvalCmd creates the eval command
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <scenarios.yaml>",
		Short: "Evaluate answers against ground truth",
		Long: `Run every question in a scenario file through the corpus and score it.

Faithfulness checks the answer for expected and forbidden strings; context
recall checks the retrieved chunks for expected strings. A scenario passes
when both scores are at least 0.9.

Scenario file:
  scenarios:
    - id: aligner
      question: Which aligner do the scripts use?
      expected_in_response: [bwa]
      forbidden_in_response: [bowtie]
      expected_context_items: [bwa mem]`,
		Args: cobra.ExactArgs(1),
		RunE: runEval,
	}

	cmd.Flags().StringVar(&evalOutput, "output", "", "Write JSON results to this file")

	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	scenarios, err := eval.LoadScenarios(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	summary := eval.NewRunner(a.engine, a.logger).Run(cmd.Context(), scenarios)

	if outputFormat == "json" {
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		for _, r := range summary.Results {
			fmt.Fprintf(out, "%s: %s\n", r.ScenarioID, r.Status)
			if r.ErrorMessage != "" {
				fmt.Fprintf(out, "  Error: %s\n", r.ErrorMessage)
				continue
			}
			fmt.Fprintf(out, "  Faithfulness:   %.2f\n", r.FaithfulnessScore)
			fmt.Fprintf(out, "  Context Recall: %.2f\n", r.ContextRecallScore)
		}
		fmt.Fprintf(out, "\nTotal: %d  Passed: %d  Failed: %d\n", summary.Total, summary.Passed, summary.Failed)
	}

	if evalOutput != "" {
		if err := summary.Export(evalOutput); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Results exported to: %s\n", evalOutput)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d scenario(s) failed", summary.Failed, summary.Total)
	}
	return nil
}
