package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lessonkit/refpipe/internal/core/domain"
)

var (
	resultsJSON   bool
	resultsChunks bool
)

var resultsCmd = &cobra.Command{
	Use:   "results <lesson-id>",
	Short: "List stored extraction results for a lesson",
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

var showCmd = &cobra.Command{
	Use:   "show <file-id>",
	Short: "Show one stored extraction result",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	resultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "output results as JSON")
	showCmd.Flags().BoolVar(&resultsJSON, "json", false, "output the result as JSON")
	showCmd.Flags().BoolVar(&resultsChunks, "chunks", false, "print chunk text")
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(showCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return fmt.Errorf("ingestion %w", errNotConfigured)
	}

	results, err := ingestionService.Results(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	if resultsJSON {
		if results == nil {
			results = []domain.ExtractionResult{}
		}
		return writeJSON(cmd, results)
	}

	if len(results) == 0 {
		cmd.Printf("No extraction results for lesson %s.\n", args[0])
		return nil
	}
	renderResults(cmd, results)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return fmt.Errorf("ingestion %w", errNotConfigured)
	}

	result, err := ingestionService.Result(commandContext(cmd), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no extraction result for %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get result: %w", err)
	}

	if resultsJSON {
		return writeJSON(cmd, result)
	}

	cmd.Println(renderResult(result))
	if !resultsChunks {
		return nil
	}
	for _, chunk := range result.Chunks {
		cmd.Println()
		cmd.Println(reportStyles.Subtitle.Render(fmt.Sprintf("[%d] %s", chunk.PageOrSlide, chunk.Source)))
		cmd.Println(chunk.Text)
	}
	return nil
}
