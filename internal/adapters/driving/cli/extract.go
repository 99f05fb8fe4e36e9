package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lessonkit/refpipe/internal/adapters/driving/tui"
	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/logger"
)

var (
	extractLesson   string
	extractCategory string
	extractJSON     bool
	extractPlain    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>...",
	Short: "Extract reference chunks from lesson materials",
	Long: `Extract normalised reference chunks from uploaded lesson materials.

Supported inputs:
  .pptx         slide decks, parsed structurally with theme and layout facts
  .pdf          scanned documents, rasterised and recognised page by page
  .png .jpg ... images, recognised with OCR
  .docx .txt    documents, parsed structurally
  .zip          archives, every member extracted on its own

Progress is shown interactively when stdout is a terminal.
Use --plain or --json for scripts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractLesson, "lesson", "l", "", "lesson the materials belong to (required)")
	extractCmd.Flags().StringVarP(&extractCategory, "category", "c", "", "target category label, e.g. slides or worksheet")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output results as JSON")
	extractCmd.Flags().BoolVar(&extractPlain, "plain", false, "disable the interactive progress view")
	_ = extractCmd.MarkFlagRequired("lesson")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return fmt.Errorf("ingestion %w", errNotConfigured)
	}

	items, err := loadItems(args, extractLesson, extractCategory)
	if err != nil {
		return err
	}

	var results []domain.ExtractionResult
	if !extractJSON && !extractPlain && isTerminal(cmd.OutOrStdout()) {
		results, err = runExtractTUI(cmd, items)
		if err != nil && !errors.Is(err, tui.ErrCancelled) {
			return err
		}
	} else {
		results, err = runExtractPlain(cmd, items)
	}

	if extractJSON {
		if jsonErr := writeJSON(cmd, results); jsonErr != nil {
			return jsonErr
		}
	} else {
		renderResults(cmd, results)
	}
	if err != nil {
		return err
	}
	return failedItems(results)
}

// runExtractPlain ingests items one by one. Progress goes to stderr when verbose.
func runExtractPlain(cmd *cobra.Command, items []domain.UploadItem) ([]domain.ExtractionResult, error) {
	ctx := commandContext(cmd)
	var results []domain.ExtractionResult
	var firstErr error

	for _, item := range items {
		progress := func(p domain.Progress) {
			if verbose {
				cmd.PrintErrf("%-30s %3d%% %s\n", p.FileName, p.Percent, p.Stage)
			}
		}
		out, err := ingestionService.Ingest(ctx, item, progress)
		results = append(results, out...)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			cmd.PrintErrf("%s: %v\n", item.Name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", item.Name, err)
			}
		}
	}
	return results, firstErr
}

// runExtractTUI shows the progress view. Log output is held back until it closes.
func runExtractTUI(cmd *cobra.Command, items []domain.UploadItem) ([]domain.ExtractionResult, error) {
	app, err := tui.NewApp(tui.NewPorts(ingestionService, recognitionStatus), items)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress view: %w", err)
	}
	app.WithContext(commandContext(cmd))

	var held bytes.Buffer
	logger.SetOutput(&held)
	results, runErr := app.Run()
	logger.SetOutput(os.Stderr)
	if held.Len() > 0 {
		cmd.PrintErr(held.String())
	}
	return results, runErr
}

// loadItems reads each path into an upload item.
func loadItems(paths []string, lessonID, category string) ([]domain.UploadItem, error) {
	items := make([]domain.UploadItem, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		items = append(items, domain.UploadItem{
			Name:     filepath.Base(path),
			Content:  content,
			LessonID: lessonID,
			Category: category,
		})
	}
	return items, nil
}

// failedItems returns an error when any result ended in the error state.
func failedItems(results []domain.ExtractionResult) error {
	failed := 0
	for i := range results {
		if results[i].Status == domain.StatusError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to extract", failed, len(results))
	}
	return nil
}
