package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lessonkit/refpipe/internal/connectors/filesystem"
	"github.com/lessonkit/refpipe/internal/core/domain"
)

var (
	watchLesson   string
	watchCategory string
	watchScan     bool
	watchSettle   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Extract materials dropped into a folder",
	Long: `Watch a folder and extract every file created or rewritten inside it.

Hidden files and directories are ignored. Use --scan to extract the files
already present before watching. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchLesson, "lesson", "l", "", "lesson the materials belong to (required)")
	watchCmd.Flags().StringVarP(&watchCategory, "category", "c", "", "target category label")
	watchCmd.Flags().BoolVar(&watchScan, "scan", false, "extract existing files first")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", filesystem.DefaultSettleDelay, "quiet period before a changed file is extracted")
	_ = watchCmd.MarkFlagRequired("lesson")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return fmt.Errorf("ingestion %w", errNotConfigured)
	}

	ctx := commandContext(cmd)
	conn := filesystem.New(args[0], watchLesson,
		filesystem.WithCategory(watchCategory),
		filesystem.WithSettleDelay(watchSettle),
	)
	if err := conn.Validate(); err != nil {
		return err
	}
	defer conn.Close()

	if watchScan {
		items, errs := conn.Scan(ctx)
		for item := range items {
			ingestWatched(cmd, item)
		}
		if err := <-errs; err != nil {
			return fmt.Errorf("scan %s: %w", args[0], err)
		}
	}

	changes, err := conn.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s for lesson %s\n", conn.Root(), watchLesson)

	for item := range changes {
		ingestWatched(cmd, item)
	}
	return nil
}

// ingestWatched extracts one item and prints a line per result.
func ingestWatched(cmd *cobra.Command, item domain.UploadItem) {
	s := reportStyles
	results, err := ingestionService.Ingest(commandContext(cmd), item, nil)
	if err != nil {
		cmd.Println(s.Error.Render("✗ ") + item.Name + ": " + err.Error())
		return
	}
	for i := range results {
		r := &results[i]
		if r.Status != domain.StatusComplete {
			cmd.Println(s.Error.Render("✗ ") + r.Metadata.FileName + ": " + r.Metadata.Error)
			continue
		}
		note := ""
		if r.Metadata.CacheHit {
			note = s.Muted.Render(" (cached)")
		}
		cmd.Printf("%s%s: %d chunks%s\n", s.Success.Render("✓ "), r.Metadata.FileName, r.ChunkCount, note)
	}
}
