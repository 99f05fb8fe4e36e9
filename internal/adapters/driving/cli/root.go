// Package cli implements the refpipe command line using cobra.
// It is a driving adapter: commands translate flags and files into calls
// on the core driving ports and render the results.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/lessonkit/refpipe/internal/core/ports/driving"
	"github.com/lessonkit/refpipe/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	logFormat string
)

// Core services driven by the commands. Set by main via SetServices.
var (
	ingestionService  driving.IngestionService
	recognitionStatus driving.RecognitionStatus
	validationService driving.ValidationService
	planService       driving.PlanService
	settingsService   driving.SettingsService
	allowListProvider driving.AllowListProvider
)

// errNotConfigured is returned when a command runs without its service.
var errNotConfigured = errors.New("service not configured")

// Services bundles the core services the commands drive.
type Services struct {
	Ingestion   driving.IngestionService
	Recognition driving.RecognitionStatus
	Validation  driving.ValidationService
	Plans       driving.PlanService
	Settings    driving.SettingsService
	AllowLists  driving.AllowListProvider
}

// SetServices installs the core services.
func SetServices(s Services) {
	ingestionService = s.Ingestion
	recognitionStatus = s.Recognition
	validationService = s.Validation
	planService = s.Plans
	settingsService = s.Settings
	allowListProvider = s.AllowLists
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "refpipe",
	Short: "Extract and validate lesson reference materials",
	Long: `refpipe turns uploaded lesson materials into normalised reference chunks.

Slide decks are parsed structurally; scanned PDFs and images go through OCR.
Archives are expanded and every member is extracted on its own. Results are
cached by content hash, so re-uploading the same bytes is instant.

refpipe also validates the JSON produced by downstream generation stages and
assembles validated slide plans.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		if logFormat != "" {
			logger.SetFormat(logFormat)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
