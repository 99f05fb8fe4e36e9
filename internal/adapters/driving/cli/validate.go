package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/services"
)

// ErrInvalidOutput is returned when a payload fails its contract.
var ErrInvalidOutput = errors.New("output failed validation")

var (
	validateStandards  []string
	validateSlideTypes []string
	validateJSON       bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <call-type> [file]",
	Short: "Validate a generation stage's JSON output",
	Long: `Validate the JSON produced by a downstream generation stage against its contract.

The payload is read from file, or from stdin when file is omitted or "-".
Allow-lists come from the configured allow-list file; --standards and
--slide-types replace them for this call.

Call types:
  ` + callTypeList(),
	Args: cobra.RangeArgs(1, 2),
	RunE: runValidate,
}

func init() {
	addAllowListFlags(validateCmd)
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(validateCmd)
}

func addAllowListFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&validateStandards, "standards", nil, "allowed standards codes (comma separated)")
	cmd.Flags().StringSliceVar(&validateSlideTypes, "slide-types", nil, "allowed slide types (comma separated)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validationService == nil {
		return fmt.Errorf("validation %w", errNotConfigured)
	}

	callType := domain.CallType(args[0])
	if !callType.IsValid() {
		return fmt.Errorf("unknown call type %q, expected one of: %s", args[0], callTypeList())
	}

	payload, err := readPayload(cmd, args[1:])
	if err != nil {
		return err
	}

	res := validationService.Validate(callType, payload, validateOptions(cmd))

	if validateJSON {
		if err := writeJSON(cmd, res); err != nil {
			return err
		}
	} else {
		renderValidation(cmd, res)
	}
	if !res.Valid {
		return ErrInvalidOutput
	}
	return nil
}

// validateOptions merges configured allow-lists with the flag overrides.
func validateOptions(cmd *cobra.Command) domain.ValidateOptions {
	return services.ResolveOptions(commandContext(cmd), allowListProvider, domain.ValidateOptions{
		AllowedStandards:  validateStandards,
		AllowedSlideTypes: validateSlideTypes,
	})
}

// readPayload reads the optional file argument, falling back to stdin.
func readPayload(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

func callTypeList() string {
	types := domain.AllCallTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
