package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lessonkit/refpipe/internal/core/services"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan [file]",
	Short: "Validate and assemble a slide plan",
	Long: `Validate a slide_plan payload and assemble the ordered deck plan.

Slides are numbered from 1 in the order given. Low-confidence slides and
decks shorter than the recommended length produce warnings, not errors.
The payload is read from file, or from stdin when file is omitted or "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringSliceVar(&validateSlideTypes, "slide-types", nil, "allowed slide types (comma separated)")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "output the assembled plan as JSON")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if planService == nil {
		return fmt.Errorf("plan %w", errNotConfigured)
	}

	payload, err := readPayload(cmd, args)
	if err != nil {
		return err
	}

	plan, res := planService.Assemble(commandContext(cmd), payload, validateOptions(cmd))
	if plan == nil {
		if planJSON {
			if err := writeJSON(cmd, res); err != nil {
				return err
			}
		} else {
			renderValidation(cmd, res)
		}
		return ErrInvalidOutput
	}

	if planJSON {
		return writeJSON(cmd, plan)
	}

	s := reportStyles
	cmd.Println(s.Title.Render("Slide plan") + "  " + s.Muted.Render(services.Summary(plan)))
	for i, slide := range plan.Plan.Slides {
		line := fmt.Sprintf("%3d. %s", slide.Position, slide.Type)
		if slide.Confidence != nil {
			line += "  " + s.Confidence(*slide.Confidence).Render(fmt.Sprintf("%.2f", *slide.Confidence))
		}
		cmd.Println(line)
		for _, w := range plan.SlideWarnings[i] {
			cmd.Println(s.Warning.Render("     warning: ") + w)
		}
	}
	for _, w := range plan.Warnings {
		cmd.Println(s.Warning.Render("warning: ") + w)
	}
	return nil
}
