package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
	"github.com/Sumatoshi-tech/ranktest/pkg/observability"
	"github.com/Sumatoshi-tech/ranktest/pkg/render"
	"github.com/Sumatoshi-tech/ranktest/pkg/samplefile"
)

const (
	validateCmdUse   = "validate <samples-file|->"
	validateCmdShort = "Validate a samples document against the samples schema"
	validateCmdLong  = `Validate a JSON or YAML samples document against the embedded JSON schema
and the sample rules (two non-empty samples of numbers).

Examples:
  ranktest validate samples.json
  ranktest validate - < samples.yaml`
)

func newValidateCommand(root *rootOptions) *cobra.Command {
	var colorMode string

	cmd := &cobra.Command{
		Use:   validateCmdUse,
		Short: validateCmdShort,
		Long:  validateCmdLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.setup(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}

			defer a.close()

			colored := render.ColorEnabled(firstNonEmpty(colorMode, a.cfg.Output.Color))

			opts := validateOptions{
				colored:   colored,
				quiet:     root.quiet,
				threshold: a.cfg.Analysis.ApproximationThreshold,
			}

			return runValidate(cmd.OutOrStdout(), cmd.InOrStdin(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&colorMode, "color", "", "color mode: auto, always, never (default from config)")

	return cmd
}

type validateOptions struct {
	colored   bool
	quiet     bool
	threshold int
}

func runValidate(out io.Writer, stdin io.Reader, path string, opts validateOptions) error {
	pass := paint(opts.colored, color.FgGreen)
	fail := paint(opts.colored, color.FgRed)

	doc, err := samplefile.Load(path, stdin)
	if err != nil {
		fail.Fprintf(out, "Samples document invalid (%s)\n  - %v\n", path, err)

		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	violations, err := samplefile.ValidateSchema(doc.Raw)
	if err != nil {
		return err
	}

	if len(violations) > 0 {
		fail.Fprintf(out, "Samples document invalid (%s)\n", doc.Label)

		for _, v := range violations {
			fail.Fprintf(out, "  - %s: %s\n", v.Field, v.Description)
		}

		return fmt.Errorf("%w: %d schema violations", ErrValidationFailed, len(violations))
	}

	samples, err := doc.Samples()
	if err != nil {
		fail.Fprintf(out, "Samples document invalid (%s)\n  - %v\n", doc.Label, err)

		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	if !opts.quiet {
		n0, n1 := samples.Sizes()
		pass.Fprintf(out, "Samples document is valid (%s)\n", doc.Label)
		fmt.Fprintf(out, "  Sizes: %d and %d observations\n", n0, n1)

		if !utest.ApproximationReliable(samples, opts.threshold) {
			paint(opts.colored, color.FgYellow).Fprintf(out,
				"  Note: both samples have at most %d observations\n", opts.threshold)
		}
	}

	return nil
}

func paint(colored bool, attr color.Attribute) *color.Color {
	c := color.New(attr)
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}

	return c
}
