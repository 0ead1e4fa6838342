package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ranktest/pkg/alg/utest"
	"github.com/Sumatoshi-tech/ranktest/pkg/analysis"
	"github.com/Sumatoshi-tech/ranktest/pkg/observability"
	"github.com/Sumatoshi-tech/ranktest/pkg/render"
	"github.com/Sumatoshi-tech/ranktest/pkg/samplefile"
)

const (
	runCmdUse   = "run [samples-file|-]"
	runCmdShort = "Run the Mann-Whitney U test on two samples"
	runCmdLong  = `Run the Mann-Whitney U test on two independent samples.

Samples come either from --sample-a/--sample-b as comma separated numbers or
from a JSON or YAML document holding a two-element array (or an object with a
"samples" key). Use "-" to read the document from stdin.

Examples:
  ranktest run --sample-a 30,14,6,11,88,1,3,7 --sample-b 12,15,16,42,9,9,30,28
  ranktest run samples.yaml --format json
  ranktest run samples.json --plot ranks.html`

	plotFilePerm = 0o644
)

var (
	// ErrNoSamples is returned when neither inline samples nor a file are given.
	ErrNoSamples = errors.New("no samples given (use --sample-a/--sample-b or a samples file)")
	// ErrConflictingInput is returned when inline samples and a file are both given.
	ErrConflictingInput = errors.New("inline samples and a samples file are mutually exclusive")
	// ErrIncompleteInline is returned when only one inline sample is given.
	ErrIncompleteInline = errors.New("both --sample-a and --sample-b are required")
)

// outputFlags are the flags shared by commands that print results.
type outputFlags struct {
	format string
	color  string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: text, json, yaml (default from config)")
	cmd.Flags().StringVar(&f.color, "color", "", "color mode: auto, always, never (default from config)")
}

func (f *outputFlags) renderer(a *app) (*render.Renderer, error) {
	return render.New(
		firstNonEmpty(f.format, a.cfg.Output.Format),
		firstNonEmpty(f.color, a.cfg.Output.Color),
	)
}

// RunCommand holds the flags of the run command.
type RunCommand struct {
	root      *rootOptions
	output    outputFlags
	sampleA   string
	sampleB   string
	plotPath  string
	threshold int
}

func newRunCommand(root *rootOptions) *cobra.Command {
	rc := &RunCommand{root: root}

	cmd := &cobra.Command{
		Use:   runCmdUse,
		Short: runCmdShort,
		Long:  runCmdLong,
		Args:  cobra.MaximumNArgs(1),
		RunE:  rc.run,
	}

	cmd.Flags().StringVarP(&rc.sampleA, "sample-a", "a", "", "first sample as comma separated numbers")
	cmd.Flags().StringVarP(&rc.sampleB, "sample-b", "b", "", "second sample as comma separated numbers")
	cmd.Flags().StringVar(&rc.plotPath, "plot", "", "write an HTML rank chart to this file")
	cmd.Flags().IntVar(&rc.threshold, "threshold", 0, "approximation threshold (default from config)")
	rc.output.register(cmd)

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	a, err := rc.root.setup(cmd, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer a.close()

	rdr, err := rc.output.renderer(a)
	if err != nil {
		return err
	}

	samples, err := rc.loadSamples(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	tm, err := observability.NewTestMetrics(a.providers.Meter)
	if err != nil {
		return err
	}

	analyzer := analysis.New(analysis.Options{
		Threshold: a.cfg.Analysis.ApproximationThreshold,
		Logger:    a.logger,
		Tracer:    a.providers.Tracer,
		Metrics:   tm,
	}).WithThreshold(rc.threshold)

	report, err := analyzer.Analyze(cmd.Context(), samples)
	if err != nil {
		return err
	}

	if !report.ApproximationReliable {
		n0, n1 := samples.Sizes()
		a.logger.WarnContext(cmd.Context(), "normal approximation may be unreliable for small samples",
			"n0", n0, "n1", n1, "threshold", report.Threshold)
	}

	err = rdr.Report(cmd.OutOrStdout(), report)
	if err != nil {
		return err
	}

	if rc.plotPath != "" {
		return rc.writePlot(report)
	}

	return nil
}

func (rc *RunCommand) loadSamples(stdin io.Reader, args []string) (utest.SamplesPair, error) {
	inline := rc.sampleA != "" || rc.sampleB != ""

	switch {
	case inline && len(args) > 0:
		return utest.SamplesPair{}, ErrConflictingInput
	case inline && (rc.sampleA == "" || rc.sampleB == ""):
		return utest.SamplesPair{}, ErrIncompleteInline
	case inline:
		return samplefile.ParseInline(rc.sampleA, rc.sampleB)
	case len(args) == 0:
		return utest.SamplesPair{}, ErrNoSamples
	}

	doc, err := samplefile.Load(args[0], stdin)
	if err != nil {
		return utest.SamplesPair{}, err
	}

	return doc.Samples()
}

func (rc *RunCommand) writePlot(report *analysis.Report) error {
	file, err := os.OpenFile(rc.plotPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, plotFilePerm)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}

	plotErr := render.Plot(file, report)
	closeErr := file.Close()

	if plotErr != nil {
		return plotErr
	}

	if closeErr != nil {
		return fmt.Errorf("close plot file: %w", closeErr)
	}

	return nil
}
