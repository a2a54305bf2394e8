package main

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/phase-imaging/internal/imaging"
	"github.com/ironsheep/phase-imaging/internal/phase"
)

type processOptions struct {
	phase  string
	input  string
	output string
}

// processReport is printed after a local run.
type processReport struct {
	Phase  string             `json:"phase"`
	Input  string             `json:"input"`
	Output string             `json:"output"`
	Image  *imaging.ImageInfo `json:"image"`
	Before measurements       `json:"before"`
	After  measurements       `json:"after"`
}

type measurements struct {
	Luminance         *imaging.LuminanceStatsResult `json:"luminance"`
	NeighborVariation float64                       `json:"neighbor_variation"`
}

func newProcessCmd(a *app) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Apply a phase transform to a local image file",
		Example: "  phase-server process --phase arterial --in scan.jpg\n" +
			"  phase-server process --phase venous --in scan.png --out smooth.png",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.phase, "phase", "", "phase to apply: arterial or venous")
	flags.StringVar(&opts.input, "in", "", "input image path")
	flags.StringVar(&opts.output, "out", "", "output PNG path (default: processed_<name>.png next to the input)")
	_ = cmd.MarkFlagRequired("phase")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func runProcess(cmd *cobra.Command, a *app, opts processOptions) error {
	ph, err := phase.Parse(opts.phase)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	proc := phase.NewProcessor(a.log, phase.WithMaxPixels(a.cfg.Server.MaxPixels))
	img, info, err := proc.Decode(raw)
	if err != nil {
		return err
	}

	out, err := proc.Transform(img, ph)
	if err != nil {
		return err
	}

	encoded, err := imaging.EncodePNG(out)
	if err != nil {
		return fmt.Errorf("%w: %v", phase.ErrProcessingFailure, err)
	}

	output := opts.output
	if output == "" {
		base := strings.TrimSuffix(filepath.Base(opts.input), filepath.Ext(opts.input))
		output = filepath.Join(filepath.Dir(opts.input), "processed_"+base+".png")
	}
	if err := os.WriteFile(output, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	report := processReport{
		Phase:  ph.String(),
		Input:  opts.input,
		Output: output,
		Image:  info,
		Before: measure(img),
		After:  measure(imaging.ToNRGBA(out)),
	}

	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func measure(img *image.NRGBA) measurements {
	return measurements{
		Luminance:         imaging.LuminanceStats(img),
		NeighborVariation: imaging.NeighborVariation(img),
	}
}
