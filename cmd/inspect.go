package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/ArnaudCalmettes/histonorm/imp"
	"github.com/ArnaudCalmettes/histonorm/norm"
	"github.com/spf13/cobra"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE...",
	Short: "Print the statistics normalization would use, without writing anything",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(os.Stdout, args)
	},
}

func inspect(out io.Writer, files []string) error {
	cfg, err := engineConfig()
	if err != nil {
		return err
	}
	engine, err := norm.New(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "policy %s, desired median %v, roi bound %d\n\n", cfg.Policy, cfg.DesiredMedian, cfg.MaxROIIntensity())
	w := tabwriter.NewWriter(out, 5, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FILE\tRANGE\tVALLEY\tTHRESHOLD\tPEAK\tALPHA\tBETA\t")
	failed := 0
	for _, f := range files {
		a, err := analyzeFile(engine, f)
		if err != nil {
			fmt.Fprintf(w, "%s\t%v\t\t\t\t\t\t\n", f, err)
			failed++
			continue
		}
		h := a.Histogram
		peak := "-"
		if cfg.Policy == norm.PeakWidthMatch {
			peak = fmt.Sprintf("%.0f (±%d bins)", a.PeakLocation, a.HalfWidth)
		}
		fmt.Fprintf(w, "%s\t[%.0f, %.0f]\t%d\t%d\t%s\t%.3f\t%d\t\n",
			f, h.Edges[0], h.Edges[h.Bins()], a.ValleyIndex, a.Threshold, peak, a.Params.Alpha, a.Params.Beta)
	}
	w.Flush()

	if failed > 0 {
		return fmt.Errorf("%d of %d images couldn't be analyzed", failed, len(files))
	}
	return nil
}

func analyzeFile(engine *norm.Engine, filename string) (*norm.Analysis, error) {
	img, err := imp.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	gray, err := imp.ToGray16(img)
	if err != nil {
		return nil, err
	}
	return engine.Analyze(gray)
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
