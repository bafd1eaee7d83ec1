package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"sloth/internal/xyplot"
)

// PlotOptions holds flags for the plot command.
type PlotOptions struct {
	*RootOptions
	Title string
	XCol  string
	YCol  string
}

// NewPlotCommand creates the plot command.
func NewPlotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plot <log.csv> <out.png>",
		Short: "Render an X/Y trajectory plot from a CSV log",
		Long: `Read a CSV log produced by "sloth run" (or by the hardware data logger)
and render an X/Y trajectory image.

Example:
  sloth plot sloth.csv sloth.png
  sloth plot sloth.csv sloth.png --x-col x --y-col z`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderLog(opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "Torpor Sloth", "plot title")
	cmd.Flags().StringVar(&opts.XCol, "x-col", "x", "CSV column for the X axis")
	cmd.Flags().StringVar(&opts.YCol, "y-col", "y", "CSV column for the Y axis")

	return cmd
}

func renderLog(opts *PlotOptions, logPath, outPath string) error {
	infile, err := os.Open(logPath)
	if err != nil {
		return err
	}
	defer infile.Close()

	r := csv.NewReader(infile)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header of %s: %w", logPath, err)
	}

	xIndex, yIndex := -1, -1
	for i, name := range header {
		switch name {
		case opts.XCol:
			xIndex = i
		case opts.YCol:
			yIndex = i
		}
	}
	if xIndex < 0 || yIndex < 0 {
		return fmt.Errorf("%s: columns %q and %q not both present in header %v", logPath, opts.XCol, opts.YCol, header)
	}

	var xs, ys []float64
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", logPath, err)
		}
		x, err := strconv.ParseFloat(record[xIndex], 64)
		if err != nil {
			return fmt.Errorf("%s: bad %s value %q", logPath, opts.XCol, record[xIndex])
		}
		y, err := strconv.ParseFloat(record[yIndex], 64)
		if err != nil {
			return fmt.Errorf("%s: bad %s value %q", logPath, opts.YCol, record[yIndex])
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}

	if err := xyplot.Render(xs, ys, opts.Title, outPath); err != nil {
		return err
	}
	slog.Info("plot written", "points", len(xs), "output", outPath)
	return nil
}
