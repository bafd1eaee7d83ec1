package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"sloth/pkg/analysis"
	"sloth/pkg/netlist"
	"sloth/pkg/util"
)

// NetlistOptions holds flags for the netlist command.
type NetlistOptions struct {
	*RootOptions
	SampleRate float64
	Seconds    float64
	Decimate   int
	Watch      []string
}

// NewNetlistCommand creates the netlist command.
func NewNetlistCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NetlistOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "netlist <circuit.cir>",
		Short: "Simulate a netlist file and print voltage traces",
		Long: `Parse a card-format netlist, simulate it at the given sample rate, and
print the watched node voltages as a table.

Example:
  sloth netlist divider.cir --seconds 0.01 --watch n1 --watch n2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNetlist(opts, args[0])
		},
	}

	cmd.Flags().Float64Var(&opts.SampleRate, "rate", 44100, "audio sample rate in Hz")
	cmd.Flags().Float64Var(&opts.Seconds, "seconds", 0.01, "simulated duration")
	cmd.Flags().IntVar(&opts.Decimate, "decimate", 1, "record every Nth sample")
	cmd.Flags().StringArrayVar(&opts.Watch, "watch", nil, "node name to record (repeatable; default: all)")

	return cmd
}

func runNetlist(opts *NetlistOptions, path string) error {
	input, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data, err := netlist.Parse(string(input))
	if err != nil {
		return err
	}

	ckt, nodes, err := data.Build()
	if err != nil {
		return err
	}
	ckt.Debug = opts.Verbose

	tran := analysis.NewTransient(opts.SampleRate, opts.Seconds)
	tran.Decimate = opts.Decimate

	watch := opts.Watch
	if len(watch) == 0 {
		for name := range nodes {
			watch = append(watch, name)
		}
		sort.Strings(watch)
	}
	for _, name := range watch {
		index, ok := nodes[name]
		if !ok {
			return fmt.Errorf("unknown node %q (have %v)", name, nodeNames(nodes))
		}
		tran.Watch(name, index)
	}

	if err := tran.Setup(ckt); err != nil {
		return err
	}
	if err := tran.Execute(); err != nil {
		return err
	}

	printResults(data.Title, watch, tran.GetResults())
	return nil
}

func nodeNames(nodes map[string]int) []string {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func printResults(title string, watch []string, results map[string][]float64) {
	fmt.Printf("\n%s\n", title)
	fmt.Println("================")

	fmt.Printf("%-14s", "TIME")
	for _, name := range watch {
		fmt.Printf("  %-14s", "V("+name+")")
	}
	fmt.Println()

	times := results["TIME"]
	for i, t := range times {
		fmt.Printf("%-14s", util.FormatValueFactor(t, "s"))
		for _, name := range watch {
			trace := results["V("+name+")"]
			if i < len(trace) {
				fmt.Printf("  %-14s", util.FormatValueFactor(trace[i], "V"))
			}
		}
		fmt.Println()
	}
}
