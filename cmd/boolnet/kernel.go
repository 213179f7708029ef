package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/controlkernel"
	"github.com/rfielding/boolnet-ctl/space"
)

var (
	kernelTarget string
	kernelBrute  bool
	kernelJSON   string
)

var kernelCmd = &cobra.Command{
	Use:   "kernel FILE",
	Short: "Find the variables whose control drives the network to a target state",
	Long: `Walks the strongly connected components of the interaction graph from the
sources down, and in each one looks for the smallest subset of a minimum
feedback vertex set that canalizes the component to the target. Also lists
the steady states reachable by canalizing the feedback vertex set.`,
	Args: cobra.ExactArgs(1),
	RunE: runKernel,
}

func init() {
	kernelCmd.Flags().StringVarP(&kernelTarget, "target", "t", "", "target state such as 101 in variable name order")
	kernelCmd.Flags().BoolVar(&kernelBrute, "brute-force", false, "also search perturbations that leave only the target attractor")
	kernelCmd.Flags().StringVar(&kernelJSON, "json", "", "write the kernel as JSON")
	_ = kernelCmd.MarkFlagRequired("target")
}

func runKernel(cmd *cobra.Command, args []string) error {
	net, u, err := load(args[0])
	if err != nil {
		return err
	}
	names := net.Names()
	target, err := space.ParseState(kernelTarget, names)
	if err != nil {
		return err
	}

	f := controlkernel.New(logger)
	res, err := f.Kernel(cmd.Context(), net, target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range res.Components {
		fmt.Fprintf(out, "component %s level %d fvs %s control %s\n",
			strings.Join(c.Nodes, ","), c.Level, sets(c.FVS), sets(c.Control))
	}
	fmt.Fprintf(out, "kernel: %s\n", strings.Join(res.Kernel, ","))
	fmt.Fprintf(out, "fvs: %s\n", strings.Join(res.FVS, ","))

	points, err := controlkernel.PointAttractors(net, res.FVS)
	if err != nil {
		logger.Warn("point attractors skipped", zap.Error(err))
	} else {
		for _, x := range points {
			fmt.Fprintf(out, "steady: %s\n", stateString(x, names))
		}
	}

	if kernelBrute {
		kernels, err := f.BruteForce(cmd.Context(), net, u, target)
		if err != nil {
			return err
		}
		if len(kernels) == 0 {
			fmt.Fprintln(out, "brute force: none")
		}
		for _, k := range kernels {
			fmt.Fprintf(out, "brute force: {%s}\n", strings.Join(k, ","))
		}
	}

	if kernelJSON != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode kernel: %w", err)
		}
		if err := os.WriteFile(kernelJSON, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", kernelJSON, err)
		}
		logger.Info("kernel written", zap.String("path", kernelJSON))
	}
	return nil
}

func sets(xs [][]string) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = "{" + strings.Join(x, ",") + "}"
	}
	return strings.Join(parts, " ")
}
