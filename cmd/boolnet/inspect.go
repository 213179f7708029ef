package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/rfielding/boolnet-ctl/digraph"
	"github.com/rfielding/boolnet-ctl/kripke"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
	"github.com/rfielding/boolnet-ctl/trapspace"
)

var (
	trapType   string
	energyOf   string
	initExpr   string
	specExpr   string
	stgFormat  string
	stgInit    string
	reachGoal  string
	reachFrom  string
	reachLimit int
	smvOut     string
)

var trapspacesCmd = &cobra.Command{
	Use:   "trapspaces FILE",
	Short: "List trap spaces or steady states",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrapspaces,
}

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Model check a CTL formula",
	Example: `  boolnet check net.bnet --init 'v1&!v2' --spec 'AG(EF(v3))'
  boolnet check repo:raf -u sync --spec 'EF(Erk&Mek)'`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var stgCmd = &cobra.Command{
	Use:   "stg FILE",
	Short: "Export the explicit state transition graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runSTG,
}

var reachCmd = &cobra.Command{
	Use:   "reach FILE",
	Short: "Search an asynchronous path into a goal subspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runReach,
}

var smvCmd = &cobra.Command{
	Use:   "smv FILE",
	Short: "Export a NuSMV model with one CTL specification",
	Args:  cobra.ExactArgs(1),
	RunE:  runSMV,
}

func init() {
	trapspacesCmd.Flags().StringVarP(&trapType, "type", "t", "min", "min, max, all or steady")
	trapspacesCmd.Flags().StringVar(&energyOf, "energy", "", "print the energy of this state instead")

	for _, c := range []*cobra.Command{checkCmd, smvCmd} {
		c.Flags().StringVar(&initExpr, "init", "TRUE", "initial states as a proposition")
		c.Flags().StringVar(&specExpr, "spec", "", "CTL formula")
		_ = c.MarkFlagRequired("spec")
	}
	smvCmd.Flags().StringVarP(&smvOut, "out", "o", "", "output file (default stdout)")

	stgCmd.Flags().StringVarP(&stgFormat, "format", "f", "dot", "dot or mermaid")
	stgCmd.Flags().StringVar(&stgInit, "init", "", "initial subspace (default all states)")

	reachCmd.Flags().StringVar(&reachFrom, "from", "", "initial subspace (default all states)")
	reachCmd.Flags().StringVar(&reachGoal, "goal", "", "goal subspace")
	reachCmd.Flags().IntVar(&reachLimit, "memory", 10000, "maximum number of explored states")
	_ = reachCmd.MarkFlagRequired("goal")
}

func optionalSubspace(str string, names []string) (space.Subspace, error) {
	if str == "" {
		return space.Subspace{}, nil
	}
	return space.ParseSubspace(str, names)
}

func runTrapspaces(cmd *cobra.Command, args []string) error {
	net, _, err := load(args[0])
	if err != nil {
		return err
	}
	solver := trapspace.New(logger)
	names := net.Names()
	out := cmd.OutOrStdout()

	if energyOf != "" {
		x, err := space.ParseState(energyOf, names)
		if err != nil {
			return err
		}
		e, err := solver.Energy(net, x)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, e)
		return nil
	}

	var subs []space.Subspace
	switch trapType {
	case "steady":
		states, err := solver.SteadyStates(net)
		if err != nil {
			return err
		}
		for _, x := range states {
			subs = append(subs, x.Subspace())
		}
	default:
		kind, err := trapspace.ParseKind(trapType)
		if err != nil {
			return err
		}
		switch kind {
		case trapspace.Min:
			subs, err = solver.Minimal(net)
		case trapspace.Max:
			subs, err = solver.Maximal(net)
		default:
			subs, err = solver.All(net)
		}
		if err != nil {
			return err
		}
	}
	if len(subs) > 0 {
		fmt.Fprintln(out, subspaceStrings(subs, names))
	}
	return nil
}

func parseQuery() (kripke.Formula, kripke.Formula, error) {
	init, err := kripke.Parse(initExpr)
	if err != nil {
		return nil, nil, fmt.Errorf("--init: %w", err)
	}
	spec, err := kripke.Parse(specExpr)
	if err != nil {
		return nil, nil, fmt.Errorf("--spec: %w", err)
	}
	return init, spec, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	net, u, err := load(args[0])
	if err != nil {
		return err
	}
	init, spec, err := parseQuery()
	if err != nil {
		return err
	}
	c, release, err := checker()
	if err != nil {
		return err
	}
	defer release()

	holds, path, err := c.CheckWithCounterexample(net, u, init, spec)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", spec, yesNo(holds))
	for i, x := range path {
		fmt.Fprintf(out, "%3d  %s\n", i, stateString(x, net.Names()))
	}
	return nil
}

func runSTG(cmd *cobra.Command, args []string) error {
	net, u, err := load(args[0])
	if err != nil {
		return err
	}
	init, err := optionalSubspace(stgInit, net.Names())
	if err != nil {
		return err
	}
	g, err := stg.Build(net, u, init)
	if err != nil {
		return err
	}
	initIDs := digraph.NewNodeSet()
	for _, x := range space.Enumerate(init, net.Names()) {
		initIDs.Add(digraph.NodeID(stateString(x, net.Names())))
	}
	switch stgFormat {
	case "dot":
		highlight := digraph.NewNodeSet()
		for _, a := range stg.Attractors(g) {
			for _, s := range a.States {
				highlight.Add(digraph.NodeID(s))
			}
		}
		return stg.WriteDOT(cmd.OutOrStdout(), g, initIDs, highlight)
	case "mermaid":
		return stg.WriteMermaid(cmd.OutOrStdout(), g, initIDs)
	default:
		return fmt.Errorf("unknown format %q (want dot or mermaid)", stgFormat)
	}
}

func runReach(cmd *cobra.Command, args []string) error {
	net, _, err := load(args[0])
	if err != nil {
		return err
	}
	from, err := optionalSubspace(reachFrom, net.Names())
	if err != nil {
		return err
	}
	goal, err := space.ParseSubspace(reachGoal, net.Names())
	if err != nil {
		return err
	}
	path, err := stg.BestFirstReachability(net, from, goal, reachLimit, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if path == nil {
		fmt.Fprintln(out, "no path found")
		return nil
	}
	for i, x := range path {
		fmt.Fprintf(out, "%3d  %s\n", i, stateString(x, net.Names()))
	}
	return nil
}

func runSMV(cmd *cobra.Command, args []string) error {
	net, u, err := load(args[0])
	if err != nil {
		return err
	}
	init, spec, err := parseQuery()
	if err != nil {
		return err
	}
	if smvOut == "" {
		return kripke.WriteSMV(cmd.OutOrStdout(), net, u, init, spec)
	}
	f, err := os.Create(smvOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", smvOut, err)
	}
	defer f.Close()
	return kripke.WriteSMV(f, net, u, init, spec)
}
