package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/attractors"
	"github.com/rfielding/boolnet-ctl/kripke"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
	"github.com/rfielding/boolnet-ctl/trapspace"
)

var (
	jsonOut     string
	yamlOut     string
	markdownOut string
	naive       bool
	subspaceStr string
)

var attractorsCmd = &cobra.Command{
	Use:   "attractors FILE",
	Short: "Report the attractors of a network",
	Long: `Computes the minimal trap spaces, one attractor state in each, and the
univocality, faithfulness and completeness verdicts selected in the
configuration. Prints the markdown report unless an output file is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runAttractors,
}

var completenessCmd = &cobra.Command{
	Use:   "completeness FILE",
	Short: "Decide whether the minimal trap spaces contain every attractor",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompleteness,
}

var univocalityCmd = &cobra.Command{
	Use:   "univocality FILE",
	Short: "Decide whether a subspace contains exactly one attractor",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnivocality,
}

var faithfulnessCmd = &cobra.Command{
	Use:   "faithfulness FILE",
	Short: "Decide whether every free variable of a subspace oscillates in its attractors",
	Args:  cobra.ExactArgs(1),
	RunE:  runFaithfulness,
}

func init() {
	attractorsCmd.Flags().StringVar(&jsonOut, "json", "", "write the report as JSON")
	attractorsCmd.Flags().StringVar(&yamlOut, "yaml", "", "write the report as YAML")
	attractorsCmd.Flags().StringVar(&markdownOut, "markdown", "", "write the markdown report")

	completenessCmd.Flags().BoolVar(&naive, "naive", false, "use a single query over the whole network")

	for _, c := range []*cobra.Command{univocalityCmd, faithfulnessCmd} {
		c.Flags().StringVarP(&subspaceStr, "subspace", "s", "", "subspace such as 1-0 in variable name order")
		_ = c.MarkFlagRequired("subspace")
	}
}

// checker builds the configured model checker. The returned func releases the
// verdict store when caching is enabled.
func checker() (attractors.ModelChecker, func(), error) {
	var c kripke.Checker
	switch cfg.Checker {
	case "explicit":
		c = kripke.NewExplicit()
	default:
		c = kripke.NewSymbolic(kripke.WithLogger(logger))
	}
	if !cfg.Cache.Enabled {
		return c, func() {}, nil
	}
	db, err := kripke.OpenStore(kripke.StoreConfig{
		Path:     cfg.Cache.Path,
		InMemory: cfg.Cache.InMemory,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing verdict store failed", zap.Error(err))
		}
	}
	return kripke.NewCached(c, db, logger), release, nil
}

func newAnalyzer() (*attractors.Analyzer, func(), error) {
	c, release, err := checker()
	if err != nil {
		return nil, nil, err
	}
	a := attractors.New(
		attractors.WithChecker(c),
		attractors.WithOracle(trapspace.New(logger)),
		attractors.WithSeed(cfg.Seed),
		attractors.WithWalkLength(cfg.Walk.Length),
		attractors.WithAttempts(cfg.Walk.Attempts),
		attractors.WithLogger(logger),
	)
	return a, release, nil
}

func load(path string) (primes.Network, stg.Update, error) {
	u, err := cfg.UpdateMode()
	if err != nil {
		return nil, 0, err
	}
	net, err := primes.Load(path)
	if err != nil {
		return nil, 0, err
	}
	if err := net.Check(); err != nil {
		return nil, 0, err
	}
	logger.Info("network loaded",
		zap.String("path", path),
		zap.Int("variables", len(net)),
		zap.Stringer("update", u),
	)
	return net, u, nil
}

func reportOptions() attractors.ReportOptions {
	return attractors.ReportOptions{
		CheckCompleteness: cfg.Analysis.Completeness,
		CheckUnivocality:  cfg.Analysis.Univocality,
		CheckFaithfulness: cfg.Analysis.Faithfulness,
		Parallelism:       cfg.Analysis.Parallelism,
	}
}

func runAttractors(cmd *cobra.Command, args []string) error {
	net, u, err := load(args[0])
	if err != nil {
		return err
	}
	a, release, err := newAnalyzer()
	if err != nil {
		return err
	}
	defer release()

	report, err := a.Compute(cmd.Context(), net, u, reportOptions())
	if err != nil {
		return err
	}
	return writeReport(cmd, report)
}

func writeReport(cmd *cobra.Command, report *attractors.Report) error {
	written := false
	for _, path := range []string{jsonOut, yamlOut} {
		if path == "" {
			continue
		}
		if err := attractors.Save(report, path); err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", path))
		written = true
	}
	if markdownOut != "" {
		f, err := os.Create(markdownOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", markdownOut, err)
		}
		defer f.Close()
		if err := attractors.WriteMarkdown(f, report); err != nil {
			return err
		}
		written = true
	}
	if !written {
		return attractors.WriteMarkdown(cmd.OutOrStdout(), report)
	}
	return nil
}

func runCompleteness(cmd *cobra.Command, args []string) error {
	net, u, err := load(args[0])
	if err != nil {
		return err
	}
	a, release, err := newAnalyzer()
	if err != nil {
		return err
	}
	defer release()

	var complete bool
	var cex space.State
	if naive {
		mints, err := trapspace.New(logger).Minimal(net)
		if err != nil {
			return err
		}
		complete, cex, err = a.CompletenessNaive(cmd.Context(), net, u, mints)
		if err != nil {
			return err
		}
	} else {
		complete, cex, err = a.CompletenessIterative(cmd.Context(), net, u)
		if err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "complete: %s\n", yesNo(complete))
	if !complete {
		fmt.Fprintf(out, "counterexample: %s\n", stateString(cex, net.Names()))
	}
	return nil
}

func runUnivocality(cmd *cobra.Command, args []string) error {
	net, u, err := load(args[0])
	if err != nil {
		return err
	}
	sub, err := space.ParseSubspace(subspaceStr, net.Names())
	if err != nil {
		return err
	}
	a, release, err := newAnalyzer()
	if err != nil {
		return err
	}
	defer release()

	ok, pair, err := a.Univocality(cmd.Context(), net, u, sub)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "univocal: %s\n", yesNo(ok))
	if pair != nil {
		fmt.Fprintf(out, "counterexample: %s %s\n", stateString(pair.First, net.Names()), stateString(pair.Second, net.Names()))
	}
	return nil
}

func runFaithfulness(cmd *cobra.Command, args []string) error {
	net, u, err := load(args[0])
	if err != nil {
		return err
	}
	sub, err := space.ParseSubspace(subspaceStr, net.Names())
	if err != nil {
		return err
	}
	a, release, err := newAnalyzer()
	if err != nil {
		return err
	}
	defer release()

	ok, x, err := a.Faithfulness(cmd.Context(), net, u, sub)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "faithful: %s\n", yesNo(ok))
	if x != nil {
		fmt.Fprintf(out, "counterexample: %s\n", stateString(x, net.Names()))
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func stateString(x space.State, names []string) string {
	s, err := space.StateString(x, names)
	if err != nil {
		return x.String()
	}
	return s
}

func subspaceStrings(subs []space.Subspace, names []string) string {
	lines := make([]string, len(subs))
	for i, s := range subs {
		lines[i], _ = space.SubspaceString(s, names)
	}
	return strings.Join(lines, "\n")
}
