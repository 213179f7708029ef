package attractors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/rfielding/boolnet-ctl/kripke"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

// Verdict is the outcome of an optional decision.
type Verdict string

const (
	Yes     Verdict = "yes"
	No      Verdict = "no"
	Unknown Verdict = "unknown"
)

func verdict(b bool) Verdict {
	if b {
		return Yes
	}
	return No
}

// Report describes the attractors of a network, one per minimal trap space.
type Report struct {
	Primes     primes.Network `json:"primes" yaml:"primes"`
	Update     stg.Update     `json:"update" yaml:"update"`
	IsComplete Verdict        `json:"is_complete" yaml:"is_complete"`
	Attractors []Attractor    `json:"attractors" yaml:"attractors"`
}

type Attractor struct {
	IsSteady     bool          `json:"is_steady" yaml:"is_steady"`
	IsCyclic     bool          `json:"is_cyclic" yaml:"is_cyclic"`
	State        StateInfo     `json:"state" yaml:"state"`
	MinTrapSpace TrapSpaceInfo `json:"mintrapspace" yaml:"mintrapspace"`
}

type StateInfo struct {
	Str  string      `json:"str" yaml:"str"`
	Dict space.State `json:"dict" yaml:"dict"`
	Prop string      `json:"prop" yaml:"prop"`
}

type TrapSpaceInfo struct {
	Str        string         `json:"str" yaml:"str"`
	Dict       space.Subspace `json:"dict" yaml:"dict"`
	Prop       string         `json:"prop" yaml:"prop"`
	IsUnivocal Verdict        `json:"is_univocal" yaml:"is_univocal"`
	IsFaithful Verdict        `json:"is_faithful" yaml:"is_faithful"`
}

// ReportOptions selects the decisions Compute runs.
type ReportOptions struct {
	CheckCompleteness bool
	CheckUnivocality  bool
	CheckFaithfulness bool
	// Parallelism bounds how many trap spaces are analysed at once.
	Parallelism int
}

func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		CheckCompleteness: true,
		CheckUnivocality:  true,
		CheckFaithfulness: true,
		Parallelism:       1,
	}
}

// Compute builds the attractor report of net.
func (a *Analyzer) Compute(ctx context.Context, net primes.Network, u stg.Update, opts ReportOptions) (report *Report, err error) {
	if err := validate(net, u); err != nil {
		return nil, err
	}
	if len(net) == 0 {
		return nil, fmt.Errorf("compute: empty network")
	}
	ctx, span := tracer.Start(ctx, "attractors.Compute", trace.WithAttributes(
		attribute.String("update", u.String()),
		attribute.Int("variables", len(net)),
	))
	defer func() { endSpan(span, err) }()

	names := net.Names()
	mints, err := a.minimal(ctx, net)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("min_trap_spaces", len(mints)))

	report = &Report{Primes: net.Copy(), Update: u, IsComplete: Unknown}
	seeds := make([]int64, len(mints))
	for i := range seeds {
		seeds[i] = a.rng.Int63()
	}
	if opts.CheckCompleteness {
		complete, _, err := a.CompletenessIterative(ctx, net, u)
		if err != nil {
			return nil, err
		}
		report.IsComplete = verdict(complete)
	}

	limit := opts.Parallelism
	if limit < 1 {
		limit = 1
	}
	report.Attractors = make([]Attractor, len(mints))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, m := range mints {
		i, m := i, m // per-iteration copies (go1.21 loop semantics)
		w := a.fork(seeds[i])
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			att, err := w.analyze(gctx, net, u, m, names, opts)
			if err != nil {
				return fmt.Errorf("trap space %s: %w", subspaceString(m, names), err)
			}
			report.Attractors[i] = att
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(report.Attractors, func(i, j int) bool {
		return report.Attractors[i].State.Str < report.Attractors[j].State.Str
	})
	a.logger.Info("attractor report",
		zap.Stringer("update", u),
		zap.Int("attractors", len(report.Attractors)),
		zap.String("complete", string(report.IsComplete)),
	)
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context, net primes.Network, u stg.Update, mint space.Subspace, names []string, opts ReportOptions) (Attractor, error) {
	info := TrapSpaceInfo{
		Str:        subspaceString(mint, names),
		Dict:       mint,
		Prop:       kripke.SubspaceProp(mint).String(),
		IsUnivocal: Unknown,
		IsFaithful: Unknown,
	}
	if opts.CheckUnivocality {
		ok, _, err := a.Univocality(ctx, net, u, mint)
		if err != nil {
			return Attractor{}, err
		}
		info.IsUnivocal = verdict(ok)
	}
	if opts.CheckFaithfulness {
		ok, _, err := a.Faithfulness(ctx, net, u, mint)
		if err != nil {
			return Attractor{}, err
		}
		info.IsFaithful = verdict(ok)
	}
	x, err := a.FindAttractorState(ctx, net, u, mint)
	if err != nil {
		return Attractor{}, err
	}
	str, err := space.StateString(x, names)
	if err != nil {
		return Attractor{}, err
	}
	steady := len(mint) == len(net)
	return Attractor{
		IsSteady:     steady,
		IsCyclic:     !steady,
		State:        StateInfo{Str: str, Dict: x, Prop: kripke.StateProp(x).String()},
		MinTrapSpace: info,
	}, nil
}

// SteadyStates returns the trap spaces of steady attractors.
func (r *Report) SteadyStates() []Attractor {
	var out []Attractor
	for _, att := range r.Attractors {
		if att.IsSteady {
			out = append(out, att)
		}
	}
	return out
}

// Cyclic returns the trap spaces of cyclic attractors.
func (r *Report) Cyclic() []Attractor {
	var out []Attractor
	for _, att := range r.Attractors {
		if att.IsCyclic {
			out = append(out, att)
		}
	}
	return out
}

// Save writes the report as YAML when path ends in .yaml or .yml and as JSON
// otherwise.
func Save(r *Report, path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Open reads a report written by Save.
func Open(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &r)
	default:
		err = json.Unmarshal(data, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}

// WriteMarkdown renders the report as markdown: steady states, the completeness
// verdict, a table of cyclic trap spaces and the network rules.
func WriteMarkdown(w io.Writer, r *Report) error {
	var sb strings.Builder
	sb.WriteString("### Attractor Report\n\n")
	fmt.Fprintf(&sb, " * update: %s\n", r.Update)
	fmt.Fprintf(&sb, " * variables: %d\n\n", len(r.Primes))

	sb.WriteString("### Steady States\n")
	steady := r.SteadyStates()
	if len(steady) == 0 {
		sb.WriteString(" * there are no steady states\n")
	} else {
		width := max(12, len(r.Primes))
		fmt.Fprintf(&sb, "| %-*s |\n", width, "steady state")
		fmt.Fprintf(&sb, "| %s |\n", strings.Repeat("-", width))
		for _, att := range steady {
			fmt.Fprintf(&sb, "| %-*s |\n", width, att.MinTrapSpace.Str)
		}
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "### %s STG\n", capitalize(r.Update.String()))
	fmt.Fprintf(&sb, " * completeness: %s\n", r.IsComplete)
	cyclic := r.Cyclic()
	if len(cyclic) == 0 {
		sb.WriteString(" * there are only steady states\n")
	} else {
		width := max(14, len(r.Primes))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "| %-*s | univocal  | faithful  |\n", width, "trapspace")
		fmt.Fprintf(&sb, "| %s | --------- | --------- |\n", strings.Repeat("-", width))
		for _, att := range cyclic {
			fmt.Fprintf(&sb, "| %-*s | %-9s | %-9s |\n", width,
				att.MinTrapSpace.Str, att.MinTrapSpace.IsUnivocal, att.MinTrapSpace.IsFaithful)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("### Network\n```\n")
	sb.WriteString(r.Primes.String())
	sb.WriteString("```\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
