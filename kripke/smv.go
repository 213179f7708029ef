package kripke

import (
	"fmt"
	"io"
	"strings"

	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/stg"
)

// WriteSMV writes a NuSMV model of the network under the given update mode with
// one INIT constraint and one CTLSPEC, for cross checking with external tools.
func WriteSMV(w io.Writer, net primes.Network, u stg.Update, init, spec Formula) error {
	if err := validate(net, init, spec); err != nil {
		return err
	}
	names := net.Names()
	var smv strings.Builder

	smv.WriteString("MODULE main\n\n")

	smv.WriteString("VAR\n")
	for _, n := range names {
		smv.WriteString(fmt.Sprintf("    %s: boolean;\n", n))
	}
	smv.WriteString("\n")

	smv.WriteString("DEFINE\n")
	for _, n := range names {
		smv.WriteString(fmt.Sprintf("    %s_IMAGE := %s;\n", n, smvExpression(net, n)))
	}
	for _, n := range names {
		smv.WriteString(fmt.Sprintf("    %s_STEADY := (%s_IMAGE = %s);\n", n, n, n))
	}
	steady := make([]string, len(names))
	keep := make([]string, len(names))
	for i, n := range names {
		steady[i] = n + "_STEADY"
		keep[i] = fmt.Sprintf("next(%s) = %s", n, n)
	}
	smv.WriteString(fmt.Sprintf("    STEADYSTATE := %s;\n\n", joinOr(steady, " & ", "TRUE")))

	smv.WriteString(fmt.Sprintf("-- %s update\n", u))
	smv.WriteString("TRANS\n")
	idle := fmt.Sprintf("(STEADYSTATE & %s)", joinOr(keep, " & ", "TRUE"))
	switch u {
	case stg.Synchronous:
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = fmt.Sprintf("next(%s) = %s_IMAGE", n, n)
		}
		smv.WriteString(fmt.Sprintf("    %s;\n\n", joinOr(parts, " & ", "TRUE")))
	case stg.Asynchronous:
		steps := []string{idle}
		for _, n := range names {
			step := []string{fmt.Sprintf("!%s_STEADY", n), fmt.Sprintf("next(%s) = %s_IMAGE", n, n)}
			for _, o := range names {
				if o != n {
					step = append(step, fmt.Sprintf("next(%s) = %s", o, o))
				}
			}
			steps = append(steps, "("+strings.Join(step, " & ")+")")
		}
		smv.WriteString("    " + strings.Join(steps, "\n  | ") + ";\n\n")
	default:
		each := make([]string, len(names))
		some := make([]string, len(names))
		for i, n := range names {
			each[i] = fmt.Sprintf("(next(%s) = %s | next(%s) = %s_IMAGE)", n, n, n, n)
			some[i] = fmt.Sprintf("next(%s) != %s", n, n)
		}
		smv.WriteString(fmt.Sprintf("    %s\n  | (%s & (%s));\n\n", idle,
			joinOr(each, " & ", "TRUE"), joinOr(some, " | ", "FALSE")))
	}

	smv.WriteString(fmt.Sprintf("INIT %s;\n", format(init, smvUnsteady)))
	smv.WriteString(fmt.Sprintf("CTLSPEC %s;\n", format(spec, smvUnsteady)))

	_, err := io.WriteString(w, smv.String())
	return err
}

func smvUnsteady(name string) string { return "!" + name + "_STEADY" }

func smvExpression(net primes.Network, name string) string {
	e := net.Expression(name)
	switch e {
	case "0":
		return "FALSE"
	case "1":
		return "TRUE"
	}
	return e
}

func joinOr(parts []string, sep, empty string) string {
	if len(parts) == 0 {
		return empty
	}
	return strings.Join(parts, sep)
}
