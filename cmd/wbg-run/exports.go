package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero/api"
	"golang.org/x/term"

	"github.com/wippyai/wbg-runtime/runtime"
)

var (
	funcStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	typeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

var exportsCmd = &cobra.Command{
	Use:   "exports <module.wasm|url>",
	Short: "List exported functions and the state of the wbg imports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, err := setup(nil)
		if err != nil {
			return err
		}
		defer log.Sync()

		rt, err := runtime.New(ctx, cfg.Runtime(log))
		if err != nil {
			return err
		}
		defer rt.Close(ctx)

		mod, err := rt.Compile(ctx, args[0])
		if err != nil {
			return err
		}
		styled := term.IsTerminal(int(os.Stdout.Fd()))
		printModule(cmd.OutOrStdout(), mod, styled)
		return nil
	},
}

func printModule(w io.Writer, mod *runtime.Module, styled bool) {
	paint := func(s lipgloss.Style, text string) string {
		if styled {
			return s.Render(text)
		}
		return text
	}

	fmt.Fprintf(w, "%s %s\n\n", paint(headerStyle, "Module:"), mod.Name())

	fmt.Fprintln(w, paint(headerStyle, "Exported functions:"))
	for _, e := range mod.Exports() {
		fmt.Fprintf(w, "  %s(%s)%s\n",
			paint(funcStyle, e.Name),
			paint(typeStyle, valueTypes(e.Params)),
			resultSuffix(e.Results, func(s string) string { return paint(typeStyle, s) }))
	}

	plan := mod.Plan()
	groups := plan.Groups()
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "\n%s %d resolved\n", paint(headerStyle, "wbg imports:"), plan.Len())
	for _, g := range names {
		fmt.Fprintf(w, "  %-14s %d\n", g, groups[g])
	}

	if missing := mod.Missing(); len(missing) > 0 {
		fmt.Fprintf(w, "\n%s\n", paint(headerStyle, "Unresolved imports:"))
		for _, m := range missing {
			fmt.Fprintf(w, "  %s\n", paint(missingStyle, m))
		}
	}
}

func valueTypes(ts []api.ValueType) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}

func resultSuffix(ts []api.ValueType, paint func(string) string) string {
	if len(ts) == 0 {
		return ""
	}
	return " -> " + paint(valueTypes(ts))
}
