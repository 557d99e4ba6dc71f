// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/alloc"
	"github.com/gogpu/framegraph/loader"
	"github.com/gogpu/framegraph/shader"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	verbose bool
	vars    map[string]string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "fgc",
		Short:         "Check and compile frame graph declarations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if g.verbose {
				framegraph.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
					&slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().StringToStringVar(&g.vars, "var", nil, "set a declaration variable (name=value)")

	root.AddCommand(newCheckCmd(g), newCompileCmd(g))
	return root
}

// loadPasses loads declarations and builds their passes.
func loadPasses(g *globalFlags, paths []string) ([]*framegraph.Pass, error) {
	decl, err := loader.New(loader.WithStringVariables(g.vars)).Load(paths...)
	if err != nil {
		return nil, err
	}
	return decl.Build(shader.NewCompiler())
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file or directory>...",
		Short: "Validate declarations and print the execution order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passes, err := loadPasses(g, args)
			if err != nil {
				return err
			}
			ordered, err := framegraph.Validate(passes)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, p := range ordered {
				fmt.Fprintf(out, "%d. %s\n", i+1, p.Name())
			}
			return nil
		},
	}
}

type compileFlags struct {
	width    uint32
	height   uint32
	budgetMB int
	resize   string
	metrics  bool
}

func newCompileCmd(g *globalFlags) *cobra.Command {
	f := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "compile <file or directory>...",
		Short: "Compile declarations on the noop device and print the resources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passes, err := loadPasses(g, args)
			if err != nil {
				return err
			}
			return runCompile(cmd.OutOrStdout(), passes, f)
		},
	}
	cmd.Flags().Uint32Var(&f.width, "width", 1280, "attachment width")
	cmd.Flags().Uint32Var(&f.height, "height", 720, "attachment height")
	cmd.Flags().IntVar(&f.budgetMB, "budget-mb", 0, "attachment memory budget in MiB, 0 for unbounded")
	cmd.Flags().StringVar(&f.resize, "resize", "", "recreate at WIDTHxHEIGHT after compiling")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false, "print compiler metrics in the prometheus text format")
	return cmd
}

func runCompile(out io.Writer, passes []*framegraph.Pass, f *compileFlags) error {
	if f.budgetMB < 0 || (f.budgetMB > 0 && f.budgetMB < alloc.MinBudgetMB) {
		return fmt.Errorf("invalid --budget-mb %d: want 0 or at least %d", f.budgetMB, alloc.MinBudgetMB)
	}
	device, cleanup, err := openNoopDevice()
	if err != nil {
		return err
	}
	defer cleanup()

	allocator := alloc.New(alloc.Config{BudgetMB: f.budgetMB, Unbounded: f.budgetMB == 0})
	defer allocator.Close()
	reg := prometheus.NewRegistry()

	graph, err := framegraph.Compile(device, passes, f.width, f.height,
		framegraph.WithAllocator(allocator),
		framegraph.WithMetrics(framegraph.NewMetrics(reg)))
	if err != nil {
		return err
	}
	defer graph.Release()

	printGraph(out, graph)

	if f.resize != "" {
		var w, h uint32
		if _, err := fmt.Sscanf(f.resize, "%dx%d", &w, &h); err != nil {
			return fmt.Errorf("invalid --resize %q: want WIDTHxHEIGHT", f.resize)
		}
		if err := graph.Recreate(w, h); err != nil {
			return err
		}
		fmt.Fprintf(out, "recreated at %dx%d (generation %d)\n", w, h, graph.Generation())
	}

	fmt.Fprintln(out, allocator.Stats())

	if f.metrics {
		families, err := reg.Gather()
		if err != nil {
			return err
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
				return err
			}
		}
	}
	return nil
}

func printGraph(out io.Writer, g *framegraph.Graph) {
	w, h := g.Size()
	fmt.Fprintf(out, "graph: %d passes, %d attachments, %dx%d\n", len(g.Passes()), g.AttachmentCount(), w, h)
	for _, cp := range g.Passes() {
		pl := cp.Pipeline()
		fmt.Fprintf(out, "%d. %s  topology=%s msaa=%t draw=%T\n",
			cp.Index()+1, cp.Name(), pl.Topology(), pl.Multisample().SampleShading, cp.DrawState())
		if deps := cp.Dependencies(); len(deps) > 0 {
			fmt.Fprintf(out, "   after: %s\n", strings.Join(deps, ", "))
		}
		for _, in := range cp.Inputs() {
			fmt.Fprintf(out, "   in   %-16s %s sampler %s\n", in.Name, in.Kind, in.Sampler)
		}
		for _, h := range cp.Framebuffer().Attachments {
			a, err := g.Attachment(h)
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "   out  %-16s %s %s\n", a.Name, a.Kind, a.Format)
		}
	}
}

func openNoopDevice() (framegraph.Device, func(), error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create noop instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, fmt.Errorf("noop instance has no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("open noop device: %w", err)
	}
	return openDev.Device, func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}, nil
}
