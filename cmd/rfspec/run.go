package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rfspec/internal/engine"
)

var (
	runIRPath       string
	runPresetPath   string
	runPresetName   string
	runSpecializeAt []string
	runPrintIR      bool
	runPrintDebug   bool
	runUI           bool
)

func init() {
	runCmd.Flags().StringVar(&runIRPath, "ir", "", "path to the textual IR module to load")
	runCmd.Flags().StringVar(&runPresetPath, "preset-file", "", "TOML specialization-profile file (see internal/engine.LoadProfile)")
	runCmd.Flags().StringVar(&runPresetName, "preset", "", "name of a preset within --preset-file to run")
	runCmd.Flags().StringArrayVar(&runSpecializeAt, "specialize", nil, "demangled_name:key=value[,key=value...] (repeatable)")
	runCmd.Flags().BoolVar(&runPrintIR, "print-ir", false, "print the module's IR before compiling")
	runCmd.Flags().BoolVar(&runPrintDebug, "print-debug", false, "print per-function demangled/mangled names")
	runCmd.Flags().BoolVar(&runUI, "ui", false, "show a progress spinner while the engine works")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load, specialize, optimize, and compile functions from an IR module",
	RunE:  runRun,
}

type specializationTask struct {
	name     string
	bindings map[string]int64
}

func parseSpecializeFlag(raw string) (specializationTask, error) {
	name, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return specializationTask{}, fmt.Errorf("--specialize %q: expected NAME:key=value[,...]", raw)
	}
	task := specializationTask{name: name, bindings: map[string]int64{}}
	if rest == "" {
		return task, nil
	}
	for _, pair := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return specializationTask{}, fmt.Errorf("--specialize %q: binding %q is not key=value", raw, pair)
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return specializationTask{}, fmt.Errorf("--specialize %q: value %q is not an integer: %w", raw, v, err)
		}
		task.bindings[k] = n
	}
	return task, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	if runIRPath == "" {
		return fmt.Errorf("--ir is required")
	}

	tasks := make([]specializationTask, 0, len(runSpecializeAt))
	for _, raw := range runSpecializeAt {
		t, err := parseSpecializeFlag(raw)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
	}

	if runPresetPath != "" {
		presets, err := engine.LoadProfile(runPresetPath)
		if err != nil {
			return err
		}
		if runPresetName != "" {
			p, ok := presets[runPresetName]
			if !ok {
				return fmt.Errorf("preset %q not found in %s", runPresetName, runPresetPath)
			}
			tasks = append(tasks, specializationTask{name: p.Source, bindings: p.Bindings})
		} else {
			for _, p := range presets {
				tasks = append(tasks, specializationTask{name: p.Source, bindings: p.Bindings})
			}
		}
	}

	tracer, cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := engine.DefaultConfig()
	if path, _ := cmd.Root().PersistentFlags().GetString("config"); path != "" {
		cfg, err = engine.LoadConfig(path)
		if err != nil {
			return err
		}
	}

	eng, err := engine.New(engine.WithConfig(cfg), engine.WithTracer(tracer))
	if err != nil {
		return err
	}
	defer eng.Close()

	report := func(stage string) {}
	recordResult := func(string, uintptr) {}
	if runUI && isOutputTerminal(cmd) {
		report, recordResult = startProgressUI(cmd, len(tasks))
	}

	report("load")
	eng.LoadIRFile(runIRPath)

	if runPrintIR {
		eng.PrintModuleIR()
	}
	if runPrintDebug {
		eng.PrintDebugInfo()
	}

	for _, t := range tasks {
		report("specialize:" + t.name)
		addr := eng.CompileWithBindings(t.name, t.bindings)
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> 0x%x\n", t.name, addr)
		recordResult(t.name, addr)
	}

	report("done")
	return nil
}
