package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rywalsh/sliderule/config"
	"github.com/rywalsh/sliderule/content"
	"github.com/rywalsh/sliderule/pkg/calcconfig"
	"github.com/rywalsh/sliderule/pkg/engine"
	"github.com/rywalsh/sliderule/pkg/formula"
	"github.com/rywalsh/sliderule/pkg/units"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("sliderule", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configPath  = flags.String("config", "", "Path to config file")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "sliderule version %s\n", Version)
		return nil
	}

	rest := flags.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return fmt.Errorf("no command given")
	}
	command, commandArgs := rest[0], rest[1:]

	// Commands that need no configuration.
	switch command {
	case "convert":
		return runConvert(stdout, commandArgs)
	case "eval":
		return runEval(stdout, commandArgs)
	}

	cfg, err := config.Load(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	switch command {
	case "validate":
		return runValidate(stdout, cfg, commandArgs)
	case "calc":
		return runCalc(stdout, cfg, commandArgs)
	case "table":
		return runTable(stdout, cfg, commandArgs)
	case "search":
		return runSearch(stdout, cfg, commandArgs)
	case "watch":
		ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return runWatch(ctx, stdout, stderr, cfg)
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

// runValidate checks a single config file, or the whole catalog when no
// file is given. The command fails on broken content so CI can block
// publishing.
func runValidate(stdout io.Writer, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		parsed, problems := calcconfig.Validate(string(data), args[0])
		if parsed == nil {
			for _, problem := range problems {
				fmt.Fprintf(stdout, "  - %s\n", problem)
			}
			return fmt.Errorf("%s: %d validation error(s)", args[0], len(problems))
		}
		fmt.Fprintf(stdout, "%s: ok\n", args[0])
		return nil
	}

	store := content.NewStore(cfg.Content.DataFile, cfg.Content.ConfigsDir)
	records, err := store.All()
	if err != nil {
		return err
	}

	withConfig := 0
	for _, record := range records {
		if record.Config != nil {
			withConfig++
		}
	}
	fmt.Fprintf(stdout, "%s: %d calculators ok (%d with configs)\n",
		cfg.Content.DataFile, len(records), withConfig)
	return nil
}

// runCalc evaluates a calculator from the catalog against name=value
// inputs: `calc /health/bmr-calculator method=mifflin weight=80 height=180`.
func runCalc(stdout io.Writer, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: calc <path> [method=id] [name=value ...]")
	}

	store := content.NewStore(cfg.Content.DataFile, cfg.Content.ConfigsDir)
	record, err := store.ByPath(args[0])
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no calculator at %s", args[0])
	}
	if record.Config == nil || record.Config.Logic == nil {
		return fmt.Errorf("%s has no calculator logic", record.FullPath)
	}

	methodID := ""
	inputs := make(map[string]float64)
	for _, arg := range args[1:] {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("invalid input %q, want name=value", arg)
		}
		if name == "method" {
			methodID = raw
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid input %q: %v", arg, err)
		}
		inputs[name] = value
	}

	switch logic := record.Config.Logic.(type) {
	case *calcconfig.ConversionLogic:
		ctx := units.ContextFromIDs(logic.FromUnitID, logic.ToUnitID)
		if ctx == nil {
			return fmt.Errorf("%s: unresolvable unit pair %s/%s", record.FullPath, logic.FromUnitID, logic.ToUnitID)
		}
		value := inputs["value"]
		result := units.ConvertValue(value, units.Forward, ctx)
		fmt.Fprintf(stdout, "%s = %s\n",
			units.FormatUnitValue(value, ctx.From),
			units.FormatUnitValue(result, ctx.To))

	case *calcconfig.FormulaLogic:
		for _, output := range engine.EvaluateFormula(logic, record.Config.FieldIDs(), inputs) {
			printOutput(stdout, output)
		}

	case *calcconfig.AdvancedLogic:
		if methodID == "" {
			methodID = logic.DefaultMethod
		}
		method := logic.Method(methodID)
		if method == nil {
			return fmt.Errorf("%s has no method %q", record.FullPath, methodID)
		}
		for _, output := range engine.EvaluateMethod(method, inputs).Outputs {
			printOutput(stdout, output)
		}

	default:
		return fmt.Errorf("%s: cannot evaluate %s logic", record.FullPath, record.Config.Logic.Kind())
	}
	return nil
}

func printOutput(w io.Writer, output engine.OutputValue) {
	value := strconv.FormatFloat(output.Value, 'f', -1, 64)
	if math.IsNaN(output.Value) {
		value = "NaN"
	}
	if output.Unit != "" {
		value += " " + output.Unit
	}
	fmt.Fprintf(w, "%s: %s\n", output.Label, value)
}

// runConvert performs a one-shot conversion: `convert feet-to-meters 12`.
func runConvert(stdout io.Writer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: convert <from>-to-<to> <value>")
	}

	ctx := units.ParseConversionFromSlug(args[0])
	if ctx == nil {
		return fmt.Errorf("unknown conversion %q", args[0])
	}

	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[1])
	}

	result := units.ConvertValue(value, units.Forward, ctx)
	fmt.Fprintf(stdout, "%s = %s\n",
		units.FormatUnitValue(value, ctx.From),
		units.FormatUnitValue(result, ctx.To))
	fmt.Fprintf(stdout, "%s\n", units.FormulaText(ctx))
	return nil
}

// runTable prints a quick-reference table over the configured seed values.
func runTable(stdout io.Writer, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: table <from>-to-<to>")
	}

	ctx := units.ParseConversionFromSlug(args[0])
	if ctx == nil {
		return fmt.Errorf("unknown conversion %q", args[0])
	}

	for _, row := range units.BuildConversionTable(cfg.Table.Values, ctx, units.Forward) {
		fmt.Fprintf(stdout, "%s\t%s\n",
			units.FormatUnitValue(row.Input, ctx.From),
			units.FormatUnitValue(row.Output, ctx.To))
	}
	return nil
}

// runEval evaluates an expression against name=value bindings:
// `eval "principal * rate" principal=200 rate=0.3`.
func runEval(stdout io.Writer, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: eval <expression> [name=value ...]")
	}

	bindings := make(map[string]float64, len(args)-1)
	names := make([]string, 0, len(args)-1)
	for _, arg := range args[1:] {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("invalid binding %q, want name=value", arg)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid binding %q: %v", arg, err)
		}
		bindings[name] = value
		names = append(names, name)
	}

	result := formula.Compile(args[0], names).Eval(bindings)
	if math.IsNaN(result) {
		fmt.Fprintln(stdout, "NaN")
		return nil
	}
	fmt.Fprintf(stdout, "%s\n", strconv.FormatFloat(result, 'f', -1, 64))
	return nil
}

// runSearch queries the full-text index, rebuilding it from the catalog
// first so results always reflect the data file on disk.
func runSearch(stdout io.Writer, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: search <query>")
	}

	store := content.NewStore(cfg.Content.DataFile, cfg.Content.ConfigsDir)
	records, err := store.All()
	if err != nil {
		return err
	}

	index, err := content.OpenIndex(cfg.Search.Index)
	if err != nil {
		return err
	}
	defer index.Close()

	if err := index.Rebuild(records); err != nil {
		return err
	}

	hits, err := index.Search(strings.Join(args, " "), cfg.Search.Limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(stdout, "no results")
		return nil
	}
	for _, hit := range hits {
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", hit.Path, hit.Title, hit.Category)
	}
	return nil
}

// runWatch re-validates the catalog and rebuilds the search index whenever
// the data file or config tree changes. Runs until interrupted.
func runWatch(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config) error {
	store := content.NewStore(cfg.Content.DataFile, cfg.Content.ConfigsDir)

	index, err := content.OpenIndex(cfg.Search.Index)
	if err != nil {
		return err
	}
	defer index.Close()

	reload := func() {
		records, err := store.All()
		if err != nil {
			fmt.Fprintf(stderr, "[WATCH ERROR] %v\n", err)
			return
		}
		if err := index.Rebuild(records); err != nil {
			fmt.Fprintf(stderr, "[WATCH ERROR] reindex: %v\n", err)
			return
		}
		count, _ := index.Count()
		if !cfg.Logging.Quiet {
			fmt.Fprintf(stdout, "[WATCH] %d calculators ok, %d indexed\n", len(records), count)
		}
	}
	reload()

	paths := append([]string{cfg.Content.DataFile, cfg.Content.ConfigsDir}, cfg.Watch.Paths...)
	watcher, err := content.NewWatcher(store, paths, cfg.Watch.Debounce, stdout, stderr)
	if err != nil {
		return err
	}
	defer watcher.Close()
	watcher.OnReload = reload

	if err := watcher.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `sliderule - calculator content engine

Usage:
  sliderule [flags] <command> [args]

Commands:
  validate [file]          Validate the catalog, or a single config file
  calc <path> [k=v ...]    Evaluate a calculator from the catalog
  convert <slug> <value>   One-shot unit conversion, e.g. convert feet-to-meters 12
  table <slug>             Quick-reference conversion table
  eval <expr> [k=v ...]    Evaluate a formula expression with bindings
  search <query>           Full-text search over the catalog
  watch                    Re-validate and reindex on file changes

Flags:
  -config <path>   Path to config file
  -version         Show version
  -help            Show help
`)
}
