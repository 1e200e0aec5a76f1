package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tacticalpha/regime-engine/internal/indicators"
	"github.com/tacticalpha/regime-engine/internal/tactical"
	"github.com/tacticalpha/regime-engine/pkg/logger"
)

// createmodel manages tactical model definitions without running the
// pipeline: list what is available, create a model from flags, inspect
// a saved one.
func main() {
	var (
		modelsDir      = flag.String("models-dir", "models", "directory holding model JSON files")
		listIndicators = flag.Bool("list-indicators", false, "print the indicator universe and exit")
		listLogics     = flag.Bool("list-logics", false, "print the registered logic types and exit")
		listModels     = flag.Bool("list-models", false, "print saved model names and exit")
		inspect        = flag.String("inspect", "", "print a saved model and exit")
		name           = flag.String("name", "", "model name (no spaces)")
		logic          = flag.String("logic", "", "logic type, see -list-logics")
		indicatorList  = flag.String("indicators", "", "comma-separated indicator names, see -list-indicators")
		params         = flag.String("params", "", "variant parameters as inline JSON")
		paramsFile     = flag.String("params-file", "", "variant parameters as a JSON file")
		description    = flag.String("description", "", "free-form model description")
	)
	flag.Parse()

	if err := logger.Init("warn", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cliArgs{
		modelsDir:      *modelsDir,
		listIndicators: *listIndicators,
		listLogics:     *listLogics,
		listModels:     *listModels,
		inspect:        *inspect,
		name:           *name,
		logic:          *logic,
		indicators:     *indicatorList,
		params:         *params,
		paramsFile:     *paramsFile,
		description:    *description,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type cliArgs struct {
	modelsDir      string
	listIndicators bool
	listLogics     bool
	listModels     bool
	inspect        string
	name           string
	logic          string
	indicators     string
	params         string
	paramsFile     string
	description    string
}

func run(args cliArgs) error {
	catalog := indicators.Default()

	switch {
	case args.listIndicators:
		for _, name := range catalog.Names() {
			def, _ := catalog.Get(name)
			line := fmt.Sprintf("%-32s %s", name, def.Category)
			if def.Limitations != "" {
				line += "  [" + def.Limitations + "]"
			}
			fmt.Println(line)
		}
		return nil

	case args.listLogics:
		for _, logic := range tactical.LogicTypes() {
			fmt.Println(logic)
		}
		return nil

	case args.listModels:
		store, err := tactical.NewStore(args.modelsDir)
		if err != nil {
			return err
		}
		names, err := store.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil

	case args.inspect != "":
		store, err := tactical.NewStore(args.modelsDir)
		if err != nil {
			return err
		}
		out, err := store.Inspect(args.inspect)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	return create(args, catalog)
}

func create(args cliArgs, catalog *indicators.Catalog) error {
	if args.name == "" || args.logic == "" || args.indicators == "" {
		return fmt.Errorf("creating a model needs -name, -logic and -indicators (or use one of the -list flags)")
	}

	rawParams, err := loadParams(args)
	if err != nil {
		return err
	}

	var names []string
	for _, part := range strings.Split(args.indicators, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}

	cfg := tactical.Config{
		Name:        args.name,
		Indicators:  names,
		LogicType:   args.logic,
		Parameters:  rawParams,
		Description: args.description,
	}

	// Building proves the config is usable before it is written out.
	if _, err := tactical.Build(cfg, catalog); err != nil {
		return err
	}

	store, err := tactical.NewStore(args.modelsDir)
	if err != nil {
		return err
	}
	if err := store.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("model %q saved to %s\n", cfg.Name, args.modelsDir)
	return nil
}

func loadParams(args cliArgs) (json.RawMessage, error) {
	if args.params != "" && args.paramsFile != "" {
		return nil, fmt.Errorf("-params and -params-file are mutually exclusive")
	}

	var raw []byte
	switch {
	case args.params != "":
		raw = []byte(args.params)
	case args.paramsFile != "":
		data, err := os.ReadFile(args.paramsFile)
		if err != nil {
			return nil, fmt.Errorf("read params file: %w", err)
		}
		raw = data
	default:
		return nil, fmt.Errorf("creating a model needs -params or -params-file")
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("parameters are not valid JSON")
	}
	return json.RawMessage(raw), nil
}
