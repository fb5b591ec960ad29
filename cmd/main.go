package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"expresso/internal/compiler"
	"expresso/internal/config"
	"expresso/internal/logger"
	"expresso/pkg/color"
)

// Main entry point for the Expresso interpreter.
func main() {
	options := compiler.Compiler{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode: dump scopes and flow warnings")
	flag.BoolVar(&options.ShouldInterpret, "r", false, "Run with interpreter")
	flag.BoolVar(&options.Interactive, "i", false, "Start the REPL")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.StringVar(&options.ConfigFile, "config", "", "Path to the configuration file (default "+config.FileName+")")
	flag.IntVar(&options.MaxSteps, "max-steps", 0, "Maximum interpreter steps (0 = unlimited)")
	flag.IntVar(&options.MaxStack, "max-stack", 0, "Maximum operand stack slots and frames")

	flag.Parse()
	args := flag.Args()

	if options.Help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	cfg, err := config.Load(options.ConfigFile)
	if err != nil {
		logger.Init(options.Verbose, options.NoColor)
		log.Fatal("Invalid configuration", "error", err)
	}
	applyConfig(&options, cfg)

	logger.Init(options.Verbose, options.NoColor)
	if options.NoColor {
		color.EnableColor(false)
	}
	if cfg.Path != "" {
		log.Debug("Loaded configuration", "file", cfg.Path)
	}

	if options.Interactive {
		if err := options.Repl(); err != nil {
			log.Fatal("REPL failed", "error", err)
		}
		return
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}
	options.SourceFile = args[0]
	// a file argument alone means run it
	options.ShouldInterpret = true

	if err := options.Compile(); err != nil {
		log.Fatal("Evaluation failed", "error", err)
	}
}

// applyConfig fills every option not set on the command line from cfg
func applyConfig(options *compiler.Compiler, cfg *config.Config) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["v"] {
		options.Verbose = cfg.Verbose
	}
	if !set["n"] {
		options.NoColor = cfg.NoColor
	}
	if !set["max-steps"] {
		options.MaxSteps = cfg.MaxSteps
	}
	if !set["max-stack"] {
		options.MaxStack = cfg.MaxStack
	}
	options.SearchPaths = cfg.SearchPaths
	options.HistoryFile = cfg.HistoryFile
}
