package config

import (
	"github.com/urfave/cli/v2"
)

// Flag names shared by the commands.
const (
	FlagConfig        = "config"
	FlagInterpreter   = "interpreter"
	FlagQuicktest     = "quicktest"
	FlagRandomtest    = "randomtest"
	FlagChoicescript  = "choicescript"
	FlagScenes        = "scenes"
	FlagImages        = "images"
	FlagWorkspace     = "workspace"
	FlagIterations    = "iterations"
	FlagSeed          = "seed"
	FlagShowFullText  = "show-full-text"
	FlagAvoidUsed     = "avoid-used-options"
	FlagShowChoices   = "show-choices"
	FlagShowCoverage  = "show-coverage"
	FlagDocument      = "document"
	FlagUniqueDoc     = "unique-document"
	FlagOpenCommand   = "open"
	FlagLogFormat     = "log-format"
	FlagLogLevel      = "log-level"
	FlagVerbose       = "verbose"
	FlagMetrics       = "metrics"
	FlagMetricsFile   = "metrics-file"
	FlagPrintCmd      = "print-cmd"
	FlagSkipPreflight = "skip-preflight"
)

// Flags returns the global flags. Values given on the command line override
// the config file; defaults shown here are informational only.
func Flags() []cli.Flag {
	d := DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{Name: FlagConfig, Aliases: []string{"c"}, Usage: "Path to YAML config file", Value: DefaultFile},

		// Project layout
		&cli.StringFlag{Name: FlagInterpreter, Usage: `Interpreter for the test scripts ("" runs them directly)`, Value: d.Interpreter},
		&cli.StringFlag{Name: FlagQuicktest, Usage: "Path to the quicktest script", Value: d.QuicktestPath},
		&cli.StringFlag{Name: FlagRandomtest, Usage: "Path to the randomtest script", Value: d.RandomtestPath},
		&cli.StringFlag{Name: FlagChoicescript, Usage: "Path to the ChoiceScript module", Value: d.ChoicescriptPath},
		&cli.StringFlag{Name: FlagScenes, Usage: "Path to the scene files", Value: d.ScenesPath},
		&cli.StringFlag{Name: FlagImages, Usage: "Path to the image files", Value: d.ImagesPath},
		&cli.StringFlag{Name: FlagWorkspace, Usage: `Workspace root for saved documents and state ("" disables saving)`, Value: d.WorkspaceRoot},

		// Randomtest
		&cli.Uint64Flag{Name: FlagIterations, Usage: "Randomtest iterations", Value: d.Randomtest.Iterations},
		&cli.Uint64Flag{Name: FlagSeed, Usage: "Randomtest seed", Value: d.Randomtest.Seed},
		&cli.BoolFlag{Name: FlagShowFullText, Usage: "Show full text of each playthrough"},
		&cli.BoolFlag{Name: FlagAvoidUsed, Usage: "Avoid options already chosen", Value: d.Randomtest.AvoidUsedOptions},
		&cli.BoolFlag{Name: FlagShowChoices, Usage: "Show choices made", Value: d.Randomtest.ShowChoices},
		&cli.BoolFlag{Name: FlagShowCoverage, Usage: "Show line coverage", Value: d.Randomtest.ShowCoverage},
		&cli.StringFlag{Name: FlagDocument, Usage: `Put randomtest results in a document: "always", "fulltext" or "never"`, Value: d.Randomtest.PutResultsInDocument},
		&cli.BoolFlag{Name: FlagUniqueDoc, Usage: "Use a new document for each randomtest run"},
		&cli.StringFlag{Name: FlagOpenCommand, Usage: `Command used to open saved documents ("" prints the path)`},

		// Observability
		&cli.StringFlag{Name: FlagLogFormat, Usage: `Log format: "json" or "text"`, Value: d.LogFormat},
		&cli.StringFlag{Name: FlagLogLevel, Usage: "Log level: debug, info, warn, error", Value: d.LogLevel},
		&cli.BoolFlag{Name: FlagVerbose, Aliases: []string{"v"}, Usage: "Verbose logging"},
		&cli.StringFlag{Name: FlagMetrics, Usage: `Prometheus metrics address ("" disables)`},
		&cli.StringFlag{Name: FlagMetricsFile, Usage: "Write metrics in text format to this file at exit"},

		// Diagnostics
		&cli.BoolFlag{Name: FlagPrintCmd, Usage: "Print the test command and exit"},
		&cli.BoolFlag{Name: FlagSkipPreflight, Usage: "Skip preflight checks"},
	}
}

// FromContext loads the config file named by --config and applies every
// flag that was set explicitly.
func FromContext(c *cli.Context) (*Config, error) {
	cfg, err := Load(c.String(FlagConfig))
	if err != nil {
		return nil, err
	}
	Apply(c, cfg)
	return cfg, nil
}

// Apply overrides cfg with the flags set on the command line.
func Apply(c *cli.Context, cfg *Config) {
	setString(c, FlagInterpreter, &cfg.Interpreter)
	setString(c, FlagQuicktest, &cfg.QuicktestPath)
	setString(c, FlagRandomtest, &cfg.RandomtestPath)
	setString(c, FlagChoicescript, &cfg.ChoicescriptPath)
	setString(c, FlagScenes, &cfg.ScenesPath)
	setString(c, FlagImages, &cfg.ImagesPath)
	setString(c, FlagWorkspace, &cfg.WorkspaceRoot)

	r := &cfg.Randomtest
	if c.IsSet(FlagIterations) {
		r.Iterations = c.Uint64(FlagIterations)
	}
	if c.IsSet(FlagSeed) {
		r.Seed = c.Uint64(FlagSeed)
	}
	setBool(c, FlagShowFullText, &r.ShowFullText)
	setBool(c, FlagAvoidUsed, &r.AvoidUsedOptions)
	setBool(c, FlagShowChoices, &r.ShowChoices)
	setBool(c, FlagShowCoverage, &r.ShowCoverage)
	setString(c, FlagDocument, &r.PutResultsInDocument)
	setBool(c, FlagUniqueDoc, &r.PutResultsInUniqueDocument)
	setString(c, FlagOpenCommand, &cfg.OpenCommand)

	setString(c, FlagLogFormat, &cfg.LogFormat)
	setString(c, FlagLogLevel, &cfg.LogLevel)
	setBool(c, FlagVerbose, &cfg.Verbose)
	setString(c, FlagMetrics, &cfg.MetricsAddr)
	setString(c, FlagMetricsFile, &cfg.MetricsFile)

	setBool(c, FlagPrintCmd, &cfg.PrintCmd)
	setBool(c, FlagSkipPreflight, &cfg.SkipPreflight)
}

func setString(c *cli.Context, name string, dst *string) {
	if c.IsSet(name) {
		*dst = c.String(name)
	}
}

func setBool(c *cli.Context, name string, dst *bool) {
	if c.IsSet(name) {
		*dst = c.Bool(name)
	}
}
