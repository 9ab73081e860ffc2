package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cfnplot/cfnplot/internal/config"
	"github.com/cfnplot/cfnplot/internal/core/chart"
	"github.com/cfnplot/cfnplot/internal/core/event"
	"github.com/cfnplot/cfnplot/internal/core/interval"
	"github.com/cfnplot/cfnplot/internal/core/timeline"
	"github.com/cfnplot/cfnplot/internal/data/fetcher"
	"github.com/cfnplot/cfnplot/internal/data/parser"
	"github.com/cfnplot/cfnplot/internal/data/watcher"
	"github.com/cfnplot/cfnplot/internal/presentation/display"
	"github.com/cfnplot/cfnplot/internal/presentation/formatter"
	"github.com/cfnplot/cfnplot/internal/util"
)

var (
	// Input selection
	stackName string
	inputFile string

	// AWS access
	region  string
	profile string
	nested  bool

	// Output related
	outputFormat string
	outputFile   string
	timezone     string
	dumpFile     string

	// Layout
	cutoffStr string

	// System and debugging
	configFile string
	watchMode  bool
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "cfnplot [flags]",
		Short: "CloudFormation deployment waterfall charts",
		Long: `cfnplot turns the status-change events of a CloudFormation stack deployment
into a horizontal waterfall chart, so you can see which resources took long
and where the deployment serialized.

Events come either from the CloudFormation API (--stack) or from a JSONL
dump of a previous fetch (--input).

Examples:
  cfnplot --stack my-stack                          # Fetch and chart a stack
  cfnplot --stack my-stack --region eu-west-1       # Explicit region
  cfnplot --stack my-stack --nested                 # Include nested stacks
  cfnplot --stack my-stack --dump events.jsonl      # Save events for later
  cfnplot --input events.jsonl --output html        # Offline, HTML chart
  cfnplot --input events.jsonl --watch              # Re-render on file change
  cfnplot --input events.jsonl --cutoff now         # Extent for open intervals`,
		RunE: runPlot,
	}
)

const (
	defaultLogFile    = "~/.cfnplot/logs/app.log"
	defaultConfigFile = "~/.cfnplot/config.yaml"
)

func init() {
	// Input selection
	rootCmd.Flags().StringVarP(&stackName, "stack", "s", "",
		"CloudFormation stack name or id to fetch events for")
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "",
		"JSONL event dump to chart instead of fetching")

	// AWS access
	rootCmd.Flags().StringVar(&region, "region", "",
		"AWS region (defaults to config file, then the SDK chain)")
	rootCmd.Flags().StringVar(&profile, "profile", "",
		"AWS shared config profile")
	rootCmd.Flags().BoolVar(&nested, "nested", false,
		"Recursively include nested stack events")

	// Output configuration
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "",
		"Output format (table, json, csv, html, summary)")
	rootCmd.Flags().StringVar(&outputFile, "output-file", "",
		"Write output to a file instead of stdout")
	rootCmd.Flags().StringVar(&timezone, "timezone", "Local",
		"Timezone for displayed instants (e.g., UTC, Europe/London)")
	rootCmd.Flags().StringVar(&dumpFile, "dump", "",
		"Also write fetched raw events to a JSONL file")

	// Layout
	rootCmd.Flags().StringVar(&cutoffStr, "cutoff", "",
		"Observation cutoff for unresolved intervals (RFC3339, or 'now')")

	// System and debugging
	rootCmd.Flags().StringVar(&configFile, "config", defaultConfigFile,
		"Configuration file path")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false,
		"Re-render when the --input file changes")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func runPlot(cmd *cobra.Command, args []string) error {
	if stackName == "" && inputFile == "" {
		return fmt.Errorf("either --stack or --input is required")
	}
	if stackName != "" && inputFile != "" {
		return fmt.Errorf("--stack and --input are mutually exclusive")
	}
	if watchMode && inputFile == "" {
		return fmt.Errorf("--watch requires --input")
	}

	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		logFile = ""
	}
	util.InitLogger(logLevel, logFile, debug)
	if err := util.InitializeTimeProvider(timezone); err != nil {
		return err
	}

	cfg, err := config.Load(expandPath(configFile))
	if err != nil {
		return err
	}
	if region == "" {
		region = cfg.Region
	}
	if profile == "" {
		profile = cfg.Profile
	}
	if outputFormat == "" {
		outputFormat = cfg.Output
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	events, title, err := loadEvents(ctx)
	if err != nil {
		return err
	}
	if dumpFile != "" && stackName != "" {
		if err := parser.WriteFile(expandPath(dumpFile), events); err != nil {
			return fmt.Errorf("write event dump: %w", err)
		}
		util.LogInfof("Wrote %d raw events to %s", len(events), dumpFile)
	}

	if err := render(events, title, cfg); err != nil {
		return err
	}
	if !watchMode {
		return nil
	}
	return watchLoop(ctx, title, cfg)
}

// loadEvents fetches from CloudFormation or reads the dump, depending on
// flags. Returns the events and a chart title.
func loadEvents(ctx context.Context) ([]event.RawEvent, string, error) {
	if inputFile != "" {
		events, err := parser.ReadFile(expandPath(inputFile))
		if err != nil {
			return nil, "", err
		}
		return events, filepath.Base(inputFile), nil
	}

	f, err := fetcher.New(ctx, fetcher.Options{
		Region:  region,
		Profile: profile,
		Nested:  nested,
	})
	if err != nil {
		return nil, "", err
	}
	events, err := f.StackEvents(ctx, stackName)
	if err != nil {
		return nil, "", err
	}
	return events, stackName, nil
}

// render runs the full pipeline on one batch of raw events.
func render(raw []event.RawEvent, title string, cfg config.Config) error {
	cutoff, err := resolveCutoff(cutoffStr)
	if err != nil {
		return err
	}

	normalized, err := event.Normalize(raw)
	if err != nil {
		return err
	}
	byResource := interval.Build(normalized)
	tl, err := timeline.Assemble(byResource, timeline.Options{Cutoff: cutoff})
	if err != nil {
		return err
	}
	descriptor := chart.Describe(tl)
	descriptor.Title = title

	toStdout := outputFile == ""
	out := os.Stdout
	if !toStdout {
		f, err := os.Create(expandPath(outputFile))
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	fm, err := formatter.New(outputFormat, formatter.Options{
		Width:      display.Width(),
		Color:      toStdout && display.IsTTY(),
		Appearance: cfg,
	})
	if err != nil {
		return err
	}
	return fm.Format(out, descriptor)
}

func watchLoop(ctx context.Context, title string, cfg config.Config) error {
	fw, err := watcher.New(expandPath(inputFile))
	if err != nil {
		return err
	}
	defer fw.Close()
	util.LogInfof("Watching %s for changes", inputFile)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-fw.Events():
			events, err := parser.ReadFile(expandPath(inputFile))
			if err != nil {
				util.LogErrorf("Reload failed: %v", err)
				continue
			}
			if err := render(events, title, cfg); err != nil {
				util.LogErrorf("Render failed: %v", err)
			}
		}
	}
}

// resolveCutoff parses the --cutoff flag. "now" is resolved here, in the
// command layer; the layout engine itself never reads the wall clock.
func resolveCutoff(s string) (*time.Time, error) {
	switch s {
	case "":
		return nil, nil
	case "now":
		t := time.Now()
		return &t, nil
	default:
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid --cutoff %q: expected RFC3339 or 'now'", s)
		}
		return &t, nil
	}
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
