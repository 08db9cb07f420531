package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/JonMunkholm/qualityfeed/internal/config"
	"github.com/JonMunkholm/qualityfeed/internal/core"
	_ "github.com/JonMunkholm/qualityfeed/internal/core/feeds"
	"github.com/JonMunkholm/qualityfeed/internal/logging"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every command.
type options struct {
	feed       string
	status     string
	limitsFile string
	legacy     bool
	asJSON     bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "qualityctl",
		Short:         "Classify terminal quality feeds",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.feed, "feed", "unit", "feed definition used to read the file")
	pf.StringVar(&opts.status, "status", string(core.FilterAll), "status filter: all, approved, apurado, rejected")
	pf.StringVar(&opts.limitsFile, "limits", os.Getenv("LIMITS_FILE"), "YAML limit set (default: contractual limits)")
	pf.BoolVar(&opts.legacy, "legacy-release", true, "treat authorized units without previous values as released")
	pf.BoolVar(&opts.asJSON, "json", false, "write JSON instead of a table")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level on stderr")

	root.AddCommand(
		newClassifyCmd(opts),
		newSummaryCmd(opts),
		newAveragesCmd(opts),
		newIndexCmd(),
	)
	return root
}

// engine builds the classification engine from the flags.
func (o *options) engine() (*core.Engine, error) {
	limits, err := config.LoadLimits(o.limitsFile)
	if err != nil {
		return nil, err
	}
	return core.NewEngine(limits,
		core.ReconcilerOptions{LegacyImplicitRelease: o.legacy},
		core.DefaultCalendar(),
	), nil
}

// classifyFile parses and classifies one file with the selected feed.
func (o *options) classifyFile(path string) (*core.Engine, *core.FeedResult, []core.ClassifiedUnit, error) {
	def, ok := core.Feed(o.feed)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %q (known: %s)", core.ErrUnknownFeed, o.feed, strings.Join(feedKeys(), ", "))
	}
	engine, err := o.engine()
	if err != nil {
		return nil, nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	res, err := core.ParseFeed(f, def)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, sk := range res.Skipped {
		slog.Warn("row skipped", "file", path, "line", sk.Line, "reason", sk.Reason)
	}

	units := engine.ClassifyAll(res.Units)
	units = engine.Aggregator.Filter(units, core.ParseStatusFilter(o.status))
	return engine, res, units, nil
}

func feedKeys() []string {
	var keys []string
	for _, def := range core.Feeds() {
		keys = append(keys, def.Key)
	}
	return keys
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
