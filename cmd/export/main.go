package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/jomei/notionapi"

	"tg_export/internal/config"
	"tg_export/internal/filter"
	"tg_export/internal/pipeline"
	"tg_export/internal/sink"
	"tg_export/internal/source"
)

const previewLines = 20

type cliArgs struct {
	word     string
	hashtags listFlag
	types    listFlag
	days     int
	after    string
	before   string
	hasURL   bool
	hasMedia bool
	noMedia  bool
	limit    int
	skip     int
	saves    listFlag
	notion   bool
	dryRun   bool
	yes      bool
	verbose  bool
}

// listFlag collects repeated or comma-separated flag values.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

func parseFlags() *cliArgs {
	var args cliArgs
	flag.StringVar(&args.word, "word", "", "filter by word/phrase (case-insensitive regex, | for OR)")
	flag.StringVar(&args.word, "w", "", "shorthand for -word")
	flag.Var(&args.hashtags, "hashtag", "filter by hashtag (repeatable, # optional)")
	flag.Var(&args.hashtags, "t", "shorthand for -hashtag")
	flag.Var(&args.types, "type", "filter by message type (repeatable): Text, Photo, Video, Document, Audio, Voice, GIF, Sticker, Poll, Location, Contact, Other")
	flag.IntVar(&args.days, "days", 0, "only messages from the last N days")
	flag.StringVar(&args.after, "after", "", "only messages on or after date (YYYY-MM-DD)")
	flag.StringVar(&args.before, "before", "", "only messages before date (YYYY-MM-DD)")
	flag.BoolVar(&args.hasURL, "has-url", false, "only messages containing URLs")
	flag.BoolVar(&args.hasMedia, "has-media", false, "only messages with media")
	flag.BoolVar(&args.noMedia, "no-media", false, "only text messages without media")
	flag.IntVar(&args.limit, "limit", 0, "maximum number of matched messages to export (0 = unbounded)")
	flag.IntVar(&args.limit, "l", 0, "shorthand for -limit")
	flag.IntVar(&args.skip, "skip", 0, "skip the first N matched messages")
	flag.Var(&args.saves, "save", "save matched messages to a file; format by extension (.json, .csv, .md, .txt, .db); repeatable")
	flag.Var(&args.saves, "s", "shorthand for -save")
	flag.BoolVar(&args.notion, "notion", false, "export to the configured Notion database")
	flag.BoolVar(&args.dryRun, "dry-run", false, "preview matched messages without exporting")
	flag.BoolVar(&args.yes, "yes", false, "skip the confirmation prompt")
	flag.BoolVar(&args.yes, "y", false, "shorthand for -yes")
	flag.BoolVar(&args.verbose, "verbose", false, "detailed per-message output")
	flag.BoolVar(&args.verbose, "v", false, "shorthand for -verbose")
	flag.Parse()
	return &args
}

func main() {
	args := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if args.verbose {
		level = "debug"
	}
	log := newLogger(level)

	spec, bounds, err := buildRun(args)
	if err != nil {
		log.Error("invalid arguments", "error", err)
		os.Exit(1)
	}

	sinks, err := buildSinks(args, cfg)
	if err != nil {
		log.Error("invalid targets", "error", err)
		os.Exit(1)
	}

	printBanner(spec, args, sinks)

	if !args.dryRun && !args.yes {
		if !confirm(sinks) {
			fmt.Println("Export cancelled.")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := telegram.NewClient(cfg.TelegramAPIID, cfg.TelegramAPIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionFile},
	})

	var res *pipeline.Result
	runErr := client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("check auth status: %w", err)
		}
		if !status.Authorized {
			return fmt.Errorf("session %s is not authorized; log in first", cfg.SessionFile)
		}
		log.Info("connected to Telegram")

		src := source.NewTelegram(client.API())
		p, err := pipeline.New(src, spec, bounds, sinks, pipeline.Options{DryRun: args.dryRun}, log)
		if err != nil {
			return err
		}
		res, err = p.Run(ctx)
		return err
	})

	if res != nil {
		printSummary(res, args)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("run failed", "error", runErr)
		os.Exit(1)
	}
}

// buildRun turns CLI arguments into a compiled filter and pagination bounds.
func buildRun(args *cliArgs) (*filter.Spec, pipeline.Bounds, error) {
	spec, err := filter.New(filter.Options{
		Word:     args.word,
		Hashtags: args.hashtags,
		Types:    args.types,
		HasURL:   args.hasURL,
		HasMedia: args.hasMedia,
		NoMedia:  args.noMedia,
	})
	if err != nil {
		return nil, pipeline.Bounds{}, err
	}

	bounds := pipeline.Bounds{Skip: args.skip, Limit: args.limit}
	if args.after != "" {
		t, err := time.Parse("2006-01-02", args.after)
		if err != nil {
			return nil, pipeline.Bounds{}, fmt.Errorf("invalid -after date %q: %w", args.after, err)
		}
		bounds.After = t
	}
	if args.before != "" {
		t, err := time.Parse("2006-01-02", args.before)
		if err != nil {
			return nil, pipeline.Bounds{}, fmt.Errorf("invalid -before date %q: %w", args.before, err)
		}
		bounds.Before = t
	}
	if args.days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -args.days)
		// With both -days and -after, the later cutoff applies.
		if cutoff.After(bounds.After) {
			bounds.After = cutoff
		}
	}
	if err := bounds.Validate(); err != nil {
		return nil, pipeline.Bounds{}, err
	}
	return spec, bounds, nil
}

func buildSinks(args *cliArgs, cfg *config.Config) ([]sink.Sink, error) {
	var sinks []sink.Sink
	for _, path := range args.saves {
		sinks = append(sinks, sink.NewFile(path))
	}
	if args.notion {
		if !cfg.HasNotion() {
			return nil, fmt.Errorf("-notion requires NOTION_TOKEN and NOTION_DATABASE_ID")
		}
		client := notionapi.NewClient(notionapi.Token(cfg.NotionToken))
		sinks = append(sinks, sink.NewNotion(client, cfg.NotionDatabaseID))
	}
	if len(sinks) == 0 && !args.dryRun {
		return nil, fmt.Errorf("no export targets: pass -notion, -save, or -dry-run")
	}
	return sinks, nil
}

func printBanner(spec *filter.Spec, args *cliArgs, sinks []sink.Sink) {
	fmt.Println("Telegram Saved Messages Export")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Filters: %s\n", spec.Describe())
	if args.skip > 0 {
		fmt.Printf("Skip: %d\n", args.skip)
	}
	if args.limit > 0 {
		fmt.Printf("Limit: %d\n", args.limit)
	}
	if args.dryRun {
		fmt.Println("DRY RUN - no changes will be made")
	} else {
		names := make([]string, 0, len(sinks))
		for _, s := range sinks {
			names = append(names, s.Name())
		}
		fmt.Printf("Targets: %s\n", strings.Join(names, ", "))
	}
	fmt.Println(strings.Repeat("=", 60))
}

func confirm(sinks []sink.Sink) bool {
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	fmt.Printf("Export matched messages to %s? (y/n): ", strings.Join(names, ", "))
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

func printSummary(res *pipeline.Result, args *cliArgs) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Scanned: %d | Matched: %d\n", res.Fetched, res.Matched)

	if args.dryRun {
		for i, msg := range res.Preview {
			if i >= previewLines {
				fmt.Printf("\n   ... and %d more messages\n", len(res.Preview)-previewLines)
				break
			}
			fmt.Printf("\n%d. [%s] %s\n   %s\n", i+1, msg.Kind,
				msg.Timestamp.Format("2006-01-02 15:04"), msg.Preview())
		}
		fmt.Printf("\nDry run complete. %d messages would be exported.\n", res.Matched)
		return
	}

	names := make([]string, 0, len(res.Targets))
	for name := range res.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		stats := res.Targets[name]
		fmt.Printf("  %s: written %d, skipped %d, failed %d\n", name, stats.Written, stats.Skipped, stats.Failed)
		if ids := res.FailedIDs(name); len(ids) > 0 {
			fmt.Printf("    failed message IDs: %v\n", ids)
		}
	}
	fmt.Printf("Run state: %s\n", res.State)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
