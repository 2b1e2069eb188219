package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/harrisonrobin/taskline/pkg/auth"
	"github.com/harrisonrobin/taskline/pkg/config"
	"github.com/harrisonrobin/taskline/pkg/google"
	"github.com/harrisonrobin/taskline/pkg/index"
	"github.com/harrisonrobin/taskline/pkg/mirror"
	"github.com/harrisonrobin/taskline/pkg/orgmode"
	"github.com/harrisonrobin/taskline/pkg/overdue"
	"github.com/harrisonrobin/taskline/pkg/parser"
	"github.com/harrisonrobin/taskline/pkg/storage"
	"github.com/harrisonrobin/taskline/pkg/tasklist"
)

const (
	greeting = "Hello! I'm Taskline\nWhat can I do for you?"
	farewell = "Bye. Hope to see you again soon!"

	maxInputLine = 1 << 20
)

func main() {
	dataFile := flag.String("file", "", "Task file to use (overrides config)")
	calendarName := flag.String("calendar", "", "Google Calendar name to mirror into (overrides config)")
	setCalendar := flag.String("set-calendar", "", "Set the default Google Calendar name")
	doAuth := flag.Bool("auth", false, "Authenticate with Google Calendar")
	doSync := flag.Bool("sync", false, "Mirror deadlines and events into Google Calendar and exit")
	importOrg := flag.String("import", "", "Append TODO/DONE entries of an Org-mode file and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}
	if *calendarName != "" {
		cfg.Calendar = *calendarName
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	configDir, err := config.Dir()
	if err != nil {
		logger.Fatal("could not find configuration directory", zap.Error(err))
	}

	if *setCalendar != "" {
		cfg.Calendar = *setCalendar
		if err := config.Save(cfg); err != nil {
			logger.Fatal("error saving config", zap.Error(err))
		}
		fmt.Printf("Default calendar set to: %s\n", *setCalendar)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *doAuth {
		if err := auth.Reset(configDir); err != nil {
			logger.Fatal("could not reset token", zap.Error(err))
		}
		if _, err := auth.GetClient(ctx, configDir, auth.Scopes, logger); err != nil {
			logger.Fatal("authentication failed", zap.Error(err))
		}
		fmt.Println("Authentication successful!")
		return
	}

	store := storage.NewFile(cfg.DataFile)
	tasks, err := loadTasks(store, logger)
	if err != nil {
		logger.Fatal("could not load tasks", zap.String("path", cfg.DataFile), zap.Error(err))
	}

	switch {
	case *importOrg != "":
		if err := importTasks(*importOrg, tasks, store); err != nil {
			logger.Fatal("import failed", zap.String("path", *importOrg), zap.Error(err))
		}
		fmt.Printf("Now you have %d tasks in the list.\n", tasks.Size())
	case *doSync:
		if err := syncCalendar(ctx, configDir, cfg.Calendar, tasks, logger); err != nil {
			logger.Fatal("calendar sync failed", zap.Error(err))
		}
	default:
		if err := run(os.Stdin, os.Stdout, parser.New(tasks, store, logger)); err != nil {
			logger.Error("session ended early", zap.Error(err))
		}
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.WarnLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadTasks rebuilds the list from storage, skipping corrupt lines.
func loadTasks(store *storage.File, logger *zap.Logger) (*tasklist.List, error) {
	lines, err := store.LoadAll()
	if err != nil {
		return nil, err
	}
	tasks, skipped := tasklist.Decode(lines)
	for _, err := range skipped {
		logger.Warn("skipping corrupt task record", zap.Error(err))
	}
	return tasks, nil
}

// run is the read-eval-print loop. It stops at bye, end of input, or an
// unreadable line, and says farewell in every case.
func run(in io.Reader, out io.Writer, p *parser.Parser) error {
	fmt.Fprintln(out, greeting)
	defer fmt.Fprintln(out, farewell)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)
	for scanner.Scan() {
		line := scanner.Text()
		if p.IsExit(line) {
			break
		}
		for _, reply := range p.Handle(line) {
			fmt.Fprintln(out, reply)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(out, "OOPS!!! I could not read that input.")
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func importTasks(path string, tasks *tasklist.List, store *storage.File) error {
	imported, err := orgmode.ParseFile(path)
	if err != nil {
		return err
	}
	for _, task := range imported {
		tasks.Add(task)
	}
	return store.RewriteAll(tasks.Lines())
}

func syncCalendar(ctx context.Context, configDir, calendarName string, tasks *tasklist.List, logger *zap.Logger) error {
	idx, err := index.NewEventIndex(configDir)
	if err != nil {
		return fmt.Errorf("failed to load event index: %w", err)
	}
	table, err := overdue.NewTable(configDir)
	if err != nil {
		return fmt.Errorf("failed to load overdue table: %w", err)
	}
	client, err := google.NewClient(ctx, configDir, calendarName, idx, logger)
	if err != nil {
		return err
	}

	report, err := mirror.New(client, idx, table, logger).Run(ctx, tasks.All(), time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Synced %d tasks to %q, removed %d events, %d failed.\n", report.Synced, calendarName, report.Deleted, report.Failed)
	for _, e := range report.Overdue {
		fmt.Printf("Overdue since last sync: %s (%s)\n", e.Summary, e.At.Format("Jan 02 2006 1504"))
	}
	return nil
}
