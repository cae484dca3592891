package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"docintel/constants"
	"docintel/internal/export"
	"docintel/internal/ingest"
	"docintel/internal/workflow"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		serverURL = flag.String("server", "http://localhost:8000", "analysis gateway base URL")
		dir       = flag.String("dir", "", "directory of PDFs to analyze (in addition to file arguments)")
		out       = flag.String("out", "report.html", "output HTML report path")
		xlsxOut   = flag.String("xlsx", "", "also write an XLSX workbook to this path")
		watch     = flag.Bool("watch", false, "keep watching --dir and submit new PDFs as they appear")
		interval  = flag.Duration("interval", time.Second, "polling interval")
		attempts  = flag.Int("attempts", 300, "maximum polling attempts per job")
		verbose   = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *dir == "" && flag.NArg() == 0 {
		printError("Error: pass PDF files as arguments or set --dir\n")
		os.Exit(1)
	}
	if *watch && *dir == "" {
		printError("Error: --watch requires --dir\n")
		os.Exit(1)
	}

	// Setup logger
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := context.Background()
	poll := workflow.PollConfig{Interval: *interval, MaxAttempts: *attempts}
	client := workflow.NewClient(*serverURL, &http.Client{Timeout: 2 * time.Minute}, logger)

	if *watch {
		runWatch(ctx, client, *dir, poll, logger)
		return
	}

	paths, err := collectPaths(flag.Args(), *dir)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		printError("Error: no PDF files found\n")
		os.Exit(1)
	}

	if err := runBatch(ctx, client, poll, paths, *out, *xlsxOut); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

// collectPaths merges explicit file arguments with the PDFs found under dir.
func collectPaths(args []string, dir string) ([]string, error) {
	paths := append([]string(nil), args...)
	if dir != "" {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !d.IsDir() && constants.AllowedFilename(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func runBatch(ctx context.Context, client *workflow.Client, poll workflow.PollConfig, paths []string, out, xlsxOut string) error {
	files := make([]workflow.StagedFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, workflow.StagedFile{
			Name:        filepath.Base(path),
			Size:        int64(len(data)),
			ContentType: constants.ContentTypePDF,
			Data:        data,
		})
	}

	ctrl := workflow.NewController(client, poll, slog.Default())
	ctrl.OnProgress = printProgress

	if err := ctrl.Dispatch(ctx, workflow.Action{Command: workflow.CmdAddFiles, Files: files}); err != nil {
		return err
	}
	staged := ctrl.View().Files
	fmt.Printf("Submitting %d file(s)...\n", len(staged))

	if err := ctrl.Dispatch(ctx, workflow.Action{Command: workflow.CmdSubmit}); err != nil {
		return err
	}

	page, err := workflow.RenderReportPage(ctrl.Results())
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(page), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("Report written to %s\n", out)

	if xlsxOut != "" {
		data, err := export.ResultsXLSX(ctrl.Results())
		if err != nil {
			return fmt.Errorf("build workbook: %w", err)
		}
		if err := os.WriteFile(xlsxOut, data, 0o644); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		fmt.Printf("Workbook written to %s\n", xlsxOut)
	}
	return nil
}

var lastLines int

// printProgress redraws the per-file status block on every poll.
func printProgress(p workflow.Progress) {
	for i := 0; i < lastLines; i++ {
		fmt.Print("\033[1A\033[2K")
	}
	for _, f := range p.Files {
		fmt.Printf("%s %s - %s\n", f.Icon, f.Filename, f.Message)
	}
	fmt.Printf("Overall: %d%%\n", int(p.Overall*100))
	lastLines = len(p.Files) + 1
}

func runWatch(ctx context.Context, client *workflow.Client, dir string, poll workflow.PollConfig, logger *slog.Logger) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	paths, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
		Root:        dir,
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	go func() {
		for err := range errs {
			printError("watch error: %v\n", err)
		}
	}()

	hot := ingest.NewHotFolder(client, ingest.HotFolderConfig{
		ReportDir: dir,
		Poll:      poll,
	}, logger)
	fmt.Printf("Watching %s for PDFs...\n", dir)
	if err := hot.Run(ctx, paths); err != nil && ctx.Err() == nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}
