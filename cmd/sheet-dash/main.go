package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"sheet-dash/internal/backend"
	"sheet-dash/internal/browse"
	configpkg "sheet-dash/internal/config"
	"sheet-dash/internal/dataset"
	"sheet-dash/internal/doctor"
	"sheet-dash/internal/export"
	"sheet-dash/internal/store"
	themepkg "sheet-dash/internal/theme"
	"sheet-dash/internal/tui"
	"sheet-dash/internal/version"
)

func main() {
	// A missing .env is normal; the environment and config file still apply.
	_ = godotenv.Load()
	ctx := context.Background()

	if len(os.Args) < 2 {
		if err := runApp(ctx); err != nil {
			fatal(err)
		}
		return
	}

	switch os.Args[1] {
	case "doctor":
		if err := runDoctor(ctx, os.Stdout); err != nil {
			fatal(err)
		}
	case "version":
		fmt.Println(version.Value)
	case "status":
		if err := withDeps(ctx, func(d deps) error { return runStatus(ctx, d, os.Stdout, os.Stderr) }); err != nil {
			fatal(err)
		}
	case "download":
		opts, err := parseDownloadArgs(os.Args[2:])
		if err != nil {
			fatal(err)
		}
		if err := withDeps(ctx, func(d deps) error { return runDownload(ctx, d, opts, os.Stdout, os.Stderr) }); err != nil {
			fatal(err)
		}
	case "theme":
		if err := runTheme(os.Args[2:], os.Stdout); err != nil {
			fatal(err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

// deps is everything a command needs to talk to the backend.
type deps struct {
	cfg     configpkg.Config
	client  backend.Client
	backend browse.Backend
	// reader is nil unless database.url is set.
	reader *store.OriginalReader
}

func (d deps) controller(logger *log.Logger) *browse.Controller {
	return browse.New(d.backend, browse.Options{
		Sheets:     d.cfg.DatasetSheets(),
		PageSize:   d.cfg.PageSize,
		MaxButtons: d.cfg.MaxPageButtons,
		Logger:     logger,
	})
}

func openDeps(ctx context.Context, cfg configpkg.Config) (deps, func(), error) {
	client, err := backend.NewClient(cfg.Backend.BaseURL, cfg.RequestTimeout())
	if err != nil {
		return deps{}, nil, err
	}
	d := deps{cfg: cfg, client: client}
	composite := backend.Composite{Client: client}
	closeFn := func() {}
	if cfg.Database.URL != "" {
		var db *sqlx.DB
		db, err = store.Open(ctx, cfg.Database.URL)
		if err != nil {
			return deps{}, nil, err
		}
		d.reader = store.NewOriginalReader(db, cfg.Database.BaseTable, cfg.DatasetSheets())
		composite.Persisted = d.reader
		closeFn = func() { _ = db.Close() }
	}
	d.backend = composite
	return d, closeFn, nil
}

func withDeps(ctx context.Context, fn func(deps) error) error {
	cfg, err := configpkg.LoadWithEnv()
	if err != nil {
		return err
	}
	d, closeFn, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(d)
}

func runApp(ctx context.Context) error {
	cfg, err := configpkg.LoadWithEnv()
	if err != nil {
		return err
	}
	logPath, err := cfg.ResolvedLogFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}
	logFile, err := tea.LogToFile(logPath, "sheet-dash")
	if err != nil {
		return err
	}
	defer logFile.Close()

	d, closeFn, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	downloadDir, err := cfg.ResolvedDownloadDir()
	if err != nil {
		return err
	}
	ctrl := d.controller(log.Default())
	return tui.RunApp(ctrl, tui.AppCallbacks{
		Version: version.Value,
		Theme:   resolveUITheme(cfg, log.Writer()),
		Download: func(ctx context.Context, sheet dataset.SheetID, view dataset.View, format string) (string, error) {
			dl, err := d.client.Download(ctx, sheet, view, format)
			if err != nil {
				return "", err
			}
			return export.SaveDownload(downloadDir, dl)
		},
		ExportPage: func(name string, page export.Page) (string, error) {
			path := filepath.Join(downloadDir, name)
			if err := export.WriteXLSX(path, page); err != nil {
				return "", err
			}
			return path, nil
		},
	})
}

func runDoctor(ctx context.Context, out io.Writer) error {
	cfg, err := configpkg.LoadWithEnv()
	if err != nil {
		return err
	}
	d, closeFn, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	var database doctor.Pinger
	if d.reader != nil {
		database = d.reader
	}
	if err := doctor.Check(ctx, d.client, database); err != nil {
		return err
	}
	fmt.Fprintf(out, "doctor: ok (%s)\n", d.client.BaseURL())
	return nil
}

func runStatus(ctx context.Context, d deps, out, errOut io.Writer) error {
	ctrl := d.controller(log.New(errOut, "", 0))
	res := ctrl.CheckStatus().Run(ctx)
	if _, err := ctrl.CompleteAction(res); err != nil {
		fmt.Fprintf(errOut, "warning: %v\n", err)
	}
	for _, s := range ctrl.Sheets() {
		st, _ := ctrl.Status(s.ID)
		if !st.Cleaned {
			fmt.Fprintf(out, "%s\t%s\tnot cleaned\n", s.ID, s.Title())
			continue
		}
		fmt.Fprintf(out, "%s\t%s\tcleaned\tincluded=%d excluded=%d\n", s.ID, s.Title(), st.Summary.IncludedCount, st.Summary.ExcludedCount)
	}
	return nil
}

type downloadOptions struct {
	sheet  dataset.SheetID
	view   dataset.View
	format string
	page   int
	out    string
}

func parseDownloadArgs(args []string) (downloadOptions, error) {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	sheet := fs.String("sheet", "", "Sheet key, e.g. sheet1")
	view := fs.String("view", string(dataset.ViewIncluded), "View: original, included, excluded, analytics")
	format := fs.String("format", "csv", "csv or pdf from the server, xlsx for one page exported locally")
	page := fs.Int("page", 1, "Page to export with --format xlsx")
	out := fs.String("out", "", "Output directory (default: download_dir)")
	if err := fs.Parse(args); err != nil {
		return downloadOptions{}, err
	}
	if strings.TrimSpace(*sheet) == "" {
		return downloadOptions{}, errors.New("--sheet is required")
	}
	v, err := dataset.ParseView(*view)
	if err != nil {
		return downloadOptions{}, err
	}
	opts := downloadOptions{
		sheet:  dataset.SheetID(strings.TrimSpace(*sheet)),
		view:   v,
		format: strings.ToLower(strings.TrimSpace(*format)),
		page:   *page,
		out:    strings.TrimSpace(*out),
	}
	switch opts.format {
	case "xlsx":
		if opts.page < 1 {
			return downloadOptions{}, fmt.Errorf("--page must be at least 1, got %d", opts.page)
		}
	case "csv", "pdf":
		if _, err := backend.DownloadName(opts.sheet, opts.view, opts.format); err != nil {
			return downloadOptions{}, err
		}
	default:
		return downloadOptions{}, fmt.Errorf("unsupported format %q", opts.format)
	}
	return opts, nil
}

func runDownload(ctx context.Context, d deps, opts downloadOptions, out, errOut io.Writer) error {
	if _, ok := findSheet(d.cfg, opts.sheet); !ok {
		return fmt.Errorf("unknown sheet %q", opts.sheet)
	}
	dir := opts.out
	if dir == "" {
		var err error
		if dir, err = d.cfg.ResolvedDownloadDir(); err != nil {
			return err
		}
	}
	if opts.format != "xlsx" {
		dl, err := d.client.Download(ctx, opts.sheet, opts.view, opts.format)
		if err != nil {
			return err
		}
		path, err := export.SaveDownload(dir, dl)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
		return nil
	}

	ctrl := d.controller(log.New(errOut, "", 0))
	if _, err := ctrl.CompleteAction(ctrl.CheckStatus().Run(ctx)); err != nil {
		fmt.Fprintf(errOut, "warning: %v\n", err)
	}
	if err := loadPage(ctx, ctrl, opts.sheet, opts.view, opts.page); err != nil {
		return err
	}
	snap := ctrl.Store().Snapshot(opts.sheet, opts.view)
	tbl := ctrl.Render(opts.sheet, opts.view)
	sheet, _ := ctrl.Sheet(opts.sheet)
	path := filepath.Join(dir, export.PageFileName(opts.sheet, opts.view, snap.CurrentPage))
	err := export.WriteXLSX(path, export.Page{
		Title:   sheet.Title() + " " + opts.view.Label(),
		Columns: tbl.Columns,
		Headers: tbl.Headers,
		Rows:    snap.Rows,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}

// loadPage fetches page 1 to learn the page count, then the requested page.
func loadPage(ctx context.Context, ctrl *browse.Controller, sheet dataset.SheetID, view dataset.View, page int) error {
	targets := []int{1}
	if page > 1 {
		targets = append(targets, page)
	}
	for _, target := range targets {
		job, err := ctrl.LoadPage(sheet, view, target)
		if err != nil {
			return err
		}
		res := job.Run(ctx)
		if ctrl.Complete(res) == browse.OutcomeFailed {
			return res.Err
		}
	}
	return nil
}

func findSheet(cfg configpkg.Config, id dataset.SheetID) (dataset.Sheet, bool) {
	for _, s := range cfg.DatasetSheets() {
		if s.ID == id {
			return s, true
		}
	}
	return dataset.Sheet{}, false
}

func usage() {
	fmt.Println("sheet-dash")
	fmt.Println("Runs interactive TUI when no command is provided.")
	fmt.Println("sheet-dash <command>")
	fmt.Println("Commands: status, download, theme, doctor, version")
}

func resolveUITheme(cfg configpkg.Config, w io.Writer) tui.UITheme {
	palette, _, err := themepkg.LoadActivePaletteHex(cfg)
	if err != nil {
		fmt.Fprintf(w, "warning: loading theme %q failed, using default: %v\n", cfg.Theme.Active, err)
		palette = themepkg.DefaultPaletteHex()
	}
	resolved := themepkg.ResolveForTerminal(palette, themepkg.DetectTrueColor())
	return tui.UIThemeFromResolved(resolved)
}

func runTheme(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("theme subcommand required: list, current, apply")
	}
	cfg, err := configpkg.Load()
	if err != nil {
		return err
	}
	switch args[0] {
	case "list":
		ids, err := themepkg.ListLocalThemeIDs()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "local themes (active: %s):\n", cfg.Theme.Active)
		fmt.Fprintln(out, "- default")
		for _, id := range ids {
			prefix := "-"
			if id == cfg.Theme.Active {
				prefix = "*"
			}
			fmt.Fprintf(out, "%s %s\n", prefix, id)
		}
		return nil
	case "current":
		_, id, err := themepkg.LoadActivePaletteHex(cfg)
		if err != nil {
			return fmt.Errorf("theme %q: %w", cfg.Theme.Active, err)
		}
		fmt.Fprintln(out, id)
		return nil
	case "apply":
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return errors.New("usage: sheet-dash theme apply <theme-id|default>")
		}
		next := cfg
		next.Theme.Active = strings.TrimSpace(args[1])
		if _, _, err := themepkg.LoadActivePaletteHex(next); err != nil {
			return fmt.Errorf("theme %q: %w", next.Theme.Active, err)
		}
		if err := configpkg.Save(next); err != nil {
			return err
		}
		fmt.Fprintf(out, "active theme: %s\n", next.Theme.Active)
		return nil
	default:
		return fmt.Errorf("unknown theme subcommand %q", args[0])
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
