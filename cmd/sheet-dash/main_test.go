package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	configpkg "sheet-dash/internal/config"
	"sheet-dash/internal/dataset"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/check_existing_data/{sheet}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "sheet") != "sheet1" {
			writeJSON(w, map[string]any{"exists": false})
			return
		}
		writeJSON(w, map[string]any{"exists": true, "included_count": 150, "excluded_count": 10})
	})
	r.Get("/api/check_original/{sheet}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"exists": false})
	})
	r.Get("/api/get_cleaned_data/{sheet}", func(w http.ResponseWriter, req *http.Request) {
		rows := []map[string]any{}
		start := 0
		if req.URL.Query().Get("page") == "2" {
			start = 100
		}
		for i := start; i < start+100 && i < 150; i++ {
			rows = append(rows, map[string]any{"row_id": i + 1, "name": "n"})
		}
		writeJSON(w, map[string]any{"included_data": rows, "total_included": 150})
	})
	r.Get("/api/download/included_csv/{sheet}", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="included_data_sheet1.csv"`)
		_, _ = w.Write([]byte("row_id,name\n1,n\n"))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func testDeps(t *testing.T, baseURL string) deps {
	t.Helper()
	cfg := configpkg.Default()
	cfg.Backend.BaseURL = baseURL
	d, closeFn, err := openDeps(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open deps: %v", err)
	}
	t.Cleanup(closeFn)
	return d
}

func TestParseDownloadArgs(t *testing.T) {
	opts, err := parseDownloadArgs([]string{"--sheet", "sheet1", "--view", "Excluded", "--format", "PDF"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.sheet != "sheet1" || opts.view != dataset.ViewExcluded || opts.format != "pdf" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := parseDownloadArgs([]string{"--view", "included"}); err == nil {
		t.Fatalf("expected missing sheet error")
	}
	if _, err := parseDownloadArgs([]string{"--sheet", "sheet1", "--view", "original", "--format", "csv"}); err == nil {
		t.Fatalf("original view has no server download")
	}
	if _, err := parseDownloadArgs([]string{"--sheet", "sheet1", "--view", "original", "--format", "xlsx"}); err != nil {
		t.Fatalf("xlsx export of original should parse: %v", err)
	}
	if _, err := parseDownloadArgs([]string{"--sheet", "sheet1", "--format", "xlsx", "--page", "0"}); err == nil {
		t.Fatalf("expected page error")
	}
}

func TestRunStatus(t *testing.T) {
	srv := testServer(t)
	var out, errOut bytes.Buffer
	if err := runStatus(context.Background(), testDeps(t, srv.URL), &out, &errOut); err != nil {
		t.Fatalf("status: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "sheet1\t01_jan (January Data)\tcleaned\tincluded=150 excluded=10") {
		t.Fatalf("unexpected sheet1 line:\n%s", got)
	}
	if !strings.Contains(got, "sheet2\t04_apr (April Data)\tnot cleaned") {
		t.Fatalf("unexpected sheet2 line:\n%s", got)
	}
}

func TestRunDownloadCSV(t *testing.T) {
	srv := testServer(t)
	dir := t.TempDir()
	var out bytes.Buffer
	opts := downloadOptions{sheet: "sheet1", view: dataset.ViewIncluded, format: "csv", out: dir}
	if err := runDownload(context.Background(), testDeps(t, srv.URL), opts, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("download: %v", err)
	}
	path := filepath.Join(dir, "included_data_sheet1.csv")
	if strings.TrimSpace(out.String()) != path {
		t.Fatalf("unexpected output %q", out.String())
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "row_id,name\n1,n\n" {
		t.Fatalf("unexpected file %q: %v", string(b), err)
	}

	opts.sheet = "sheet9"
	if err := runDownload(context.Background(), testDeps(t, srv.URL), opts, &out, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected unknown sheet error")
	}
}

func TestRunDownloadXLSXPage(t *testing.T) {
	srv := testServer(t)
	dir := t.TempDir()
	var out bytes.Buffer
	opts := downloadOptions{sheet: "sheet1", view: dataset.ViewIncluded, format: "xlsx", page: 2, out: dir}
	if err := runDownload(context.Background(), testDeps(t, srv.URL), opts, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	path := filepath.Join(dir, "included_page2_sheet1.xlsx")
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetList()[0])
	if err != nil {
		t.Fatal(err)
	}
	// header plus rows 101..150
	if len(rows) != 51 || rows[1][0] != "101" {
		t.Fatalf("unexpected rows: %d first=%v", len(rows), rows[1])
	}
}

func TestRunThemeApply(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	var out bytes.Buffer
	if err := runTheme([]string{"apply", "missing"}, &out); err == nil {
		t.Fatalf("expected error for uninstalled theme")
	}
	if err := runTheme([]string{"apply", "default"}, &out); err != nil {
		t.Fatalf("apply default: %v", err)
	}
	out.Reset()
	if err := runTheme([]string{"list"}, &out); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "active: default") {
		t.Fatalf("unexpected list output:\n%s", out.String())
	}
}
