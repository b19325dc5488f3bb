package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"sheet-dash/internal/dataset"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"
)

// Client talks to the dashboard server over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	sessionID string
}

// NewClient builds a client for baseURL. A zero timeout means requests never time out.
func NewClient(baseURL string, timeout time.Duration) (Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return Client{}, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Client{}, fmt.Errorf("backend url must be http or https: %q", baseURL)
	}
	return Client{
		baseURL:   u,
		http:      &http.Client{Timeout: timeout},
		sessionID: uuid.NewString(),
	}, nil
}

func (c Client) BaseURL() string { return c.baseURL.String() }

func (c Client) SessionID() string { return c.sessionID }

func (c Client) endpoint(path string, q url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c Client) do(ctx context.Context, method, path string, q url.Values, payload any) (response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return response{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return response{}, err
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())
	req.Header.Set(HeaderSessionID, c.sessionID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return response{}, &ServerError{Status: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
	}
	return response{status: resp.StatusCode, header: resp.Header, body: raw}, nil
}

// getJSON performs a request and checks the JSON envelope for success=false.
func (c Client) getJSON(ctx context.Context, method, path string, q url.Values, payload any) ([]byte, error) {
	resp, err := c.do(ctx, method, path, q, payload)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.body) {
		return nil, fmt.Errorf("decode %s: invalid JSON", path)
	}
	if ok := gjson.GetBytes(resp.body, "success"); ok.Exists() && !ok.Bool() {
		return nil, &ServerError{Status: resp.status, Message: errorMessage(resp.body, "request failed")}
	}
	if e := gjson.GetBytes(resp.body, "error"); e.Exists() && e.String() != "" {
		return nil, &ServerError{Status: resp.status, Message: e.String()}
	}
	return resp.body, nil
}

func errorMessage(body []byte, fallback string) string {
	if gjson.ValidBytes(body) {
		for _, key := range []string{"error", "message"} {
			if v := gjson.GetBytes(body, key); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 {
		return s
	}
	return fallback
}

func pageQuery(page, pageSize int) url.Values {
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(pageSize)},
	}
}

func sheetPath(prefix string, sheet dataset.SheetID) string {
	return prefix + "/" + url.PathEscape(string(sheet))
}

// Ping checks that the server answers at all.
func (c Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/", nil), nil)
	if err != nil {
		return err
	}
	req.Header.Set(HeaderSessionID, c.sessionID)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 500 {
		return &ServerError{Status: resp.StatusCode, Message: resp.Status}
	}
	return nil
}

func (c Client) OriginalExists(ctx context.Context, sheet dataset.SheetID) (bool, error) {
	body, err := c.getJSON(ctx, http.MethodGet, sheetPath("/api/check_original", sheet), nil, nil)
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(body, "exists").Bool(), nil
}

func (c Client) FetchPersistedOriginal(ctx context.Context, sheet dataset.SheetID, page, pageSize int) (dataset.Page, error) {
	body, err := c.getJSON(ctx, http.MethodGet, sheetPath("/api/get_original_data", sheet), pageQuery(page, pageSize), nil)
	if err != nil {
		return dataset.Page{}, err
	}
	rows, err := decodeRows(body, "data")
	if err != nil {
		return dataset.Page{}, err
	}
	return dataset.Page{
		Rows:         rows,
		Columns:      dataset.Columns(dataset.ViewOriginal),
		TotalRecords: int(firstInt(body, "total_records", "total")),
		TotalPages:   int(gjson.GetBytes(body, "total_pages").Int()),
	}, nil
}

type livePage struct {
	Header    []any   `json:"header"`
	Rows      [][]any `json:"rows"`
	TotalRows *int    `json:"totalRows"`
}

// FetchLiveOriginal reads from the spreadsheet-backed endpoint, which pages from 0.
// The record count comes from the sheet info endpoint when the page omits it.
func (c Client) FetchLiveOriginal(ctx context.Context, sheet dataset.SheetID, page, pageSize int) (dataset.Page, error) {
	q := url.Values{
		"sheet":    {string(sheet)},
		"page":     {strconv.Itoa(page - 1)},
		"per_page": {strconv.Itoa(pageSize)},
	}
	body, err := c.getJSON(ctx, http.MethodGet, "/get_page", q, nil)
	if err != nil {
		return dataset.Page{}, err
	}
	var lp livePage
	if err := json.Unmarshal(body, &lp); err != nil {
		return dataset.Page{}, fmt.Errorf("decode live page: %w", err)
	}

	header := make([]string, len(lp.Header))
	for i, h := range lp.Header {
		header[i] = dataset.DisplayValue(h)
	}
	cols := header
	hasRowNumber := false
	for _, h := range header {
		if h == "original_row_number" {
			hasRowNumber = true
		}
	}
	if !hasRowNumber && len(header) > 0 {
		cols = append([]string{"original_row_number"}, header...)
	}

	rows := make([]dataset.Row, 0, len(lp.Rows))
	for i, values := range lp.Rows {
		row := make(dataset.Row, len(cols))
		for j, h := range header {
			if j < len(values) {
				row[h] = dataset.DisplayValue(values[j])
			} else {
				row[h] = ""
			}
		}
		if !hasRowNumber {
			row["original_row_number"] = strconv.Itoa((page-1)*pageSize + i + 1)
		}
		rows = append(rows, row)
	}

	total := 0
	if lp.TotalRows != nil {
		total = *lp.TotalRows
	} else if total, err = c.LoadSheet(ctx, sheet); err != nil {
		return dataset.Page{}, err
	}
	return dataset.Page{Rows: rows, Columns: cols, TotalRecords: total}, nil
}

func (c Client) LoadSheet(ctx context.Context, sheet dataset.SheetID) (int, error) {
	body, err := c.getJSON(ctx, http.MethodGet, "/get_sheet_info", url.Values{"sheet": {string(sheet)}}, nil)
	if err != nil {
		return 0, err
	}
	v := gjson.GetBytes(body, "totalRows")
	if !v.Exists() {
		return 0, fmt.Errorf("decode sheet info: missing totalRows")
	}
	// totalRows counts the header row.
	n := int(v.Int()) - 1
	if n < 0 {
		n = 0
	}
	return n, nil
}

func (c Client) CleanSheet(ctx context.Context, sheet dataset.SheetID) (dataset.CleanResult, error) {
	body, err := c.getJSON(ctx, http.MethodPost, "/api/clean_data", nil, map[string]string{"sheet": string(sheet)})
	if err != nil {
		return dataset.CleanResult{}, err
	}
	res := dataset.CleanResult{
		Message: gjson.GetBytes(body, "message").String(),
		Summary: decodeSummary(gjson.GetBytes(body, "summary")),
	}
	if a := gjson.GetBytes(body, "analytics"); a.IsObject() {
		if res.Analytics, err = dataset.NewAnalytics([]byte(a.Raw)); err != nil {
			return dataset.CleanResult{}, err
		}
	}
	return res, nil
}

func (c Client) FetchCleaned(ctx context.Context, sheet dataset.SheetID, view dataset.View, page, pageSize int) (dataset.Page, error) {
	if view != dataset.ViewIncluded && view != dataset.ViewExcluded {
		return dataset.Page{}, fmt.Errorf("fetch cleaned: unsupported view %q", view)
	}
	q := pageQuery(page, pageSize)
	q.Set("type", string(view))
	body, err := c.getJSON(ctx, http.MethodGet, sheetPath("/api/get_cleaned_data", sheet), q, nil)
	if err != nil {
		return dataset.Page{}, err
	}
	prefix := string(view)
	rows, err := decodeRows(body, prefix+"_data")
	if err != nil {
		return dataset.Page{}, err
	}
	return dataset.Page{
		Rows:         rows,
		Columns:      dataset.Columns(view),
		TotalRecords: int(gjson.GetBytes(body, "total_"+prefix).Int()),
		TotalPages:   int(gjson.GetBytes(body, prefix+"_total_pages").Int()),
	}, nil
}

func (c Client) FetchAnalytics(ctx context.Context, sheet dataset.SheetID) (dataset.Analytics, error) {
	body, err := c.getJSON(ctx, http.MethodGet, sheetPath("/api/get_analytics", sheet), nil, nil)
	if err != nil {
		return dataset.Analytics{}, err
	}
	return dataset.NewAnalytics(body)
}

func (c Client) CleaningStatus(ctx context.Context, sheet dataset.SheetID) (dataset.SheetStatus, error) {
	body, err := c.getJSON(ctx, http.MethodGet, sheetPath("/api/check_existing_data", sheet), nil, nil)
	if err != nil {
		return dataset.SheetStatus{}, err
	}
	st := dataset.SheetStatus{Sheet: sheet}
	if !gjson.GetBytes(body, "exists").Bool() {
		return st, nil
	}
	st.Cleaned = true
	st.OriginalLoaded = true
	st.Summary = decodeSummary(gjson.GetBytes(body, "summary"))
	if v := gjson.GetBytes(body, "included_count"); v.Exists() {
		st.Summary.IncludedCount = int(v.Int())
	}
	if v := gjson.GetBytes(body, "excluded_count"); v.Exists() {
		st.Summary.ExcludedCount = int(v.Int())
	}
	return st, nil
}

// Download fetches a server-rendered export of a cleaned view.
func (c Client) Download(ctx context.Context, sheet dataset.SheetID, view dataset.View, format string) (dataset.Download, error) {
	name, err := DownloadName(sheet, view, format)
	if err != nil {
		return dataset.Download{}, err
	}
	path := sheetPath("/api/download/"+string(view)+"_"+format, sheet)
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return dataset.Download{}, err
	}
	ct := resp.header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		return dataset.Download{}, &ServerError{Status: resp.status, Message: errorMessage(resp.body, "download failed")}
	}
	if cd := resp.header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
	}
	return dataset.Download{Filename: name, ContentType: ct, Body: resp.body}, nil
}

// DownloadName is the file name the server uses for a download.
func DownloadName(sheet dataset.SheetID, view dataset.View, format string) (string, error) {
	if view != dataset.ViewIncluded && view != dataset.ViewExcluded {
		return "", fmt.Errorf("%w: view %q", ErrUnsupportedDownload, view)
	}
	switch format {
	case "csv":
		return fmt.Sprintf("%s_data_%s.csv", view, sheet), nil
	case "pdf":
		return fmt.Sprintf("%s_report_%s.pdf", view, sheet), nil
	default:
		return "", fmt.Errorf("%w: format %q", ErrUnsupportedDownload, format)
	}
}

func decodeRows(body []byte, path string) ([]dataset.Row, error) {
	v := gjson.GetBytes(body, path)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, fmt.Errorf("decode rows: %s is not an array", path)
	}
	var objs []map[string]any
	if err := json.Unmarshal([]byte(v.Raw), &objs); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	rows := make([]dataset.Row, 0, len(objs))
	for _, o := range objs {
		rows = append(rows, dataset.RowFromJSON(o))
	}
	return rows, nil
}

func decodeSummary(v gjson.Result) dataset.CleanSummary {
	pick := func(keys ...string) int {
		for _, k := range keys {
			if r := v.Get(k); r.Exists() {
				return int(r.Int())
			}
		}
		return 0
	}
	return dataset.CleanSummary{
		OriginalCount: pick("original_count", "original_row_count"),
		IncludedCount: pick("included_count", "included_row_count"),
		ExcludedCount: pick("excluded_count", "excluded_row_count"),
	}
}

func firstInt(body []byte, keys ...string) int64 {
	for _, k := range keys {
		if v := gjson.GetBytes(body, k); v.Exists() {
			return v.Int()
		}
	}
	return 0
}
