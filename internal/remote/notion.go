package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/nikolaykusch/TODOtoNOTION/internal/marker"
)

const (
	notionBaseURL      = "https://api.notion.com/v1"
	notionVersion      = "2022-06-28"
	notionPageSize     = 100
	notionMaxRetries   = 3
	notionInitialDelay = 500 * time.Millisecond
)

// Notion database property names. DescribeSchema reports which of these
// the target database actually defines; absent ones are omitted from
// write payloads rather than failing the call.
const (
	PropTitle  = "Name"
	PropID     = "Marker ID"
	PropKind   = "Kind"
	PropStatus = "Status"
	PropFile   = "File"
	PropLine   = "Line"
)

// NotionStore implements Store against the Notion REST API. One store
// instance targets one database.
type NotionStore struct {
	token      string
	databaseID string
	baseURL    string
	client     *http.Client
	logger     *log.Logger

	// schema caches the DescribeSchema result for the life of the store.
	schema map[string]string
}

// NewNotionStore creates a client for the given integration token and
// database. If logger is nil, a default stderr logger is used.
func NewNotionStore(token, databaseID string, logger *log.Logger) *NotionStore {
	if logger == nil {
		logger = log.New(os.Stderr, "[notion] ", log.LstdFlags)
	}
	return &NotionStore{
		token:      token,
		databaseID: databaseID,
		baseURL:    notionBaseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// SetBaseURL overrides the API endpoint. Tests point it at an httptest
// server.
func (s *NotionStore) SetBaseURL(url string) {
	s.baseURL = url
}

// ----- wire types -----

type notionRichText struct {
	PlainText string `json:"plain_text,omitempty"`
	Text      struct {
		Content string `json:"content"`
	} `json:"text"`
}

type notionSelect struct {
	Name string `json:"name"`
}

type notionProperty struct {
	Type     string           `json:"type,omitempty"`
	Title    []notionRichText `json:"title,omitempty"`
	RichText []notionRichText `json:"rich_text,omitempty"`
	Select   *notionSelect    `json:"select,omitempty"`
	Number   *float64         `json:"number,omitempty"`
}

type notionPage struct {
	ID         string                    `json:"id"`
	Archived   bool                      `json:"archived"`
	Properties map[string]notionProperty `json:"properties"`
}

type notionQueryResponse struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor string       `json:"next_cursor"`
}

type notionDatabase struct {
	Properties map[string]struct {
		Type string `json:"type"`
	} `json:"properties"`
}

type notionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ----- Store implementation -----

// ListRecords implements Store. It pages through the database query
// endpoint and converts every page into a Record. Pages with malformed
// properties are kept with defaults substituted, not dropped, so that a
// single bad page never hides the rest of the store.
func (s *NotionStore) ListRecords(ctx context.Context) ([]Record, error) {
	var records []Record
	cursor := ""

	for {
		body := map[string]interface{}{"page_size": notionPageSize}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		var resp notionQueryResponse
		path := fmt.Sprintf("/databases/%s/query", s.databaseID)
		if err := s.do(ctx, http.MethodPost, path, body, &resp); err != nil {
			return nil, err
		}

		for _, page := range resp.Results {
			records = append(records, s.pageToRecord(page))
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	return records, nil
}

// CreateRecord implements Store.
func (s *NotionStore) CreateRecord(ctx context.Context, fields Fields) (string, error) {
	props, err := s.buildProperties(ctx, fields, true)
	if err != nil {
		return "", err
	}

	body := map[string]interface{}{
		"parent":     map[string]interface{}{"database_id": s.databaseID},
		"properties": props,
	}

	var page notionPage
	if err := s.do(ctx, http.MethodPost, "/pages", body, &page); err != nil {
		return "", err
	}
	if page.ID == "" {
		return "", fmt.Errorf("create record: %w: response carried no page id", ErrUnavailable)
	}
	return page.ID, nil
}

// UpdateRecord implements Store. Status is deliberately left out of the
// payload: the remote side owns status transitions and a push update must
// never clobber one back to the local default.
func (s *NotionStore) UpdateRecord(ctx context.Context, key string, fields Fields) error {
	props, err := s.buildProperties(ctx, fields, false)
	if err != nil {
		return err
	}

	body := map[string]interface{}{"properties": props}
	return s.do(ctx, http.MethodPatch, "/pages/"+key, body, nil)
}

// ArchiveRecord implements Store. The record's status transitions to the
// terminal state; the page itself is kept so the archival stays visible
// to subsequent pulls.
func (s *NotionStore) ArchiveRecord(ctx context.Context, key string) error {
	props := map[string]interface{}{}
	if s.schemaHas(ctx, PropStatus) {
		props[PropStatus] = map[string]interface{}{
			"select": map[string]interface{}{"name": marker.StatusArchived},
		}
	}

	body := map[string]interface{}{"properties": props}
	return s.do(ctx, http.MethodPatch, "/pages/"+key, body, nil)
}

// DescribeSchema implements Store. The result is cached; Notion database
// schemas do not change underneath one sync session often enough to merit
// re-fetching per pass.
func (s *NotionStore) DescribeSchema(ctx context.Context) (map[string]string, error) {
	if s.schema != nil {
		return s.schema, nil
	}

	var db notionDatabase
	if err := s.do(ctx, http.MethodGet, "/databases/"+s.databaseID, nil, &db); err != nil {
		return nil, err
	}

	schema := make(map[string]string, len(db.Properties))
	for name, prop := range db.Properties {
		schema[name] = prop.Type
	}
	s.schema = schema
	return schema, nil
}

// ----- helpers -----

// pageToRecord converts a Notion page to a Record, substituting defaults
// for malformed or missing properties.
func (s *NotionStore) pageToRecord(page notionPage) Record {
	rec := Record{
		Key:    page.ID,
		Kind:   marker.DefaultKind,
		Status: marker.StatusOpen,
	}

	if page.Archived {
		rec.Status = marker.StatusArchived
	}

	if p, ok := page.Properties[PropTitle]; ok {
		rec.Text = richTextPlain(p.Title)
	}
	if p, ok := page.Properties[PropID]; ok {
		tok := richTextPlain(p.RichText)
		if marker.ValidToken(tok) {
			rec.ID = tok
		} else if tok != "" {
			s.logger.Printf("WARNING: page %s carries malformed marker id %q, treating as unmatched", page.ID, tok)
		}
	}
	if p, ok := page.Properties[PropKind]; ok && p.Select != nil && p.Select.Name != "" {
		rec.Kind = p.Select.Name
	}
	if p, ok := page.Properties[PropStatus]; ok && p.Select != nil && p.Select.Name != "" {
		rec.Status = p.Select.Name
	}
	if p, ok := page.Properties[PropFile]; ok {
		rec.File = richTextPlain(p.RichText)
	}
	// The Line property is stored 1-based for human readers.
	if p, ok := page.Properties[PropLine]; ok && p.Number != nil && *p.Number >= 1 {
		rec.Line = int(*p.Number) - 1
	}

	return rec
}

func richTextPlain(parts []notionRichText) string {
	out := ""
	for _, part := range parts {
		if part.PlainText != "" {
			out += part.PlainText
		} else {
			out += part.Text.Content
		}
	}
	return out
}

// buildProperties assembles the write payload, omitting properties the
// target database schema does not define. If the schema cannot be
// fetched, all properties are sent and the API is left to complain.
func (s *NotionStore) buildProperties(ctx context.Context, fields Fields, includeStatus bool) (map[string]interface{}, error) {
	schema, err := s.DescribeSchema(ctx)
	if err != nil {
		s.logger.Printf("WARNING: schema fetch failed, sending all properties: %v", err)
		schema = nil
	}

	has := func(name string) bool {
		if schema == nil {
			return true
		}
		_, ok := schema[name]
		return ok
	}

	props := map[string]interface{}{}

	if has(PropTitle) {
		props[PropTitle] = map[string]interface{}{
			"title": []interface{}{textPart(fields.Text)},
		}
	}
	if has(PropID) && fields.ID != "" {
		props[PropID] = map[string]interface{}{
			"rich_text": []interface{}{textPart(fields.ID)},
		}
	}
	if has(PropKind) && fields.Kind != "" {
		props[PropKind] = map[string]interface{}{
			"select": map[string]interface{}{"name": fields.Kind},
		}
	}
	if includeStatus && has(PropStatus) && fields.Status != "" {
		props[PropStatus] = map[string]interface{}{
			"select": map[string]interface{}{"name": fields.Status},
		}
	}
	if has(PropFile) && fields.File != "" {
		props[PropFile] = map[string]interface{}{
			"rich_text": []interface{}{textPart(fields.File)},
		}
	}
	if has(PropLine) {
		props[PropLine] = map[string]interface{}{"number": fields.Line + 1}
	}

	return props, nil
}

func textPart(content string) map[string]interface{} {
	return map[string]interface{}{
		"text": map[string]interface{}{"content": content},
	}
}

func (s *NotionStore) schemaHas(ctx context.Context, name string) bool {
	schema, err := s.DescribeSchema(ctx)
	if err != nil {
		return true
	}
	_, ok := schema[name]
	return ok
}

// do executes one API call with retry on rate limits and server errors.
// All failures are classified as ErrUnavailable so callers can apply the
// degrade-to-empty-snapshot policy uniformly.
func (s *NotionStore) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if s.token == "" || s.databaseID == "" {
		return fmt.Errorf("%w: notion token or database id not configured", ErrUnavailable)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < notionMaxRetries; attempt++ {
		if attempt > 0 {
			delay := notionInitialDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set("Notion-Version", notionVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr notionError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
				lastErr = fmt.Errorf("%w: notion api %d (%s): %s", ErrUnavailable, resp.StatusCode, apiErr.Code, apiErr.Message)
			} else {
				lastErr = fmt.Errorf("%w: notion api %d", ErrUnavailable, resp.StatusCode)
			}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return lastErr
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", notionMaxRetries, lastErr)
}
