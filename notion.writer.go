package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var _ RecordWriter = (*NotionWriter)(nil) // ensure NotionWriter implements RecordWriter.

// NotionWriter persists one mapped payload as a fresh page into the
// configured notion database and optionally appends the note as the
// page body. Every save is an unconditional create.
type NotionWriter struct {
	logger *zap.Logger
	config *NotionConfig
	client *http.Client
}

// NewNotionWriter provides a ready to use destination store writer
// with the per-call timeout taken from the configuration.
func NewNotionWriter(logger *zap.Logger, config *NotionConfig) *NotionWriter {
	return &NotionWriter{
		logger: logger,
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Create inserts a new record with the given typed properties then
// appends the note as a single paragraph block when provided. A note
// append failure does not roll back the created record: it is reported
// as PartialWriteError carrying the new record id.
func (w *NotionWriter) Create(ctx context.Context, payload DestinationPayload, note string) (string, error) {
	if w.config.Token == "" {
		return "", &ConfigError{Setting: "notion api token"}
	}
	if w.config.DatabaseID == "" {
		return "", &ConfigError{Setting: "notion database id"}
	}

	pageID, err := w.createPage(ctx, ExtractDatabaseID(w.config.DatabaseID), payload)
	if err != nil {
		return "", err
	}
	w.logger.Info("notion: page created", zap.String("page.id", pageID))

	if note == "" {
		return pageID, nil
	}

	if err := w.appendNote(ctx, pageID, note); err != nil {
		w.logger.Error("notion: note append failed", zap.String("page.id", pageID), zap.Error(err))
		return pageID, &PartialWriteError{PageID: pageID, Err: err}
	}
	return pageID, nil
}

func (w *NotionWriter) createPage(ctx context.Context, databaseID string, payload DestinationPayload) (string, error) {
	body := map[string]interface{}{
		"parent":     map[string]interface{}{"database_id": databaseID},
		"properties": payload,
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := w.post(ctx, http.MethodPost, w.config.BaseURL+"/v1/pages", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (w *NotionWriter) appendNote(ctx context.Context, pageID, note string) error {
	body := map[string]interface{}{
		"children": []interface{}{
			map[string]interface{}{
				"object": "block",
				"type":   "paragraph",
				"paragraph": map[string]interface{}{
					"rich_text": []interface{}{
						map[string]interface{}{
							"type": "text",
							"text": map[string]interface{}{"content": note},
						},
					},
				},
			},
		},
	}
	endpoint := fmt.Sprintf("%s/v1/blocks/%s/children", w.config.BaseURL, pageID)
	return w.post(ctx, http.MethodPatch, endpoint, body, nil)
}

func (w *NotionWriter) post(ctx context.Context, method, endpoint string, body, target interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Op: "notion request build", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+w.config.Token)
	req.Header.Set("Notion-Version", w.config.APIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return &TransportError{Op: "notion call", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "notion response read", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: "notion call", Err: fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, truncate(data, 200))}
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &MalformedResponseError{Format: "json", Err: err}
	}
	return nil
}

var databaseIDPattern = regexp.MustCompile(`[a-f0-9]{32}|[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`)

// ExtractDatabaseID accepts a raw database identifier or a notion
// sharing link and returns the bare id with hyphens stripped. Input
// matching neither shape passes through unchanged and gets rejected
// by the destination store itself.
func ExtractDatabaseID(raw string) string {
	id := strings.TrimSpace(raw)
	if strings.Contains(id, "notion.site") || strings.Contains(id, "notion.so") {
		if match := databaseIDPattern.FindString(id); match != "" {
			id = match
		}
	}
	return strings.ReplaceAll(id, "-", "")
}

func truncate(data []byte, max int) string {
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}
