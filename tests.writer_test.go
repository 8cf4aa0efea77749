package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestNotionConfig(baseURL string) *NotionConfig {
	return &NotionConfig{
		BaseURL:    baseURL,
		Token:      "secret-test-token",
		DatabaseID: "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		APIVersion: "2022-06-28",
		Timeout:    5 * time.Second,
	}
}

// TestNotionWriterCreate ensures a page creation followed by the note
// append sends the expected requests and returns the new page id.
func TestNotionWriterCreate(t *testing.T) {
	var noteAppended atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/pages":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			parent, ok := body["parent"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", parent["database_id"])
			properties, ok := body["properties"].(map[string]interface{})
			require.True(t, ok)
			_, ok = properties[TitleProperty]
			assert.True(t, ok)
			w.Write([]byte(`{"id": "page-001", "object": "page"}`))

		case r.Method == http.MethodPatch && r.URL.Path == "/v1/blocks/page-001/children":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			children, ok := body["children"].([]interface{})
			require.True(t, ok)
			require.Len(t, children, 1)
			noteAppended.Store(true)
			w.Write([]byte(`{"object": "list"}`))

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	writer := NewNotionWriter(zap.NewNop(), newTestNotionConfig(srv.URL))
	pageID, err := writer.Create(context.TODO(), ToPayload(BookRecord{Title: "Clean Code"}), "a worthy read")
	require.NoError(t, err)
	assert.Equal(t, "page-001", pageID)
	assert.True(t, noteAppended.Load())
}

// TestNotionWriterCreate_WithoutNote ensures no children request is sent
// when there is nothing to append.
func TestNotionWriterCreate_WithoutNote(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"id": "page-002"}`))
	}))
	defer srv.Close()

	writer := NewNotionWriter(zap.NewNop(), newTestNotionConfig(srv.URL))
	pageID, err := writer.Create(context.TODO(), ToPayload(BookRecord{Title: "Clean Code"}), "")
	require.NoError(t, err)
	assert.Equal(t, "page-002", pageID)
	assert.Equal(t, int32(1), calls.Load())
}

// TestNotionWriterCreate_PartialWrite ensures a note append failure keeps
// the created page id inside the partial write error.
func TestNotionWriterCreate_PartialWrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"id": "page-003"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"object": "error", "message": "block validation failed"}`))
	}))
	defer srv.Close()

	writer := NewNotionWriter(zap.NewNop(), newTestNotionConfig(srv.URL))
	pageID, err := writer.Create(context.TODO(), ToPayload(BookRecord{Title: "Clean Code"}), "a worthy read")
	assert.Equal(t, "page-003", pageID)

	var partialErr *PartialWriteError
	require.ErrorAs(t, err, &partialErr)
	assert.Equal(t, "page-003", partialErr.PageID)
}

// TestNotionWriterCreate_MissingCredentials ensures no request goes out
// when the token or the database id is not configured.
func TestNotionWriterCreate_MissingCredentials(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	testCases := []struct {
		name   string
		mutate func(*NotionConfig)
	}{
		{"missing token", func(c *NotionConfig) { c.Token = "" }},
		{"missing database id", func(c *NotionConfig) { c.DatabaseID = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := newTestNotionConfig(srv.URL)
			tc.mutate(config)
			writer := NewNotionWriter(zap.NewNop(), config)
			pageID, err := writer.Create(context.TODO(), ToPayload(BookRecord{Title: "Clean Code"}), "")
			assert.Empty(t, pageID)
			var configErr *ConfigError
			require.ErrorAs(t, err, &configErr)
		})
	}
	assert.Equal(t, int32(0), calls.Load())
}

// TestNotionWriterCreate_UpstreamFailure ensures a rejected page creation
// is classified as a transport error.
func TestNotionWriterCreate_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"object": "error", "message": "API token is invalid."}`))
	}))
	defer srv.Close()

	writer := NewNotionWriter(zap.NewNop(), newTestNotionConfig(srv.URL))
	pageID, err := writer.Create(context.TODO(), ToPayload(BookRecord{Title: "Clean Code"}), "")
	assert.Empty(t, pageID)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

// TestExtractDatabaseID ensures both bare identifiers and sharing links
// reduce to the hyphen-free database id.
func TestExtractDatabaseID(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			"bare id",
			"a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
			"a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		},
		{
			"hyphenated id",
			"a1b2c3d4-e5f6-a1b2-c3d4-e5f6a1b2c3d4",
			"a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		},
		{
			"sharing link",
			"https://www.notion.so/myspace/a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4?v=deadbeef",
			"a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		},
		{
			"site link with hyphenated id",
			"https://myspace.notion.site/a1b2c3d4-e5f6-a1b2-c3d4-e5f6a1b2c3d4",
			"a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		},
		{
			"unrecognized input passes through",
			"whatever-the-user-typed",
			"whatevertheusertyped",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractDatabaseID(tc.raw))
		})
	}
}
