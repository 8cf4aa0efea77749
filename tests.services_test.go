package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestImportService_Import ensures a search-derived record is upgraded
// to its full catalog form before being written out.
func TestImportService_Import(t *testing.T) {
	var lookedUpISBN string
	mockCatalog := &MockCatalogProvider{
		LookupFunc: func(ctx context.Context, isbn string) (BookRecord, error) {
			lookedUpISBN = isbn
			return BookRecord{
				Title:       "Clean Code",
				Author:      "Robert C. Martin",
				Publisher:   "Prentice Hall",
				PubDate:     "2008-08-01",
				ISBN13:      "9780132350884",
				Description: "A handbook of agile software craftsmanship.",
			}, nil
		},
	}

	var writtenPayload DestinationPayload
	var writtenNote string
	mockWriter := &MockRecordWriter{
		CreateFunc: func(ctx context.Context, payload DestinationPayload, note string) (string, error) {
			writtenPayload = payload
			writtenNote = note
			return "page-001", nil
		},
	}

	var storedRecord ImportRecord
	mockStorage := &MockImportStorage{
		AddFunc: func(ctx context.Context, id string, record ImportRecord) error {
			storedRecord = record
			return nil
		},
	}

	is := NewImportService(zap.NewNop(), nil, NewMockClocker(), NewMockUIDHandler("abc", true), mockCatalog, mockWriter, mockStorage)
	result, err := is.Import(context.TODO(), ImportRequest{
		Book: BookRecord{Title: "Clean Code", ISBN13: "978-01-3235-088-4"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warning)

	// the lookup received the cleaned isbn and its richer record won.
	assert.Equal(t, "9780132350884", lookedUpISBN)
	_, ok := writtenPayload[AuthorProperty]
	assert.True(t, ok)
	_, ok = writtenPayload[PublishedDateProperty]
	assert.True(t, ok)

	// the empty note defaulted to the catalog description.
	assert.Equal(t, "A handbook of agile software craftsmanship.", writtenNote)

	assert.Equal(t, "i:abc", result.Record.ID)
	assert.Equal(t, "9780132350884", result.Record.ISBN)
	assert.Equal(t, "Clean Code", result.Record.Title)
	assert.Equal(t, "page-001", result.Record.PageID)
	assert.Equal(t, "2023-07-02T00:00:00Z", result.Record.ImportedAt)
	assert.Equal(t, result.Record, storedRecord)
}

// TestImportService_Import_LookupFailure ensures the search-derived
// record is saved as-is when the detail upgrade cannot be performed.
func TestImportService_Import_LookupFailure(t *testing.T) {
	mockCatalog := &MockCatalogProvider{
		LookupFunc: func(ctx context.Context, isbn string) (BookRecord, error) {
			return BookRecord{}, &TransportError{Op: "catalog call", Err: errors.New("connection refused")}
		},
	}
	var writtenPayload DestinationPayload
	mockWriter := &MockRecordWriter{
		CreateFunc: func(ctx context.Context, payload DestinationPayload, note string) (string, error) {
			writtenPayload = payload
			return "page-002", nil
		},
	}
	mockStorage := &MockImportStorage{
		AddFunc: func(ctx context.Context, id string, record ImportRecord) error { return nil },
	}

	is := NewImportService(zap.NewNop(), nil, NewMockClocker(), NewMockUIDHandler("abc", true), mockCatalog, mockWriter, mockStorage)
	result, err := is.Import(context.TODO(), ImportRequest{
		Book: BookRecord{Title: "Clean Code", ISBN13: "9780132350884"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Clean Code", result.Record.Title)
	assert.Equal(t, "page-002", result.Record.PageID)

	title := writtenPayload[TitleProperty].(map[string]interface{})
	text := title["title"].([]interface{})[0].(map[string]interface{})["text"].(map[string]interface{})
	assert.Equal(t, "Clean Code", text["content"])
}

// TestImportService_Import_NoISBN ensures a record without any isbn
// skips the detail upgrade entirely.
func TestImportService_Import_NoISBN(t *testing.T) {
	var lookupCalled bool
	mockCatalog := &MockCatalogProvider{
		LookupFunc: func(ctx context.Context, isbn string) (BookRecord, error) {
			lookupCalled = true
			return BookRecord{}, nil
		},
	}
	mockWriter := &MockRecordWriter{
		CreateFunc: func(ctx context.Context, payload DestinationPayload, note string) (string, error) {
			return "page-003", nil
		},
	}
	mockStorage := &MockImportStorage{
		AddFunc: func(ctx context.Context, id string, record ImportRecord) error { return nil },
	}

	is := NewImportService(zap.NewNop(), nil, NewMockClocker(), NewMockUIDHandler("abc", true), mockCatalog, mockWriter, mockStorage)
	result, err := is.Import(context.TODO(), ImportRequest{Book: BookRecord{Title: "Handwritten notes"}, Note: "keep it"})
	require.NoError(t, err)
	assert.False(t, lookupCalled)
	assert.Empty(t, result.Record.ISBN)
}

// TestImportService_Import_PartialWrite ensures a note append failure
// downgrades to a warning while the created page id is kept.
func TestImportService_Import_PartialWrite(t *testing.T) {
	mockWriter := &MockRecordWriter{
		CreateFunc: func(ctx context.Context, payload DestinationPayload, note string) (string, error) {
			return "", &PartialWriteError{PageID: "page-004", Err: errors.New("block validation failed")}
		},
	}
	mockStorage := &MockImportStorage{
		AddFunc: func(ctx context.Context, id string, record ImportRecord) error { return nil },
	}

	is := NewImportService(zap.NewNop(), nil, NewMockClocker(), NewMockUIDHandler("abc", true), &MockCatalogProvider{}, mockWriter, mockStorage)
	result, err := is.Import(context.TODO(), ImportRequest{Book: BookRecord{Title: "Clean Code"}, Note: "a worthy read"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warning)
	assert.Equal(t, "page-004", result.Record.PageID)
}

// TestImportService_Import_WriterFailure ensures a failed record creation
// aborts the import without touching the history.
func TestImportService_Import_WriterFailure(t *testing.T) {
	mockWriter := &MockRecordWriter{
		CreateFunc: func(ctx context.Context, payload DestinationPayload, note string) (string, error) {
			return "", &ConfigError{Setting: "notion api token"}
		},
	}
	var historyTouched bool
	mockStorage := &MockImportStorage{
		AddFunc: func(ctx context.Context, id string, record ImportRecord) error {
			historyTouched = true
			return nil
		},
	}

	is := NewImportService(zap.NewNop(), nil, NewMockClocker(), NewMockUIDHandler("abc", true), &MockCatalogProvider{}, mockWriter, mockStorage)
	result, err := is.Import(context.TODO(), ImportRequest{Book: BookRecord{Title: "Clean Code"}})
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, ImportResult{}, result)
	assert.False(t, historyTouched)
}

// TestImportService_Import_HistoryFailure ensures a history bookkeeping
// failure only downgrades the outcome to a warning.
func TestImportService_Import_HistoryFailure(t *testing.T) {
	mockWriter := &MockRecordWriter{
		CreateFunc: func(ctx context.Context, payload DestinationPayload, note string) (string, error) {
			return "page-005", nil
		},
	}
	mockStorage := &MockImportStorage{
		AddFunc: func(ctx context.Context, id string, record ImportRecord) error {
			return errors.New("storage failure")
		},
	}

	is := NewImportService(zap.NewNop(), nil, NewMockClocker(), NewMockUIDHandler("abc", true), &MockCatalogProvider{}, mockWriter, mockStorage)
	result, err := is.Import(context.TODO(), ImportRequest{Book: BookRecord{Title: "Clean Code"}})
	require.NoError(t, err)
	assert.Equal(t, "import history could not be recorded", result.Warning)
	assert.Equal(t, "page-005", result.Record.PageID)
}

// TestImportService_Lookup ensures the isbn is cleaned before reaching the catalog.
func TestImportService_Lookup(t *testing.T) {
	mockCatalog := &MockCatalogProvider{
		LookupFunc: func(ctx context.Context, isbn string) (BookRecord, error) {
			assert.Equal(t, "9788966260959", isbn)
			return BookRecord{Title: "클린 코드"}, nil
		},
	}

	is := NewImportService(zap.NewNop(), nil, NewMockClocker(), NewMockUIDHandler("abc", true), mockCatalog, nil, nil)
	record, err := is.Lookup(context.TODO(), "978-89-6626-095-9")
	require.NoError(t, err)
	assert.Equal(t, "클린 코드", record.Title)
}

// TestImportPipeline ensures the real catalog client, mapper and writer
// cooperate end to end: search, lookup on the first hit, then a page
// creation carrying the looked-up isbn and a non empty title.
func TestImportPipeline(t *testing.T) {
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ItemId") != "" {
			w.Write([]byte(`{"item": [
				{"title": "클린 코드", "author": "로버트 C. 마틴", "publisher": "인사이트",
				 "pubDate": "2013-12-24", "isbn13": "9788966260959", "cover": "https://image.aladin.co.kr/cover/9788966260959.jpg"}
			]}`))
			return
		}
		w.Write([]byte(`{"item": [
			{"title": "클린 코드", "isbn13": "9788966260959"},
			{"title": "클린 아키텍처", "isbn13": "9788966262472"}
		]}`))
	}))
	defer catalogSrv.Close()

	var createdProperties map[string]interface{}
	notionSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			createdProperties = body["properties"].(map[string]interface{})
			w.Write([]byte(`{"id": "page-e2e"}`))
			return
		}
		w.Write([]byte(`{"object": "list"}`))
	}))
	defer notionSrv.Close()

	client := NewAladinClient(zap.NewNop(), newTestCatalogConfig(catalogSrv.URL))
	writer := NewNotionWriter(zap.NewNop(), newTestNotionConfig(notionSrv.URL))
	var storedRecord ImportRecord
	mockStorage := &MockImportStorage{
		AddFunc: func(ctx context.Context, id string, record ImportRecord) error {
			storedRecord = record
			return nil
		},
	}
	is := NewImportService(zap.NewNop(), nil, NewMockClocker(), NewMockUIDHandler("abc", true), client, writer, mockStorage)

	records, err := is.Search(context.TODO(), "클린 코드", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "클린 코드", records[0].Title)

	result, err := is.Import(context.TODO(), ImportRequest{Book: records[0]})
	require.NoError(t, err)
	assert.Empty(t, result.Warning)
	assert.Equal(t, "page-e2e", result.Record.PageID)
	assert.Equal(t, "9788966260959", result.Record.ISBN)
	assert.Equal(t, result.Record, storedRecord)

	require.NotNil(t, createdProperties)
	isbnProp := createdProperties[ISBNProperty].(map[string]interface{})
	text := isbnProp["rich_text"].([]interface{})[0].(map[string]interface{})["text"].(map[string]interface{})
	assert.Equal(t, "9788966260959", text["content"])

	titleProp := createdProperties[TitleProperty].(map[string]interface{})
	text = titleProp["title"].([]interface{})[0].(map[string]interface{})["text"].(map[string]interface{})
	assert.NotEmpty(t, text["content"])

	// the lookup-derived record carried fields the search result lacked.
	_, ok := createdProperties[PublisherProperty]
	assert.True(t, ok)
	_, ok = createdProperties[PublishedDateProperty]
	assert.True(t, ok)
}

// TestImportService_Forget ensures deletion is attempted only for an existing entry.
func TestImportService_Forget(t *testing.T) {
	t.Run("should pass: existing entry", func(t *testing.T) {
		var deleted bool
		mockStorage := &MockImportStorage{
			GetOneFunc: func(ctx context.Context, id string) (ImportRecord, error) {
				return ImportRecord{ID: id}, nil
			},
			DeleteFunc: func(ctx context.Context, id string) error {
				deleted = true
				return nil
			},
		}
		is := NewImportService(zap.NewNop(), nil, NewMockClocker(), NewMockUIDHandler("abc", true), nil, nil, mockStorage)
		err := is.Forget(context.TODO(), "i:abc")
		assert.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("should fail: missing entry", func(t *testing.T) {
		var deleted bool
		mockStorage := &MockImportStorage{
			GetOneFunc: func(ctx context.Context, id string) (ImportRecord, error) {
				return ImportRecord{}, ErrImportNotFound
			},
			DeleteFunc: func(ctx context.Context, id string) error {
				deleted = true
				return nil
			},
		}
		is := NewImportService(zap.NewNop(), nil, NewMockClocker(), NewMockUIDHandler("abc", true), nil, nil, mockStorage)
		err := is.Forget(context.TODO(), "i:missing")
		assert.ErrorIs(t, err, ErrImportNotFound)
		assert.False(t, deleted)
	})
}
