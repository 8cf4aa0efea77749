package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ImportRequest carries the book selected by the caller and an
// optional note to append as the record body. When the note is empty
// the catalog description is used instead.
type ImportRequest struct {
	Book BookRecord `json:"book"`
	Note string     `json:"note"`
}

// ImportResult reports the outcome of one import. Warning is set when
// the record was created but a secondary step did not complete.
type ImportResult struct {
	Record  ImportRecord `json:"record"`
	Warning string       `json:"warning,omitempty"`
}

type ImportServiceProvider interface {
	Search(ctx context.Context, keyword string, maxResults int) ([]BookRecord, error)
	Lookup(ctx context.Context, isbn string) (BookRecord, error)
	Import(ctx context.Context, req ImportRequest) (ImportResult, error)
	History(ctx context.Context) ([]ImportRecord, error)
	HistoryOne(ctx context.Context, id string) (ImportRecord, error)
	Forget(ctx context.Context, id string) error
}

// ImportService drives the whole acquisition pipeline: catalog search
// or lookup, detail upgrade, field mapping, destination write and
// import history bookkeeping. It holds no mutable state of its own so
// every call is independently retryable by the caller.
type ImportService struct {
	logger     *zap.Logger
	config     *Config
	clock      Clocker
	idsHandler UIDHandler
	catalog    CatalogProvider
	writer     RecordWriter
	storage    ImportStorage
}

func NewImportService(logger *zap.Logger, config *Config, clock Clocker, ids UIDHandler, catalog CatalogProvider, writer RecordWriter, storage ImportStorage) ImportServiceProvider {
	return &ImportService{
		logger:     logger,
		config:     config,
		clock:      clock,
		idsHandler: ids,
		catalog:    catalog,
		writer:     writer,
		storage:    storage,
	}
}

func (is *ImportService) Search(ctx context.Context, keyword string, maxResults int) ([]BookRecord, error) {
	return is.catalog.Search(ctx, keyword, maxResults)
}

func (is *ImportService) Lookup(ctx context.Context, isbn string) (BookRecord, error) {
	return is.catalog.Lookup(ctx, CleanISBN(isbn))
}

// Import persists the given book into the destination store. A record
// carrying an isbn is first upgraded to its full catalog form since
// search results may omit fields; when that lookup fails the
// search-derived record is saved as-is rather than aborting. A note
// append failure is reported as a warning next to the created record,
// never as an overall failure.
func (is *ImportService) Import(ctx context.Context, req ImportRequest) (ImportResult, error) {
	book := req.Book
	var warning string

	if isbn := CleanISBN(preferredISBN(book)); isbn != "" {
		detailed, err := is.catalog.Lookup(ctx, isbn)
		if err != nil {
			is.logger.Warn("service: detail lookup failed, saving search result as-is",
				zap.String("isbn", isbn), zap.Error(err))
		} else {
			book = detailed
		}
	}

	note := req.Note
	if note == "" {
		note = book.Description
	}

	pageID, err := is.writer.Create(ctx, ToPayload(book), note)
	var partial *PartialWriteError
	switch {
	case errors.As(err, &partial):
		pageID = partial.PageID
		warning = partial.Error()
	case err != nil:
		return ImportResult{}, err
	}

	record := ImportRecord{
		ID:         is.idsHandler.Generate(ImportIDPrefix),
		ISBN:       CleanISBN(preferredISBN(book)),
		Title:      book.Title,
		PageID:     pageID,
		ImportedAt: is.clock.Now().UTC().Format(time.RFC3339),
	}

	if err := is.storage.Add(ctx, record.ID, record); err != nil {
		// The destination write already succeeded so history
		// bookkeeping failure only downgrades to a warning.
		is.logger.Error("service: failed to record import history", zap.String("import.id", record.ID), zap.Error(err))
		if warning == "" {
			warning = "import history could not be recorded"
		}
	}

	is.logger.Info("service: book imported",
		zap.String("import.id", record.ID),
		zap.String("page.id", pageID),
		zap.String("title", book.Title),
	)
	return ImportResult{Record: record, Warning: warning}, nil
}

func (is *ImportService) History(ctx context.Context) ([]ImportRecord, error) {
	return is.storage.GetAll(ctx)
}

func (is *ImportService) HistoryOne(ctx context.Context, id string) (ImportRecord, error) {
	return is.storage.GetOne(ctx, id)
}

func (is *ImportService) Forget(ctx context.Context, id string) error {
	if _, err := is.storage.GetOne(ctx, id); err != nil {
		return err
	}
	return is.storage.Delete(ctx, id)
}
