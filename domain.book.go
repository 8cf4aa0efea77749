package main

import "context"

// BookRecord is the canonical representation of one book's metadata,
// whatever format the catalog served it in. A record built from a
// search response may have any optional field empty. A record built
// from an isbn lookup is considered complete and supersedes the
// search-derived one before persistence.
type BookRecord struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	PubDate     string `json:"pubDate"`
	ISBN        string `json:"isbn"`
	ISBN13      string `json:"isbn13"`
	Cover       string `json:"cover"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// ImportRecord keeps track of one book pushed to the destination store.
type ImportRecord struct {
	ID         string `json:"id"`
	ISBN       string `json:"isbn"`
	Title      string `json:"title"`
	PageID     string `json:"pageId"`
	ImportedAt string `json:"importedAt"`
}

// CatalogProvider defines the operations served by the books catalog.
type CatalogProvider interface {
	Search(ctx context.Context, keyword string, maxResults int) ([]BookRecord, error)
	Lookup(ctx context.Context, isbn string) (BookRecord, error)
}

// RecordWriter creates one entry into the destination records store.
type RecordWriter interface {
	Create(ctx context.Context, payload DestinationPayload, note string) (string, error)
}

// ImportStorage defines possible operations on import history entries.
type ImportStorage interface {
	Add(ctx context.Context, id string, record ImportRecord) error
	GetOne(ctx context.Context, id string) (ImportRecord, error)
	GetAll(ctx context.Context) ([]ImportRecord, error)
	Delete(ctx context.Context, id string) error
}
