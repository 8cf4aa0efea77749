package main

import (
	"context"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockCatalogProvider struct {
	SearchFunc func(ctx context.Context, keyword string, maxResults int) ([]BookRecord, error)
	LookupFunc func(ctx context.Context, isbn string) (BookRecord, error)
}

// Search mocks the behavior of a keyword search against the catalog.
func (m *MockCatalogProvider) Search(ctx context.Context, keyword string, maxResults int) ([]BookRecord, error) {
	return m.SearchFunc(ctx, keyword, maxResults)
}

// Lookup mocks the behavior of an isbn lookup against the catalog.
func (m *MockCatalogProvider) Lookup(ctx context.Context, isbn string) (BookRecord, error) {
	return m.LookupFunc(ctx, isbn)
}

type MockRecordWriter struct {
	CreateFunc func(ctx context.Context, payload DestinationPayload, note string) (string, error)
}

// Create mocks the behavior of the destination store record creation.
func (m *MockRecordWriter) Create(ctx context.Context, payload DestinationPayload, note string) (string, error) {
	return m.CreateFunc(ctx, payload, note)
}

type MockImportStorage struct {
	AddFunc    func(ctx context.Context, id string, record ImportRecord) error
	GetOneFunc func(ctx context.Context, id string) (ImportRecord, error)
	GetAllFunc func(ctx context.Context) ([]ImportRecord, error)
	DeleteFunc func(ctx context.Context, id string) error
}

// Add mocks the behavior of history entry creation by the repository.
func (m *MockImportStorage) Add(ctx context.Context, id string, record ImportRecord) error {
	return m.AddFunc(ctx, id, record)
}

// GetOne mocks the behavior of retrieving a history entry by the repository.
func (m *MockImportStorage) GetOne(ctx context.Context, id string) (ImportRecord, error) {
	return m.GetOneFunc(ctx, id)
}

// GetAll mocks the behavior of retrieving all history entries by the repository.
func (m *MockImportStorage) GetAll(ctx context.Context) ([]ImportRecord, error) {
	return m.GetAllFunc(ctx)
}

// Delete mocks the behavior of deleting a history entry by the repository.
func (m *MockImportStorage) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}
