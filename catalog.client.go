package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

var _ CatalogProvider = (*AladinClient)(nil) // ensure AladinClient implements CatalogProvider.

// AladinClient queries the aladin open api by keyword or by isbn and
// maps whatever format the service answered with into BookRecord
// values. Each call is stateless: the only retry ever performed is the
// one-shot json to xml output fallback driven by the decoder.
type AladinClient struct {
	logger *zap.Logger
	config *CatalogConfig
	client *http.Client
}

// NewAladinClient provides a ready to use catalog client with the
// per-call timeout taken from the configuration.
func NewAladinClient(logger *zap.Logger, config *CatalogConfig) *AladinClient {
	return &AladinClient{
		logger: logger,
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Search issues a keyword search against the catalog and returns the
// matching records. It fails with ConfigError before any request goes
// out when the api key is not set.
func (c *AladinClient) Search(ctx context.Context, keyword string, maxResults int) ([]BookRecord, error) {
	if c.config.APIKey == "" {
		return nil, &ConfigError{Setting: "catalog api key"}
	}
	if maxResults <= 0 {
		maxResults = c.config.MaxResults
	}

	params := c.baseParams()
	params.Set("Query", keyword)
	params.Set("QueryType", "Keyword")
	params.Set("MaxResults", strconv.Itoa(maxResults))
	params.Set("start", "1")
	params.Set("SearchTarget", "Book")

	items, err := c.fetchItems(ctx, c.config.SearchURL, params)
	if err != nil {
		return nil, err
	}

	records := make([]BookRecord, 0, len(items))
	for _, item := range items {
		records = append(records, mapItemToRecord(item))
	}
	c.logger.Info("catalog: search done", zap.String("keyword", keyword), zap.Int("records", len(records)))
	return records, nil
}

// Lookup fetches the full record of a single book by its isbn. The
// catalog answers lookups with an item list too: an empty list means
// the book does not exist, extra entries beyond the first one are
// discarded as the lookup is expected to be singular.
func (c *AladinClient) Lookup(ctx context.Context, isbn string) (BookRecord, error) {
	if c.config.APIKey == "" {
		return BookRecord{}, &ConfigError{Setting: "catalog api key"}
	}

	params := c.baseParams()
	params.Set("itemIdType", "ISBN")
	params.Set("ItemId", isbn)

	items, err := c.fetchItems(ctx, c.config.LookupURL, params)
	if err != nil {
		return BookRecord{}, err
	}
	if len(items) == 0 {
		return BookRecord{}, ErrBookNotFound
	}

	record := mapItemToRecord(items[0])
	c.logger.Info("catalog: lookup done", zap.String("isbn", isbn), zap.String("title", record.Title))
	return record, nil
}

// baseParams returns the fixed target parameters shared by the search
// and lookup endpoints.
func (c *AladinClient) baseParams() url.Values {
	params := url.Values{}
	params.Set("ttbkey", c.config.APIKey)
	params.Set("output", "js")
	params.Set("Version", c.config.Version)
	params.Set("Cover", c.config.CoverSize)
	return params
}

// fetchItems runs one request through the decoder state machine. When
// the decoder signals that the json output was rejected, the same
// request is re-issued once with the xml output selector and decoded
// as xml directly. A second failure is surfaced, never retried.
func (c *AladinClient) fetchItems(ctx context.Context, endpoint string, params url.Values) ([]map[string]string, error) {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	items, err := DecodeItems(body)
	if errors.Is(err, errRetryAsXML) {
		c.logger.Info("catalog: json output rejected, retrying as xml", zap.String("endpoint", endpoint))
		params.Set("output", "xml")
		body, err = c.get(ctx, endpoint, params)
		if err != nil {
			return nil, err
		}
		return DecodeXMLItems(body)
	}
	return items, err
}

func (c *AladinClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &TransportError{Op: "catalog request build", Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "catalog call", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: "catalog call", Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "catalog response read", Err: err}
	}
	return body, nil
}

// mapItemToRecord maps one decoded record by direct field
// correspondence. Unrecognized keys are ignored and missing keys
// leave the field empty.
func mapItemToRecord(item map[string]string) BookRecord {
	return BookRecord{
		Title:       item["title"],
		Author:      item["author"],
		Publisher:   item["publisher"],
		PubDate:     item["pubDate"],
		ISBN:        item["isbn"],
		ISBN13:      item["isbn13"],
		Cover:       item["cover"],
		Link:        item["link"],
		Description: item["description"],
	}
}
