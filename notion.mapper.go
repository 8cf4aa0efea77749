package main

import (
	"strings"
	"time"
)

// Destination property names. The notion database must define these
// columns with the matching types.
const (
	TitleProperty         = "Title"
	AuthorProperty        = "Author"
	PublisherProperty     = "Publisher"
	PublishedDateProperty = "PublishedDate"
	ISBNProperty          = "ISBN"
	CoverImageProperty    = "CoverImage"
)

// TitlePlaceholder replaces a missing book title since the title
// column always requires a value.
const TitlePlaceholder = "Untitled"

// DestinationPayload maps destination property names to their typed
// notion values. It is built fresh from exactly one BookRecord per
// save attempt and never mutated afterwards.
type DestinationPayload map[string]interface{}

// ToPayload converts a canonical book record into the typed properties
// expected by the destination database. Optional fields are entirely
// omitted when empty so absent data never overwrites a column with an
// empty string.
func ToPayload(record BookRecord) DestinationPayload {
	title := record.Title
	if title == "" {
		title = TitlePlaceholder
	}
	payload := DestinationPayload{
		TitleProperty: titleValue(title),
	}

	if record.Author != "" {
		payload[AuthorProperty] = richTextValue(record.Author)
	}

	if record.Publisher != "" {
		payload[PublisherProperty] = richTextValue(record.Publisher)
	}

	if date, ok := NormalizeDate(record.PubDate); ok {
		payload[PublishedDateProperty] = dateValue(date)
	}

	if isbn := preferredISBN(record); isbn != "" {
		payload[ISBNProperty] = richTextValue(isbn)
	}

	if record.Cover != "" {
		payload[CoverImageProperty] = externalFileValue("cover image", record.Cover)
	}

	return payload
}

// NormalizeDate turns a raw catalog date string into the YYYY-MM-DD
// form. It accepts YYYY-MM-DD optionally followed by a time component
// which is discarded, and the 8-digit YYYYMMDD form. Anything else or
// an invalid calendar date yields ok=false: the published date is a
// best-effort enrichment, not a required field.
func NormalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = fields[0]
	}

	layout := "2006-01-02"
	if !strings.Contains(raw, "-") {
		if len(raw) != 8 {
			return "", false
		}
		layout = "20060102"
	}

	date, err := time.Parse(layout, raw)
	if err != nil {
		return "", false
	}
	return date.Format("2006-01-02"), true
}

// preferredISBN prefers the isbn13 over the isbn10 form. Search
// results reliably carry at most one of the two.
func preferredISBN(record BookRecord) string {
	if record.ISBN13 != "" {
		return record.ISBN13
	}
	return record.ISBN
}

func titleValue(content string) map[string]interface{} {
	return map[string]interface{}{
		"title": []interface{}{
			map[string]interface{}{
				"text": map[string]interface{}{"content": content},
			},
		},
	}
}

func richTextValue(content string) map[string]interface{} {
	return map[string]interface{}{
		"rich_text": []interface{}{
			map[string]interface{}{
				"text": map[string]interface{}{"content": content},
			},
		},
	}
}

func dateValue(start string) map[string]interface{} {
	return map[string]interface{}{
		"date": map[string]interface{}{"start": start},
	}
}

func externalFileValue(name, url string) map[string]interface{} {
	return map[string]interface{}{
		"files": []interface{}{
			map[string]interface{}{
				"type":     "external",
				"name":     name,
				"external": map[string]interface{}{"url": url},
			},
		},
	}
}
