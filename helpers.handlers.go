package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

// DecodeImportRequestBody is a helper function to read the content of a book import request.
func DecodeImportRequestBody(r *http.Request, req *ImportRequest) error {
	if r.Body == nil {
		return errors.New("invalid import request body")
	}
	return json.NewDecoder(r.Body).Decode(req)
}

// ValidateImportRequestBody is a helper function to check if the content of a book import request is valid.
// A book without any title and without any isbn cannot be upgraded nor titled, so it is rejected upfront.
func ValidateImportRequestBody(req *ImportRequest) error {
	if len(req.Book.Title) == 0 && len(preferredISBN(req.Book)) == 0 {
		return missingFieldError("book title or isbn")
	}
	return nil
}
