package main

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
)

// The catalog answers with plain json, jsonp-wrapped json or xml
// depending on the account settings and sometimes rejects the json
// output entirely. errRetryAsXML tells the client to re-issue the
// same request once with the xml output selector.
var errRetryAsXML = errors.New("catalog: json output rejected, retry as xml")

const jsonpCallbackPrefix = "callback("

// forbidden format markers inside the catalog error message. The
// upstream service reports them in korean, so both forms are matched.
var forbiddenFormatMarkers = []string{"금지", "forbidden"}

// DecodeItems turns a raw catalog response body into a flat list of
// string-keyed records. It strips a jsonp wrapper when present then
// attempts a json parse. A json parse failure or a "format forbidden"
// error object yields errRetryAsXML instead of a hard failure. A
// well-formed body without any item is a valid zero-results outcome.
func DecodeItems(raw []byte) ([]map[string]string, error) {
	body := stripJSONPWrapper(bytes.TrimSpace(raw))

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errRetryAsXML
	}

	if catErr := extractCatalogError(payload); catErr != nil {
		if isForbiddenFormat(catErr.Message) {
			return nil, errRetryAsXML
		}
		return nil, catErr
	}

	rawItems, ok := payload["item"].([]interface{})
	if !ok {
		return []map[string]string{}, nil
	}

	items := make([]map[string]string, 0, len(rawItems))
	for _, rawItem := range rawItems {
		fields, ok := rawItem.(map[string]interface{})
		if !ok {
			continue
		}
		items = append(items, flattenJSONItem(fields))
	}
	return items, nil
}

// DecodeXMLItems parses repeated <item> elements and flattens each
// child element into a record keyed by its local tag name, namespace
// prefixes stripped. Empty element text maps to an empty string.
func DecodeXMLItems(raw []byte) ([]map[string]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	items := []map[string]string{}
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return nil, &MalformedResponseError{Format: "xml", Err: err}
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "item" {
			continue
		}

		item, err := decodeXMLItem(decoder)
		if err != nil {
			return nil, &MalformedResponseError{Format: "xml", Err: err}
		}
		if len(item) > 0 {
			items = append(items, item)
		}
	}
}

// stripJSONPWrapper removes the callback(...) envelope. Both the `)`
// and `);` trailers are served by the catalog.
func stripJSONPWrapper(body []byte) []byte {
	if !bytes.HasPrefix(body, []byte(jsonpCallbackPrefix)) {
		return body
	}
	body = body[len(jsonpCallbackPrefix):]
	switch {
	case bytes.HasSuffix(body, []byte(");")):
		body = body[:len(body)-2]
	case bytes.HasSuffix(body, []byte(")")):
		body = body[:len(body)-1]
	}
	return body
}

// extractCatalogError returns the error object reported inside a
// well-formed catalog response, or nil if the response carries none.
func extractCatalogError(payload map[string]interface{}) *CatalogError {
	_, hasCode := payload["errorCode"]
	_, hasMessage := payload["errorMessage"]
	if !hasCode && !hasMessage {
		return nil
	}
	catErr := &CatalogError{Message: "unknown catalog error"}
	if code, ok := payload["errorCode"].(float64); ok {
		catErr.Code = int(code)
	}
	if message, ok := payload["errorMessage"].(string); ok && message != "" {
		catErr.Message = message
	}
	return catErr
}

func isForbiddenFormat(message string) bool {
	lowered := strings.ToLower(message)
	for _, marker := range forbiddenFormatMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// flattenJSONItem coerces scalar field values to strings and skips
// anything nested. The mapper only cares about flat text fields.
func flattenJSONItem(fields map[string]interface{}) map[string]string {
	item := make(map[string]string, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			item[key] = v
		case float64:
			item[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			item[key] = strconv.FormatBool(v)
		}
	}
	return item
}

func decodeXMLItem(decoder *xml.Decoder) (map[string]string, error) {
	item := make(map[string]string)
	for {
		token, err := decoder.Token()
		if err != nil {
			// EOF here means an unclosed <item> element.
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			var text struct {
				Value string `xml:",chardata"`
			}
			if err := decoder.DecodeElement(&text, &t); err != nil {
				return nil, err
			}
			item[t.Name.Local] = strings.TrimSpace(text.Value)
		case xml.EndElement:
			if t.Name.Local == "item" {
				return item, nil
			}
		}
	}
}
