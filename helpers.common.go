package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var ErrBookNotFound = errors.New("book not found")
var ErrImportNotFound = errors.New("import record not found")

type (
	ContextKey        string
	missingFieldError string
)

const (
	ImportIDPrefix          string     = "i"
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

// ConfigError reports a missing or invalid credential/setting. It is
// raised before any request goes out and should not be retried.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return "missing or invalid configuration: " + e.Setting
}

// TransportError reports a network or http-level failure. The whole
// operation may be retried manually by the caller.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure on %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports a response body which could not be
// decoded after the one-shot xml fallback was exhausted.
type MalformedResponseError struct {
	Format string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response: %v", e.Format, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// CatalogError carries an error object reported by the catalog service
// itself inside an otherwise well-formed response.
type CatalogError struct {
	Code    int
	Message string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog api error %d: %s", e.Code, e.Message)
}

// PartialWriteError reports that the record was created but appending
// its body note failed. The created page id is kept so the caller can
// still report overall success with a warning.
type PartialWriteError struct {
	PageID string
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("record %s created but note append failed: %v", e.PageID, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val := ctx.Value(contextKey); val != nil {
		return val.(string)
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val := ctx.Value(RequestNumberContextKey); val != nil {
		return val.(uint64)
	}
	return 0
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result. This
// helps know if the App is running in a docker container or not.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

var isbnSeparators = regexp.MustCompile(`[-\s]`)

// CleanISBN removes hyphens and whitespace from an isbn string so both
// the 978-89-xxx and plain digit forms are accepted.
func CleanISBN(isbn string) string {
	return isbnSeparators.ReplaceAllString(strings.TrimSpace(isbn), "")
}
