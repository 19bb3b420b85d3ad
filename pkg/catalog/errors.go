package catalog

import (
	"errors"
	"fmt"
)

// Configuration errors returned by New.
var (
	ErrInvalidBaseURL = errors.New("invalid base url")
	ErrInvalidPacing  = errors.New("invalid request pacing")
)

// ErrorClass represents a classification of catalog request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents response bodies that do not match the envelope.
	ErrorClassDecode ErrorClass = "decode"
)

// TransportError is returned when the catalog API could not be reached or
// answered with a non-2xx status.
type TransportError struct {
	// Page is the requested page number
	Page int

	// StatusCode is 0 for network failures
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("catalog %s error (page %d): %s: %v",
			e.ErrorClass, e.Page, e.Message, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("catalog %s error (page %d, status %d): %s: %v",
			e.ErrorClass, e.Page, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("catalog %s error (page %d, status %d): %s",
		e.ErrorClass, e.Page, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response body does not parse into a Page.
type DecodeError struct {
	Page int
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("catalog decode error (page %d): %v", e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to an error class.
// Returns "" for successful responses.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
