// Package uid generates identifiers: UUIDs for request correlation and
// unguessable tokens for sessions.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
