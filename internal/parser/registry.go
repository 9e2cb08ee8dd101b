// Package parser routes detected MIME types to format parsers.
package parser

import (
	"fmt"

	"agridocs/internal/port"
)

// FormatFactory creates a FormatParser. Factories take no config;
// format parsers are stateless.
type FormatFactory func() port.FormatParser

// registry of format parser factories, populated by init() in each
// format package or explicitly via RegisterFormat.
var formats = map[string]FormatFactory{}

// RegisterFormat registers a parser factory for one or more MIME types.
func RegisterFormat(factory FormatFactory, mimeTypes ...string) {
	for _, m := range mimeTypes {
		formats[m] = factory
	}
}

// ForMIME returns a parser for the detected MIME type.
func ForMIME(mimeType string) (port.FormatParser, error) {
	factory, ok := formats[mimeType]
	if !ok {
		return nil, fmt.Errorf("no parser registered for %s", mimeType)
	}
	return factory(), nil
}

// Supported reports whether a parser exists for the MIME type.
func Supported(mimeType string) bool {
	_, ok := formats[mimeType]
	return ok
}
