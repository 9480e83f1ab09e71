// Package fetch orchestrates reading external documents, converting them to
// normalized text and caching the result. The conversion engine itself is an
// external collaborator behind the Converter interface: bytes in, text out,
// with per-source-type options.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dyluth/chalk/internal/config"
)

// Options configures a single conversion based on the source type.
type Options struct {
	// EnablePlugins turns on the converter's format plugins for generic
	// documents.
	EnablePlugins bool

	// Caption settings are set for image sources, which need a vision model
	// to describe them.
	CaptionModel    string
	CaptionAPIBase  string
	CaptionAPIKey   string

	// DocIntelEndpoint is set for PDF sources.
	DocIntelEndpoint string
}

// Converter turns raw document bytes into normalized text.
type Converter interface {
	Convert(ctx context.Context, data []byte, opts Options) (string, error)
}

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff"}

var pdfExts = []string{".pdf", ".x-pdf"}

// OptionsFor selects converter options for a locator from its file
// extension: caption settings for images, the document-intelligence endpoint
// for PDFs, plugins for everything else.
func OptionsFor(locator string, cfg config.ConverterConfig) Options {
	lower := strings.ToLower(locator)
	switch {
	case hasAnySuffix(lower, imageExts):
		return Options{
			CaptionModel:   cfg.CaptionModel,
			CaptionAPIBase: cfg.CaptionAPIBase,
			CaptionAPIKey:  cfg.CaptionAPIKey,
		}
	case hasAnySuffix(lower, pdfExts):
		return Options{DocIntelEndpoint: cfg.DocIntelEndpoint}
	default:
		return Options{EnablePlugins: true}
	}
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

// TextConverter is a minimal Converter for documents that are already text.
// Rich conversion engines (PDF extraction, image captioning) plug in behind
// the Converter interface in its place.
type TextConverter struct{}

// Convert returns the document bytes as text.
func (TextConverter) Convert(ctx context.Context, data []byte, opts Options) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("document is not valid UTF-8 text")
	}
	return string(data), nil
}
