package utils

import (
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// TextProcessor provides utilities for processing captured email text
type TextProcessor struct {
	logger  *zap.Logger
	decoder *mime.WordDecoder
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextProcessor{
		logger: logger,
		decoder: &mime.WordDecoder{
			CharsetReader: charsetReader,
		},
	}
}

// charsetReader converts any charset known to the WHATWG index into UTF-8
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// DecodeHeader decodes RFC 2047 encoded words in a header value.
// Values that fail to decode are returned as-is, sanitized.
func (tp *TextProcessor) DecodeHeader(value string) string {
	decoded, err := tp.decoder.DecodeHeader(value)
	if err != nil {
		tp.logger.Debug("Failed to decode header", zap.String("value", value), zap.Error(err))
		return tp.SanitizeUTF8(value)
	}
	return tp.SanitizeUTF8(strings.TrimSpace(decoded))
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	// If no limit or text is already within limits, return as is
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + "…"
}

// SanitizeUTF8 drops invalid UTF-8 bytes from the string
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	return strings.ToValidUTF8(text, "")
}

// Preview collapses whitespace and truncates text for one-line display
func (tp *TextProcessor) Preview(text string, maxSize int) string {
	return tp.TruncateText(strings.Join(strings.Fields(tp.SanitizeUTF8(text)), " "), maxSize)
}
