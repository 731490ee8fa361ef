package utils

import (
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// spoolTimeLayout keeps the 12-hour clock used by existing spool directories
const spoolTimeLayout = "2006_01_02_03_04_05"

const fallbackFileName = "attachment.pdf"

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger   *zap.Logger
	location *time.Location
}

// NewTextProcessor creates a new TextProcessor that names spool files in UTC
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger:   logger,
		location: time.UTC,
	}
}

// InLocation returns a copy that formats spool timestamps in loc
func (tp *TextProcessor) InLocation(loc *time.Location) *TextProcessor {
	return &TextProcessor{logger: tp.logger, location: loc}
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	return truncated + "..."
}

// SanitizeUTF8 drops invalid UTF-8 sequences
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(string(result))))

	return string(result)
}

var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	"\x00", "",
	"\n", " ",
	"\r", " ",
)

// SanitizeFileName makes an attachment name safe to use as a single path element
func (tp *TextProcessor) SanitizeFileName(name string) string {
	clean := strings.TrimSpace(fileNameReplacer.Replace(tp.SanitizeUTF8(name)))
	clean = strings.TrimLeft(clean, ".")
	if clean == "" {
		return fallbackFileName
	}
	return clean
}

// SpoolFileName names a dispatched document after its send time and its
// attachment file name, e.g. 2024_03_01_02_15_00-Faktura_1.pdf
func (tp *TextProcessor) SpoolFileName(sentAt time.Time, fileName string) string {
	return sentAt.In(tp.location).Format(spoolTimeLayout) + "-" + tp.SanitizeFileName(fileName)
}
