// Copyright 2024-2026 Aiku AI

// Package langdetect tags post content with a detected language.
package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detector detects the language of plain text. It is safe for concurrent
// use and should be constructed once: building the underlying models is
// expensive.
type Detector struct {
	inner lingua.LanguageDetector
}

// New builds a Detector over all supported languages.
func New() *Detector {
	return &Detector{
		inner: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

// Detect returns the ISO 639-1 tag of the detected language. It reports
// false when the input is empty, all-whitespace, or yields no reliable
// detection.
func (d *Detector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	language, ok := d.inner.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(language.IsoCode639_1().String()), true
}
