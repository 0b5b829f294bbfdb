// Copyright 2024-2026 Aiku AI

package langdetect

import (
	"testing"
)

func TestDetect(t *testing.T) {
	t.Parallel()
	detector := New()

	lang, ok := detector.Detect("The quick brown fox jumps over the lazy dog and runs away into the forest.")
	if !ok {
		t.Fatal("expected a detection for clear English prose")
	}
	if lang != "en" {
		t.Errorf("language: got %q, want %q", lang, "en")
	}

	lang, ok = detector.Detect("这是一段用来测试语言检测功能的中文句子，内容足够长。")
	if !ok {
		t.Fatal("expected a detection for clear Chinese prose")
	}
	if lang != "zh" {
		t.Errorf("language: got %q, want %q", lang, "zh")
	}
}

func TestDetectNoSignal(t *testing.T) {
	t.Parallel()
	detector := New()

	for _, input := range []string{"", "   ", "\n\t"} {
		if lang, ok := detector.Detect(input); ok {
			t.Errorf("Detect(%q): got %q, want no detection", input, lang)
		}
	}
}
