package wordlist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeWords(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write word file: %v", err)
	}
	return path
}

func TestLoadLowercases(t *testing.T) {
	path := writeWords(t, "Apple\nBANANA\ncherry")

	words, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := WordList{"apple", "banana", "cherry"}
	if diff := cmp.Diff(want, words); diff != "" {
		t.Errorf("Unexpected words (-want +got):\n%s", diff)
	}
}

func TestLoadKeepsTrailingEmptyWord(t *testing.T) {
	path := writeWords(t, "a\nb\n")

	words, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if words.Len() != 3 {
		t.Fatalf("Expected 3 entries, got %d", words.Len())
	}
	if words[2] != "" {
		t.Errorf("Expected trailing empty word, got %q", words[2])
	}
}

func TestLoadKeepsDuplicates(t *testing.T) {
	path := writeWords(t, "Go\ngo\nGO")

	words, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if words.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", words.Len())
	}
	if len(words.Set()) != 1 {
		t.Errorf("Expected 1 distinct word, got %d", len(words.Set()))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.Is(err, ErrInputUnavailable) {
		t.Errorf("Expected ErrInputUnavailable, got %v", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeWords(t, "")

	words, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(WordList{""}, words); diff != "" {
		t.Errorf("Unexpected words (-want +got):\n%s", diff)
	}
}

func TestContains(t *testing.T) {
	words := Parse("alpha\nBeta")

	if !words.Contains("beta") {
		t.Error("Expected lower-cased 'beta' to be present")
	}
	if words.Contains("Beta") {
		t.Error("Original casing should not be present")
	}
}

// FuzzParse checks that parsing never loses or invents entries.
// Run with: go test -fuzz=FuzzParse -fuzztime=30s ./wordlist/
func FuzzParse(f *testing.F) {
	f.Add("")
	f.Add("a\nb\n")
	f.Add("\n\n\n")
	f.Add("ÀÉÎ\nstraße")

	f.Fuzz(func(t *testing.T, text string) {
		words := Parse(text)
		newlines := 0
		for _, r := range text {
			if r == '\n' {
				newlines++
			}
		}
		if words.Len() != newlines+1 {
			t.Errorf("Expected %d entries, got %d", newlines+1, words.Len())
		}
	})
}
