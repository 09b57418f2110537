// Package wordlist loads the dictionary used as the sampling pool for the
// string column.
package wordlist

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultPath is the conventional location of the system dictionary.
const DefaultPath = "/usr/share/dict/words"

// Common errors for word list loading
var (
	ErrInputUnavailable = errors.New("input unavailable")
	ErrEmptyWordList    = errors.New("word list is empty")
)

// WordList is an ordered sequence of lower-cased words.
// Duplicates and empty entries are kept as read.
type WordList []string

// Load reads the whole file at path and splits it on '\n'.
// A trailing newline yields a trailing empty word.
func Load(path string) (WordList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputUnavailable, err)
	}
	return Parse(string(raw)), nil
}

// Parse splits text on '\n' and lower-cases every element.
func Parse(text string) WordList {
	parts := strings.Split(text, "\n")
	words := make(WordList, len(parts))
	for i, p := range parts {
		words[i] = strings.ToLower(p)
	}
	return words
}

// Len returns the number of entries, duplicates included.
func (w WordList) Len() int {
	return len(w)
}

// Set returns the distinct words as a lookup set.
func (w WordList) Set() map[string]struct{} {
	set := make(map[string]struct{}, len(w))
	for _, word := range w {
		set[word] = struct{}{}
	}
	return set
}

// Contains reports whether word is in the list.
func (w WordList) Contains(word string) bool {
	for _, candidate := range w {
		if candidate == word {
			return true
		}
	}
	return false
}
