// Package faq answers clinic questions by embedding similarity over a fixed question/answer corpus.
package faq

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed clinic_info.json
var defaultCorpus []byte

// Entry is one question/answer pair. Keywords are folded into the indexed text.
type Entry struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords,omitempty"`
}

func (e Entry) indexText() string {
	if len(e.Keywords) == 0 {
		return e.Question
	}
	return e.Question + " " + strings.Join(e.Keywords, " ")
}

// DefaultCorpus returns the embedded clinic FAQ.
func DefaultCorpus() ([]Entry, error) {
	return decodeCorpus(defaultCorpus)
}

// LoadCorpus reads a corpus from path, or the embedded one when path is empty.
func LoadCorpus(path string) ([]Entry, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCorpus()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("faq: read %s: %w", path, err)
	}
	return decodeCorpus(data)
}

func decodeCorpus(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("faq: decode corpus: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
			return nil, fmt.Errorf("faq: entry %d needs question and answer", i)
		}
	}
	return entries, nil
}
