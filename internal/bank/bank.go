// Package bank loads the fixed question set sessions are built from.
package bank

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/validator"
)

//go:embed default.yaml
var defaultBank []byte

// ValidationError lists every problem found in a question bank.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "question bank validation failed: " + strings.Join(parts, "; ")
}

// Default returns the built-in question bank.
func Default() (*model.QuestionBank, error) {
	b, err := parseYAML(defaultBank)
	if err != nil {
		return nil, fmt.Errorf("parse default bank: %w", err)
	}
	return normalize(b)
}

// Load reads a bank from a .json, .yaml or .yml file.
func Load(path string) (*model.QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	var b model.QuestionBank
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		b, err = parseJSON(data)
	default:
		b, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}
	return normalize(b)
}

// LoadOrDefault loads path, or the built-in bank when path is empty.
func LoadOrDefault(path string) (*model.QuestionBank, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

func parseJSON(data []byte) (model.QuestionBank, error) {
	var b model.QuestionBank
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&b); err != nil {
		return model.QuestionBank{}, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return model.QuestionBank{}, errors.New("parse json: multiple documents are not supported")
		}
		return model.QuestionBank{}, fmt.Errorf("parse json: %w", err)
	}
	return b, nil
}

func parseYAML(data []byte) (model.QuestionBank, error) {
	var b model.QuestionBank
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&b); err != nil {
		return model.QuestionBank{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return model.QuestionBank{}, errors.New("parse yaml: multiple documents are not supported")
		}
		return model.QuestionBank{}, fmt.Errorf("parse yaml: %w", err)
	}
	return b, nil
}

// normalize trims text, fills missing IDs, clears selections and validates.
func normalize(b model.QuestionBank) (*model.QuestionBank, error) {
	b.Title = strings.TrimSpace(b.Title)
	for i := range b.Questions {
		q := &b.Questions[i]
		q.ID = strings.TrimSpace(q.ID)
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		q.Prompt = strings.TrimSpace(q.Prompt)
		for j := range q.Options {
			q.Options[j] = strings.TrimSpace(q.Options[j])
		}
		q.SelectedIndex = model.Unanswered
	}

	fields := validator.Struct(b)
	if fields == nil {
		fields = map[string]string{}
	}

	seen := make(map[string]int, len(b.Questions))
	for i, q := range b.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		if len(q.Options) >= 2 && !q.HasOption(q.CorrectIndex) {
			fields[prefix+".correct"] = fmt.Sprintf("must address one of the %d answers", len(q.Options))
		}
		if first, dup := seen[q.ID]; dup {
			fields[prefix+".id"] = fmt.Sprintf("duplicate id %q (first used by questions[%d])", q.ID, first)
		} else {
			seen[q.ID] = i
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return &b, nil
}
