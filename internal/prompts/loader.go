// Package prompts holds the company classification prompts sent to the LLM.
// Each embedded JSON file maps a prompt name to a template with {{.Key}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var (
	loaded   = make(map[string]map[string]string)
	loadedMu sync.Mutex
)

var placeholderPattern = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9]*)\}\}`)

// NotFoundError reports a prompt file or prompt name that is not embedded.
type NotFoundError struct {
	File  string
	Name  string
	Cause error
}

func (e *NotFoundError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("prompt file %s not embedded: %v", e.File, e.Cause)
	}
	return fmt.Sprintf("prompt %q not defined in %s", e.Name, e.File)
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// MissingValuesError reports placeholders left without a value by Render.
type MissingValuesError struct {
	Name string
	Keys []string
}

func (e *MissingValuesError) Error() string {
	return fmt.Sprintf("prompt %q is missing values for %s", e.Name, strings.Join(e.Keys, ", "))
}

// Get returns the raw template for name in file (e.g. "classification.json").
func Get(file, name string) (string, error) {
	templates, err := load(file)
	if err != nil {
		return "", err
	}
	tmpl, ok := templates[name]
	if !ok {
		return "", &NotFoundError{File: file, Name: name}
	}
	return tmpl, nil
}

// Placeholders lists the distinct keys a template expects, sorted.
func Placeholders(tmpl string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	sort.Strings(keys)
	return keys
}

// Format replaces {{.Key}} placeholders with values from data. Unknown keys are left in place.
func Format(tmpl string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(ph string) string {
		key := placeholderPattern.FindStringSubmatch(ph)[1]
		if v, ok := data[key]; ok {
			return v
		}
		return ph
	})
}

// Render loads a prompt and fills it. Every placeholder in the template must have a value.
func Render(file, name string, data map[string]string) (string, error) {
	tmpl, err := Get(file, name)
	if err != nil {
		return "", err
	}

	var missing []string
	for _, key := range Placeholders(tmpl) {
		if _, ok := data[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return "", &MissingValuesError{Name: name, Keys: missing}
	}
	return Format(tmpl, data), nil
}

func load(file string) (map[string]string, error) {
	loadedMu.Lock()
	defer loadedMu.Unlock()

	if templates, ok := loaded[file]; ok {
		return templates, nil
	}

	raw, err := promptFiles.ReadFile(file)
	if err != nil {
		return nil, &NotFoundError{File: file, Cause: err}
	}
	var templates map[string]string
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", file, err)
	}

	loaded[file] = templates
	return templates, nil
}
