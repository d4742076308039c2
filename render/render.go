// Package render provides the prompt template renderer used before every
// chain step. Templates use text/template syntax; a placeholder with no
// matching variable fails with MissingVariableError rather than rendering
// "<no value>".
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"sync"
	"text/template"
)

// MissingVariableError indicates a template referenced a variable that was
// not supplied.
type MissingVariableError struct {
	Variable string
}

// Error returns the error message.
func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template references missing variable %q", e.Variable)
}

// missingKeyPattern matches the error text/template emits under
// missingkey=error.
var missingKeyPattern = regexp.MustCompile(`no entry for key "([^"]+)"`)

// Renderer renders prompt templates. Parsed templates are cached by their
// source text, so repeated steps parse once. Safe for concurrent use.
type Renderer struct {
	mu    sync.RWMutex
	cache map[string]*template.Template
}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{cache: make(map[string]*template.Template)}
}

// Render substitutes vars into tmpl. A reference to an absent variable
// returns *MissingVariableError naming it.
func (r *Renderer) Render(tmpl string, vars map[string]any) (string, error) {
	t, err := r.parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		if m := missingKeyPattern.FindStringSubmatch(err.Error()); m != nil {
			return "", &MissingVariableError{Variable: m[1]}
		}
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) parse(tmpl string) (*template.Template, error) {
	r.mu.RLock()
	t, ok := r.cache[tmpl]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[tmpl] = t
	r.mu.Unlock()
	return t, nil
}
