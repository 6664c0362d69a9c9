// Package manifest reads and rewrites a project's pyproject.toml. Only the
// fields this tool touches are interpreted; everything else in the document
// is carried through rewrites untouched.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the project manifest file. Its presence is what makes a
// directory a valid project.
const FileName = "pyproject.toml"

// ProxySourceName is the reserved name of the package-index proxy source.
// At most one source entry with this name may exist in a manifest.
const ProxySourceName = "nexus"

// WriteError reports a manifest that is missing, malformed, or could not
// be rewritten.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Path returns the manifest path for a project directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Exists reports whether the project directory contains a manifest.
func Exists(dir string) bool {
	info, err := os.Stat(Path(dir))
	return err == nil && !info.IsDir()
}

// IncludesSource reports whether the manifest declares the reserved proxy
// source. Read-only.
func IncludesSource(dir string) (bool, error) {
	doc, err := load(dir)
	if err != nil {
		return false, err
	}
	for _, src := range sourceEntries(doc) {
		if name, _ := src["name"].(string); name == ProxySourceName {
			return true, nil
		}
	}
	return false, nil
}

// AddSource inserts the reserved proxy source pointing at indexURL. It is
// add-only-if-absent: adding while the source exists is an error. The
// existence check and the rewrite are not atomic across processes; the CLI
// runs one invocation per process, so this is not guarded.
func AddSource(dir, indexURL string) error {
	doc, err := load(dir)
	if err != nil {
		return err
	}
	entries := sourceEntries(doc)
	for _, src := range entries {
		if name, _ := src["name"].(string); name == ProxySourceName {
			return &WriteError{Path: Path(dir), Err: fmt.Errorf("source %q already declared", ProxySourceName)}
		}
	}
	entry := map[string]any{
		"name":     ProxySourceName,
		"url":      indexURL,
		"priority": "default",
	}
	poetry, err := poetryTable(doc)
	if err != nil {
		return &WriteError{Path: Path(dir), Err: err}
	}
	raw := make([]any, 0, len(entries)+1)
	for _, src := range entries {
		raw = append(raw, src)
	}
	poetry["source"] = append(raw, entry)
	return save(dir, doc)
}

// RemoveSource deletes the reserved proxy source entry. It is
// remove-only-if-present: removing a missing source is an error. Whether a
// derived lock file must be refreshed afterwards is the caller's decision
// (skip it when a full install follows immediately).
func RemoveSource(dir string) error {
	doc, err := load(dir)
	if err != nil {
		return err
	}
	entries := sourceEntries(doc)
	kept := make([]any, 0, len(entries))
	for _, src := range entries {
		if name, _ := src["name"].(string); name != ProxySourceName {
			kept = append(kept, src)
		}
	}
	if len(kept) == len(entries) {
		return &WriteError{Path: Path(dir), Err: fmt.Errorf("source %q not declared", ProxySourceName)}
	}
	poetry, err := poetryTable(doc)
	if err != nil {
		return &WriteError{Path: Path(dir), Err: err}
	}
	if len(kept) == 0 {
		delete(poetry, "source")
	} else {
		poetry["source"] = kept
	}
	return save(dir, doc)
}

// ProjectName returns the project name declared under tool.poetry.name.
func ProjectName(dir string) (string, error) {
	doc, err := load(dir)
	if err != nil {
		return "", err
	}
	poetry, err := poetryTable(doc)
	if err != nil {
		return "", &WriteError{Path: Path(dir), Err: err}
	}
	name, _ := poetry["name"].(string)
	if name == "" {
		return "", &WriteError{Path: Path(dir), Err: fmt.Errorf("tool.poetry.name is not set")}
	}
	return name, nil
}

func load(dir string) (map[string]any, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	return doc, nil
}

// save rewrites the manifest atomically: marshal to a temp file in the
// same directory, then rename over the original.
func save(dir string, doc map[string]any) error {
	path := Path(dir)
	data, err := toml.Marshal(doc)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, FileName+".*")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// poetryTable returns the tool.poetry table, creating it if absent.
func poetryTable(doc map[string]any) (map[string]any, error) {
	tool, ok := doc["tool"].(map[string]any)
	if !ok {
		if doc["tool"] != nil {
			return nil, fmt.Errorf("tool is not a table")
		}
		tool = map[string]any{}
		doc["tool"] = tool
	}
	poetry, ok := tool["poetry"].(map[string]any)
	if !ok {
		if tool["poetry"] != nil {
			return nil, fmt.Errorf("tool.poetry is not a table")
		}
		poetry = map[string]any{}
		tool["poetry"] = poetry
	}
	return poetry, nil
}

// sourceEntries returns the tool.poetry.source array-of-tables entries.
// Entries that are not tables are ignored.
func sourceEntries(doc map[string]any) []map[string]any {
	tool, _ := doc["tool"].(map[string]any)
	poetry, _ := tool["poetry"].(map[string]any)
	raw, _ := poetry["source"].([]any)
	var entries []map[string]any
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			entries = append(entries, m)
		}
	}
	return entries
}
