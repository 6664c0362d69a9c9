package kernel

import (
	"encoding/json"
	"fmt"
	"os"
)

// DescriptorName is the launch descriptor file inside a kernel directory.
const DescriptorName = "kernel.json"

// Descriptor is a partial schema over a kernel launch descriptor: only the
// argv field is interpreted, every other field is kept as raw JSON and
// written back verbatim.
type Descriptor struct {
	Argv []string
	rest map[string]json.RawMessage
}

// LoadDescriptor reads and parses a launch descriptor file.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading launch descriptor: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parsing launch descriptor %s: %w", path, err)
	}
	rawArgv, ok := fields["argv"]
	if !ok {
		return nil, fmt.Errorf("launch descriptor %s has no argv field", path)
	}
	var argv []string
	if err := json.Unmarshal(rawArgv, &argv); err != nil {
		return nil, fmt.Errorf("launch descriptor %s: argv is not a string array: %w", path, err)
	}
	delete(fields, "argv")
	return &Descriptor{Argv: argv, rest: fields}, nil
}

// Save writes the descriptor back, merging the possibly rewritten argv
// with the untouched remaining fields.
func (d *Descriptor) Save(path string) error {
	fields := make(map[string]json.RawMessage, len(d.rest)+1)
	for k, v := range d.rest {
		fields[k] = v
	}
	rawArgv, err := json.Marshal(d.Argv)
	if err != nil {
		return fmt.Errorf("encoding argv: %w", err)
	}
	fields["argv"] = rawArgv
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding launch descriptor: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing launch descriptor: %w", err)
	}
	return nil
}
