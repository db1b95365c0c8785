package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/daybook/pkg/core"
)

// Codec defines how the aggregate is written to and read from one format.
type Codec interface {
	Encode(data core.AppData) ([]byte, error)
	Decode(b []byte) (core.AppData, error)
}

// DefaultCodecs returns the standard set of codecs keyed by file extension.
func DefaultCodecs() map[string]Codec {
	return map[string]Codec{
		".json":    JSONCodec{},
		".yaml":    YAMLCodec{},
		".yml":     YAMLCodec{},
		".msgpack": MsgpackCodec{},
		".mpk":     MsgpackCodec{},
	}
}

// --- JSON ---

// JSONCodec is the format of the data file.
type JSONCodec struct {
	// Indent pretty-prints the output (exports only; the data file is compact).
	Indent bool
}

func (c JSONCodec) Encode(data core.AppData) ([]byte, error) {
	data.Normalize()
	if c.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

func (c JSONCodec) Decode(b []byte) (core.AppData, error) {
	var data core.AppData
	if err := json.Unmarshal(b, &data); err != nil {
		return core.AppData{}, fmt.Errorf("invalid json: %w", err)
	}
	return finish(data), nil
}

// --- YAML ---

// YAMLCodec reads and writes the aggregate as YAML.
type YAMLCodec struct{}

func (YAMLCodec) Encode(data core.AppData) ([]byte, error) {
	data.Normalize()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (YAMLCodec) Decode(b []byte) (core.AppData, error) {
	var data core.AppData
	if err := yaml.Unmarshal(b, &data); err != nil {
		return core.AppData{}, fmt.Errorf("invalid yaml: %w", err)
	}
	return finish(data), nil
}

// --- MessagePack ---

// MsgpackCodec reads and writes the aggregate as MessagePack, reusing the
// json field names.
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(data core.AppData) ([]byte, error) {
	data.Normalize()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Decode(b []byte) (core.AppData, error) {
	var data core.AppData
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&data); err != nil {
		return core.AppData{}, fmt.Errorf("invalid msgpack: %w", err)
	}
	return finish(data), nil
}

// finish normalizes decoded data: empty collections and UTC timestamps.
func finish(data core.AppData) core.AppData {
	data.Normalize()
	for i := range data.Todos {
		data.Todos[i].CreatedAt = data.Todos[i].CreatedAt.UTC()
		data.Todos[i].UpdatedAt = data.Todos[i].UpdatedAt.UTC()
	}
	for i := range data.Notes {
		data.Notes[i].CreatedAt = data.Notes[i].CreatedAt.UTC()
		data.Notes[i].UpdatedAt = data.Notes[i].UpdatedAt.UTC()
	}
	for i := range data.Goals {
		data.Goals[i].CreatedAt = data.Goals[i].CreatedAt.UTC()
		data.Goals[i].UpdatedAt = data.Goals[i].UpdatedAt.UTC()
	}
	for i := range data.JournalEntries {
		data.JournalEntries[i].Date = data.JournalEntries[i].Date.UTC()
	}
	for i := range data.PomodoroSessions {
		data.PomodoroSessions[i].CompletedAt = data.PomodoroSessions[i].CompletedAt.UTC()
	}
	return data
}

func (r *Repository) codecFor(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[ext]
	if !ok {
		return nil, fmt.Errorf("no codec registered for %q", ext)
	}
	return c, nil
}

// Export writes data to path in the format implied by its extension.
func (r *Repository) Export(data core.AppData, path string) error {
	c, err := r.codecFor(path)
	if err != nil {
		return err
	}
	if jc, ok := c.(JSONCodec); ok {
		jc.Indent = true
		c = jc
	}
	raw, err := c.Encode(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := writeFileAtomic(path, raw, 0644); err != nil {
		return err
	}
	r.config.Logger.Info("exported app data", "path", path)
	return nil
}

// Import reads an aggregate from path in the format implied by its
// extension. JSON input goes through the same validation as the data file.
func (r *Repository) Import(path string) (core.AppData, error) {
	c, err := r.codecFor(path)
	if err != nil {
		return core.AppData{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return core.AppData{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if _, ok := c.(JSONCodec); ok {
		data, err := r.decode(raw)
		if err != nil {
			return core.AppData{}, core.Corrupt("import", fmt.Errorf("%s: %w", path, err))
		}
		return data, nil
	}
	data, err := c.Decode(raw)
	if err != nil {
		return core.AppData{}, core.Corrupt("import", fmt.Errorf("%s: %w", path, err))
	}
	return data, nil
}
