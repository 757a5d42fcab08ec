// Package catalogfile reads product documents from JSON and YAML files for
// bulk catalog loads.
package catalogfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Product is one product document ready to be sent to the catalog.
type Product struct {
	ID   string
	Path string
	Data map[string]any
}

// ErrMissingID is returned when a file holding several products has an
// entry without an "id" field.
var ErrMissingID = errors.New("product has no id")

// Extensions lists the file extensions LoadDir picks up.
var Extensions = []string{".json", ".yaml", ".yml"}

func supported(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// LoadDir reads every supported file directly inside dir, in name order.
// Subdirectories, hidden files and other extensions are skipped.
func LoadDir(dir string) ([]Product, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read product directory: %w", err)
	}

	var products []Product
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || !supported(entry.Name()) {
			continue
		}
		loaded, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		products = append(products, loaded...)
	}
	return products, nil
}

// LoadFile reads one file. A single document takes its id from its "id"
// field, falling back to the file name without extension. A file holding a
// list yields one product per element and every element needs an id.
func LoadFile(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read product file: %w", err)
	}

	doc, err := decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	switch v := doc.(type) {
	case map[string]any:
		id := idOf(v)
		if id == "" {
			id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return []Product{{ID: id, Path: path, Data: v}}, nil
	case []any:
		products := make([]Product, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: product must be an object", path, i)
			}
			id := idOf(m)
			if id == "" {
				return nil, fmt.Errorf("%s[%d]: %w", path, i, ErrMissingID)
			}
			products = append(products, Product{ID: id, Path: path, Data: m})
		}
		return products, nil
	default:
		return nil, fmt.Errorf("%s: product document must be an object or a list of objects", path)
	}
}

func decode(path string, data []byte) (any, error) {
	var doc any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if node.Kind == 0 {
		return nil, nil
	}
	idsAsText(&node)
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}
	return normalize(doc), nil
}

// idsAsText retags plain scalar ids of the top-level product documents as
// strings, so that "id: 007" keeps its leading zeros instead of becoming 7.
func idsAsText(n *yaml.Node) {
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			idsAsText(c)
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			if item.Kind == yaml.MappingNode {
				idsAsText(item)
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Value != "id" || value.Kind != yaml.ScalarNode {
				continue
			}
			switch value.Tag {
			case "!!int", "!!float", "!!bool":
				value.Tag = "!!str"
			}
		}
	}
}

// normalize converts YAML maps with non-string keys so the result always
// encodes as JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}

func idOf(m map[string]any) string {
	switch id := m["id"].(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	case int:
		return strconv.Itoa(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}
