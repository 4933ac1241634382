package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

type fileFormat int

const (
	formatUnknown fileFormat = iota
	formatJSON
	formatYAML
)

func (f fileFormat) String() string {
	if f == formatJSON {
		return "JSON"
	}
	return "YAML"
}

// formatOf picks the format from the file extension. Without a known extension, anything that
// is valid JSON is read as JSON and everything else as YAML.
func formatOf(path string, data []byte) fileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON
	case ".yaml", ".yml":
		return formatYAML
	}
	if json.Valid(data) {
		return formatJSON
	}
	return formatYAML
}

// decodeConfig decodes the contents of the config file at path into c. Settings that the file
// leaves out keep whatever value c already has. A setting the config does not know about is an
// error, so that a misspelled key is not silently ignored. Errors name the file.
func decodeConfig(path string, data []byte, c *HarnessConfig) error {
	format := formatOf(path, data)
	jsonData := data
	if format == formatYAML {
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("config file %q is not valid YAML: %w", path, err)
		}
		normalized, err := normalizeYAML(raw, "")
		if err != nil {
			return fmt.Errorf("config file %q: %w", path, err)
		}
		if jsonData, err = json.Marshal(normalized); err != nil {
			return fmt.Errorf("config file %q: %w", path, err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("config file %q (%s): %w", path, format, err)
	}
	return nil
}

// normalizeYAML converts decoded YAML into values that encoding/json can marshal. at is the
// location of data within the document, used in errors.
func normalizeYAML(data interface{}, at string) (interface{}, error) {
	switch data := data.(type) {
	case []interface{}:
		out := make([]interface{}, 0, len(data))
		for i, v := range data {
			v1, err := normalizeYAML(v, fmt.Sprintf("%s[%d]", at, i))
			if err != nil {
				return nil, err
			}
			out = append(out, v1)
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(data))
		for k, v := range data {
			v1, err := normalizeYAML(v, joinKey(at, k))
			if err != nil {
				return nil, err
			}
			out[k] = v1
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(data))
		for k, v := range data {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("key %v at %q is a %T; only string keys are allowed", k, at, k)
			}
			v1, err := normalizeYAML(v, joinKey(at, key))
			if err != nil {
				return nil, err
			}
			out[key] = v1
		}
		return out, nil
	default:
		return data, nil
	}
}

func joinKey(at, key string) string {
	if at == "" {
		return key
	}
	return at + "." + key
}
