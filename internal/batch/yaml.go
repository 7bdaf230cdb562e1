package batch

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// decodeYAML also handles JSON, which is a subset of YAML 1.2.
func decodeYAML(data []byte) ([]Record, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &LoadError{Index: -1, Message: err.Error()}
	}
	return f.Events, nil
}
