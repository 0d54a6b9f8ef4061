// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrManifestNotObject is returned when a package manifest is not a JSON object.
var ErrManifestNotObject = errors.New("package manifest is not a JSON object")

// privateKeyPrefix marks manifest keys written by package managers.
const privateKeyPrefix = "_"

// StripPrivateKeys removes top-level keys starting with "_" from a JSON
// object and returns it in compact form. The remaining keys keep their
// original order. A key that appears more than once keeps its first
// position and its last value.
func StripPrivateKeys(content string) (string, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("parsing manifest: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", ErrManifestNotObject
	}

	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("parsing manifest: %w", err)
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return "", fmt.Errorf("parsing manifest key %q: %w", key, err)
		}
		if strings.HasPrefix(key, privateKeyPrefix) {
			continue
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return "", fmt.Errorf("parsing manifest: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("parsing manifest: trailing data after object")
	}

	var out bytes.Buffer
	out.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			out.WriteByte(',')
		}
		if err := writeKey(&out, key); err != nil {
			return "", err
		}
		out.WriteByte(':')
		if err := json.Compact(&out, values[key]); err != nil {
			return "", fmt.Errorf("compacting manifest key %q: %w", key, err)
		}
	}
	out.WriteByte('}')
	return out.String(), nil
}

func writeKey(out *bytes.Buffer, key string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(key); err != nil {
		return fmt.Errorf("encoding manifest key %q: %w", key, err)
	}
	out.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return nil
}
