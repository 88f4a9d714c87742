package jsonutils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFile marshals data into pretty JSON and writes it at path, creating missing parent
// folders. When overwrite is false and the file already exists, an error wrapping fs.ErrExist
// is returned and the file is untouched.
func WriteFile(path string, data any, overwrite bool) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		return err
	}
	if _, err = f.Write(b); err != nil {
		return errors.Join(err, f.Close())
	}

	return f.Close()
}

// Decode unmarshals b into a new T. Unknown fields are rejected when strict is set.
func Decode[T any](b []byte, strict bool) (T, error) {
	var v T

	dec := json.NewDecoder(bytes.NewReader(b))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&v); err != nil {
		return v, err
	}

	return v, nil
}

// LoadFromFS loads a JSON file from the filesystem, instantiates and unmarshals it into T.
func LoadFromFS[T any](fsys fs.FS, path string) (T, error) {
	var v T

	f, err := fs.ReadFile(fsys, path)
	if err != nil {
		return v, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if v, err = Decode[T](f, false); err != nil {
		return v, fmt.Errorf("failed to unmarshal JSON at path %s: %w", path, err)
	}

	return v, nil
}
