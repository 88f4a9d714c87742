package jsonutils

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_WriteFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		givePath  string
		giveObj   any
		existing  string
		overwrite bool
		want      string
		wantErr   string
	}{
		{
			name:     "success",
			givePath: "valid.json",
			giveObj:  map[string]string{"key": "value"},
			want:     `{"key":"value"}`,
		},
		{
			name:      "success: overwrite existing file",
			givePath:  "existing.json",
			giveObj:   map[string]int{"n": 2},
			existing:  `{"n": 1}`,
			overwrite: true,
			want:      `{"n":2}`,
		},
		{
			name:     "failure: file exists",
			givePath: "existing.json",
			giveObj:  map[string]int{"n": 2},
			existing: `{"n": 1}`,
			want:     `{"n":1}`,
			wantErr:  "file exists",
		},
		{
			name:     "success: creates parent folders",
			givePath: filepath.Join("runs", "2024", "valid.json"),
			giveObj:  []int{1, 2},
			want:     `[1,2]`,
		},
		{
			name:     "failure: cannot marshal JSON",
			givePath: "invalid.json",
			giveObj:  make(chan int),
			wantErr:  "json: unsupported type: chan int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rootDir := t.TempDir()
			path := filepath.Join(rootDir, tt.givePath)
			if tt.existing != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.existing), 0600))
			}

			err := WriteFile(path, tt.giveObj, tt.overwrite)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			if tt.want != "" {
				b, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.JSONEq(t, tt.want, string(b))
			}
		})
	}
}

func Test_WriteFile_ExistIsDetectable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.json")
	require.NoError(t, WriteFile(path, 1, false))
	require.ErrorIs(t, WriteFile(path, 2, false), fs.ErrExist)
}

func Test_LoadJSON(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"valid.json":   {Data: []byte(`{"key": "value"}`)},
		"invalid.json": {Data: []byte(`invalid`)},
	}

	tests := []struct {
		name    string
		give    string
		want    map[string]string
		wantErr string
	}{
		{
			name: "success",
			give: "valid.json",
			want: map[string]string{"key": "value"},
		},
		{
			name:    "failure: cannot read path",
			give:    "notfound.json",
			wantErr: "failed to read notfound.json",
		},
		{
			name:    "failure: cannot unmarshal JSON",
			give:    "invalid.json",
			wantErr: "failed to unmarshal JSON at path invalid.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadFromFS[map[string]string](fsys, tt.give)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func Test_Decode_Strict(t *testing.T) {
	t.Parallel()

	type doc struct {
		A int `json:"a"`
	}

	_, err := Decode[doc]([]byte(`{"a": 1, "b": 2}`), true)
	require.ErrorContains(t, err, `unknown field "b"`)

	got, err := Decode[doc]([]byte(`{"a": 1, "b": 2}`), false)
	require.NoError(t, err)
	assert.Equal(t, 1, got.A)
}
