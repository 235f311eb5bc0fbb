package groundtruth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"equivproof/domain/tensor"
	"equivproof/internal"
	"equivproof/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArrays() map[string]*tensor.Artifact {
	return map[string]*tensor.Artifact{
		"q": tensor.MustFromRows([][]complex128{{1, 0}, {0, 1i}}),
		"r": tensor.Vector(2.5, -1e-15+3i, 1e15),
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	gt, err := NewDirReader(filepath.Join(t.TempDir(), "nope"), internal.Discard()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gt)
}

func TestLoad_JSONAndXLSX(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteJSON(filepath.Join(dir, "linalg.json"), sampleArrays()))
	require.NoError(t, WriteXLSX(filepath.Join(dir, "fft.xlsx"), sampleArrays()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	gt, err := NewDirReader(dir, internal.Discard()).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, gt, 2)

	for _, module := range []string{"linalg", "fft"} {
		arrays := gt[module]
		require.Len(t, arrays, 2, module)
		for name, want := range sampleArrays() {
			got := arrays[name]
			require.NotNil(t, got, "%s/%s", module, name)
			assert.Equal(t, want.Shape, got.Shape)
			assert.Equal(t, want.Data, got.Data)
		}
	}
}

func TestReadJSON_RealOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x": {"shape": [2], "real": [1, 2]}}`), 0o644))

	arrays, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, []complex128{1, 2}, arrays["x"].Data)
}

func TestReadJSON_ShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x": {"shape": [3], "real": [1, 2]}}`), 0o644))

	_, err := ReadJSON(path)
	assert.Error(t, err)
}

func TestReadJSON_ImagLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x": {"shape": [2], "real": [1, 2], "imag": [0]}}`), 0o644))

	_, err := ReadJSON(path)
	assert.Error(t, err)
}

func TestLoad_BadFileIsGroundTruthError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	_, err := NewDirReader(dir, internal.Discard()).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeGroundTruthError, errors.GetCode(err))
}

func TestLoad_DuplicateModule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteJSON(filepath.Join(dir, "linalg.json"), sampleArrays()))
	require.NoError(t, WriteXLSX(filepath.Join(dir, "linalg.xlsx"), sampleArrays()))

	_, err := NewDirReader(dir, internal.Discard()).Load(context.Background())
	assert.Error(t, err)
}

func TestParseSheet(t *testing.T) {
	a, err := parseSheet([][]string{{"shape", "2"}, {"1.5", "-2"}, {"3"}})
	require.NoError(t, err)
	assert.Equal(t, []complex128{1.5 - 2i, 3}, a.Data)

	_, err = parseSheet([][]string{{"dims", "2"}})
	assert.Error(t, err)

	_, err = parseSheet([][]string{{"shape", "x"}})
	assert.Error(t, err)
}

func TestWriteXLSX_Empty(t *testing.T) {
	err := WriteXLSX(filepath.Join(t.TempDir(), "e.xlsx"), nil)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
