package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const village = `
name: village
models:
  - path: inside/house.rsm
    placements:
      - name: house01
        position: [10, 0, 5]
        rotation: [0, 90, 0]
      - name: house02
        position: [30, 0, 5]
        scale: [2, 2, 2]
  - path: tree.rsm
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(village))
	require.NoError(t, err)
	assert.Equal(t, "village", m.Name)
	assert.Equal(t, "village", m.Output, "output defaults to the name")
	require.Len(t, m.Models, 2)
	assert.Len(t, m.Models[0].Placements, 2)
}

func TestWorld(t *testing.T) {
	m, err := Parse([]byte(village))
	require.NoError(t, err)

	w := m.World()
	require.Len(t, w.Placements, 3)

	p := w.Placements[0]
	assert.Equal(t, "house01", p.Name)
	assert.Equal(t, "inside/house.rsm", p.ModelName)
	assert.Equal(t, [3]float32{10, 0, 5}, p.Position)
	assert.Equal(t, [3]float32{0, 90, 0}, p.Rotation)
	assert.Equal(t, [3]float32{1, 1, 1}, p.Scale)

	assert.Equal(t, [3]float32{2, 2, 2}, w.Placements[1].Scale)

	tree := w.Placements[2]
	assert.Equal(t, "tree.rsm", tree.ModelName)
	assert.Equal(t, [3]float32{}, tree.Position, "unplaced model sits at the origin")
	assert.Equal(t, []string{"inside/house.rsm", "tree.rsm"}, w.ModelNames())
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":    "name: [",
		"no name":   "models:\n  - path: a.rsm\n",
		"no models": "name: x\n",
		"no path":   "name: x\nmodels:\n  - placements: []\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "village.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: v\noutput: out/v\nmodels:\n  - path: a.rsm\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out/v", m.Output)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
