package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyunomas/doublon/internal/entities"
)

func groupOf(files ...*entities.File) map[string]*entities.FileGroup {
	g := &entities.FileGroup{}
	for _, f := range files {
		g.Add(f)
	}
	return map[string]*entities.FileGroup{"digest": g}
}

func fakeFile(path string, mod time.Time) *entities.File {
	return &entities.File{Path: path, Name: path, ModTime: mod}
}

func TestSortGroups_Strategies(t *testing.T) {
	now := time.Now()
	old := now.Add(-time.Hour)

	tests := []struct {
		name     string
		strategy KeepStrategy
		files    []*entities.File
		keeper   string
	}{
		{
			name:     "shortest",
			strategy: KeepShortestPath,
			files:    []*entities.File{fakeFile("/ruta/muy/larga/f", now), fakeFile("/f", now)},
			keeper:   "/f",
		},
		{
			name:     "longest",
			strategy: KeepLongestPath,
			files:    []*entities.File{fakeFile("/f", now), fakeFile("/ruta/muy/larga/f", now)},
			keeper:   "/ruta/muy/larga/f",
		},
		{
			name:     "oldest",
			strategy: KeepOldest,
			files:    []*entities.File{fakeFile("/nuevo", now), fakeFile("/viejo", old)},
			keeper:   "/viejo",
		},
		{
			name:     "newest",
			strategy: KeepNewest,
			files:    []*entities.File{fakeFile("/viejo", old), fakeFile("/nuevo", now)},
			keeper:   "/nuevo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := groupOf(tt.files...)
			sortGroups(groups, tt.strategy)
			assert.Equal(t, tt.keeper, groups["digest"].Files[0].Path)
		})
	}
}

func TestSortGroups_TieBreakersAreDeterministic(t *testing.T) {
	now := time.Now()
	// Mismas fechas y misma longitud de ruta: decide el orden alfabético
	groups := groupOf(fakeFile("/b", now), fakeFile("/a", now), fakeFile("/c", now))
	sortGroups(groups, KeepOldest)

	var order []string
	for _, f := range groups["digest"].Files {
		order = append(order, f.Path)
	}
	require.Equal(t, []string{"/a", "/b", "/c"}, order)
}

func TestParseStrategy(t *testing.T) {
	for name, want := range map[string]KeepStrategy{
		"shortest": KeepShortestPath,
		"longest":  KeepLongestPath,
		"oldest":   KeepOldest,
		"newest":   KeepNewest,
	} {
		got, ok := ParseStrategy(name)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := ParseStrategy("aleatorio")
	assert.False(t, ok)
}
