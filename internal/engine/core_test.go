package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyunomas/doublon/internal/entities"
)

func quietRunner() *Runner {
	return New(Options{Quiet: true})
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func descriptors(t *testing.T, root string, names ...string) []*entities.File {
	t.Helper()
	var files []*entities.File
	for _, name := range names {
		f, err := entities.NewFile(filepath.Join(root, name))
		require.NoError(t, err)
		files = append(files, f)
	}
	return files
}

func groupNames(g *entities.FileGroup) []string {
	var names []string
	for _, f := range g.Files {
		names = append(names, f.Name)
	}
	return names
}

func TestClassify_SameSizeDifferentContent(t *testing.T) {
	root := t.TempDir()
	// a y b idénticos; c comparte tamaño Y primeros 5 bytes pero difiere después
	writeTree(t, root, map[string]string{
		"a": "xxxxx" + strings.Repeat("a", 95),
		"b": "xxxxx" + strings.Repeat("a", 95),
		"c": "xxxxx" + strings.Repeat("b", 95),
	})

	groups, err := quietRunner().Classify(descriptors(t, root, "a", "b", "c"))
	require.NoError(t, err)

	require.Len(t, groups, 1)
	for _, g := range groups {
		assert.ElementsMatch(t, []string{"a", "b"}, groupNames(g))
	}
}

func TestClassify_NoGroupOfOne(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"solo1": "contenido uno",
		"solo2": "otro contenido más largo",
		"par1":  "gemelos",
		"par2":  "gemelos",
	})

	groups, err := quietRunner().Classify(descriptors(t, root, "solo1", "solo2", "par1", "par2"))
	require.NoError(t, err)

	for _, g := range groups {
		assert.GreaterOrEqual(t, len(g.Files), 2, "nunca se devuelve un grupo de 1")
	}
	require.Len(t, groups, 1)
}

func TestClassify_DistinctSizesNeverGrouped(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"corto1": "aa",
		"corto2": "aa",
		"largo1": "aaaa",
		"largo2": "aaaa",
	})

	groups, err := quietRunner().Classify(descriptors(t, root, "corto1", "largo1", "corto2", "largo2"))
	require.NoError(t, err)

	require.Len(t, groups, 2)
	for _, g := range groups {
		size := g.Files[0].Size
		for _, f := range g.Files {
			assert.Equal(t, size, f.Size, "todos los miembros de un grupo comparten tamaño")
		}
	}
}

func TestClassify_PairwiseEquality(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a1": "grupo-alfa",
		"a2": "grupo-alfa",
		"b1": "grupo-beta",
		"b2": "grupo-beta",
	})

	groups, err := quietRunner().Classify(descriptors(t, root, "a1", "a2", "b1", "b2"))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	var all []*entities.FileGroup
	for _, g := range groups {
		all = append(all, g)
	}

	// Dentro del mismo grupo: iguales dos a dos
	for _, g := range all {
		for _, f1 := range g.Files {
			for _, f2 := range g.Files {
				eq, err := f1.Equal(f2)
				require.NoError(t, err)
				assert.True(t, eq)
			}
		}
	}

	// Entre grupos distintos: nunca iguales
	for _, f1 := range all[0].Files {
		for _, f2 := range all[1].Files {
			eq, err := f1.Equal(f2)
			require.NoError(t, err)
			assert.False(t, eq)
		}
	}
}

func TestClassify_ZeroByteFilesFormOneGroup(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"vacio1":    "",
		"vacio2":    "",
		"vacio3":    "",
		"con-datos": "x",
	})

	groups, err := quietRunner().Classify(descriptors(t, root, "vacio1", "vacio2", "vacio3", "con-datos"))
	require.NoError(t, err)

	require.Len(t, groups, 1)
	g, ok := groups["d41d8cd98f00b204e9800998ecf8427e"]
	require.True(t, ok, "el grupo de vacíos va indexado por el digest de entrada vacía")
	assert.ElementsMatch(t, []string{"vacio1", "vacio2", "vacio3"}, groupNames(g))
}

func TestClassify_StableMemberOrder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"z": "repetido",
		"m": "repetido",
		"a": "repetido",
	})

	// El orden dentro del grupo es el orden de entrada, no el alfabético
	// ni el orden en que terminen los workers.
	groups, err := quietRunner().Classify(descriptors(t, root, "z", "m", "a"))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	for _, g := range groups {
		assert.Equal(t, []string{"z", "m", "a"}, groupNames(g))
	}
}

func TestClassify_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a": "dup", "b": "dup", "c": "dup",
		"d": "otro", "e": "otro",
		"f": "unico de verdad",
	})

	files := descriptors(t, root, "a", "b", "c", "d", "e", "f")
	runner := quietRunner()

	first, err := runner.Classify(files)
	require.NoError(t, err)
	second, err := runner.Classify(files)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for digest, g1 := range first {
		g2, ok := second[digest]
		require.True(t, ok)
		assert.Equal(t, groupNames(g1), groupNames(g2))
	}
}

func TestClassify_EmptyPopulation(t *testing.T) {
	groups, err := quietRunner().Classify(nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestClassify_UnreadableCandidateIsFatal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignora los permisos de archivo")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a": "mismo contenido",
		"b": "mismo contenido",
	})
	require.NoError(t, os.Chmod(filepath.Join(root, "b"), 0000))

	// Omitir en silencio un candidato ilegible ocultaría duplicados:
	// la llamada entera falla.
	_, err := quietRunner().Classify(descriptors(t, root, "a", "b"))
	require.Error(t, err)
	assert.True(t, entities.IsAccess(err))
}

func TestCompare_SpecScenario(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeTree(t, dirA, map[string]string{
		"x.txt": "hello",
		"y.txt": "world!",
	})
	writeTree(t, dirB, map[string]string{
		"z.txt": "hello",  // idéntico a x.txt
		"w.bin": "unique", // tamaño 6, igual que y.txt, contenido distinto
	})

	result, err := quietRunner().Compare(dirA, dirB)
	require.NoError(t, err)

	var dupNames, uniqueNames []string
	for _, f := range result.Duplicates {
		dupNames = append(dupNames, f.Name)
	}
	for _, f := range result.Unique {
		uniqueNames = append(uniqueNames, f.Name)
	}

	assert.Equal(t, []string{"z.txt"}, dupNames)
	assert.Equal(t, []string{"w.bin"}, uniqueNames)
}

func TestCompare_ExactPartition(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeTree(t, dirA, map[string]string{
		"uno": "alfa", "dos": "beta", "tres": "gamma",
	})
	writeTree(t, dirB, map[string]string{
		"b1": "alfa", "b2": "beta", "b3": "nuevo1", "sub/b4": "nuevo2", "b5": "gamma",
	})

	result, err := quietRunner().Compare(dirA, dirB)
	require.NoError(t, err)

	// Partición exacta: duplicados ∪ únicos == B, disjuntos
	assert.Equal(t, result.TotalB, int64(len(result.Duplicates)+len(result.Unique)))
	seen := make(map[string]bool)
	for _, f := range append(append([]*entities.File{}, result.Duplicates...), result.Unique...) {
		assert.False(t, seen[f.Path], "ningún archivo aparece en ambas particiones")
		seen[f.Path] = true
	}

	assert.Len(t, result.Duplicates, 3)
	assert.Len(t, result.Unique, 2)
}

func TestCompare_IgnoresNamesAndPaths(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeTree(t, dirA, map[string]string{"original.dat": "contenido compartido"})
	writeTree(t, dirB, map[string]string{"renombrado.bak": "contenido compartido"})

	result, err := quietRunner().Compare(dirA, dirB)
	require.NoError(t, err)
	assert.Len(t, result.Duplicates, 1)
	assert.Empty(t, result.Unique)
}

func TestCompare_MissingTreeIsFatal(t *testing.T) {
	dirA := t.TempDir()

	_, err := quietRunner().Compare(dirA, filepath.Join(dirA, "no-existe"))
	require.Error(t, err)

	var nf *entities.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestCompare_EmptyTrees(t *testing.T) {
	result, err := quietRunner().Compare(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result.Duplicates)
	assert.Empty(t, result.Unique)
}

func TestRun_EndToEnd(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a/f1": "duplicado",
		"b/f2": "duplicado",
		"c/f3": "duplicado",
		"solo": "sin pareja",
	})

	stats, err := quietRunner().Run(root)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalFilesScanned)
	require.Len(t, stats.Groups, 1)
	assert.Equal(t, int64(2), stats.DuplicatesCount)
	assert.Equal(t, int64(2*len("duplicado")), stats.WastedBytes)
}
