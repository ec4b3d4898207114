package entities

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFile(t *testing.T, dir, name, content string) *File {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	f, err := NewFile(path)
	require.NoError(t, err)
	return f
}

func TestNewFile_CapturesMetadata(t *testing.T) {
	dir := t.TempDir()
	f := mustFile(t, dir, "datos.txt", "hello")

	assert.Equal(t, "datos.txt", f.Name)
	assert.Equal(t, int64(5), f.Size)
	assert.True(t, filepath.IsAbs(f.Path))
	assert.WithinDuration(t, time.Now(), f.ModTime, time.Minute)
}

func TestNewFile_MissingPath(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "fantasma"))
	require.Error(t, err)

	var ae *AccessError
	assert.ErrorAs(t, err, &ae)
	assert.True(t, IsAccess(err))
}

func TestLeadingBytes_ShortAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()

	long := mustFile(t, dir, "largo", "hello world")
	lead, err := long.LeadingBytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(lead))

	short := mustFile(t, dir, "corto", "ab")
	lead, err = short.LeadingBytes()
	require.NoError(t, err)
	assert.Equal(t, "ab", string(lead))

	// Archivo vacío: fingerprint vacío, nunca un error
	empty := mustFile(t, dir, "vacio", "")
	lead, err = empty.LeadingBytes()
	require.NoError(t, err)
	assert.Empty(t, lead)
}

func TestContentFingerprint_CachedOnce(t *testing.T) {
	dir := t.TempDir()
	f := mustFile(t, dir, "datos.txt", "hello")

	d1, err := f.ContentFingerprint()
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", d1)

	// Mutamos el archivo en disco: el descriptor debe seguir devolviendo
	// el digest cacheado sin releer nada.
	require.NoError(t, os.WriteFile(f.Path, []byte("otra cosa"), 0644))
	d2, err := f.ContentFingerprint()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestContentFingerprint_ConcurrentFirstAccess(t *testing.T) {
	dir := t.TempDir()
	f := mustFile(t, dir, "datos.txt", "hello")

	const goroutines = 16
	digests := make([]string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			d, err := f.ContentFingerprint()
			assert.NoError(t, err)
			digests[idx] = d
		}(i)
	}
	wg.Wait()

	for _, d := range digests {
		assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", d)
	}
}

func TestContentFingerprint_UnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignora los permisos de archivo")
	}
	dir := t.TempDir()
	f := mustFile(t, dir, "privado", "secreto")
	require.NoError(t, os.Chmod(f.Path, 0000))

	_, err := f.ContentFingerprint()
	require.Error(t, err)
	assert.True(t, IsAccess(err))

	// Nunca se cachea un digest parcial: el error persiste
	_, err = f.ContentFingerprint()
	assert.Error(t, err)
}

func TestEqual_ContentNotNames(t *testing.T) {
	dir := t.TempDir()

	a := mustFile(t, dir, "a.txt", "hello")
	b := mustFile(t, dir, "nombre-distinto.bin", "hello")
	c := mustFile(t, dir, "c.txt", "adios")  // tamaño 5, contenido distinto
	d := mustFile(t, dir, "d.txt", "world!") // tamaño 6

	eq, err := a.Equal(b)
	require.NoError(t, err)
	assert.True(t, eq, "mismo contenido con nombres distintos debe ser igual")

	eq, err = a.Equal(c)
	require.NoError(t, err)
	assert.False(t, eq, "mismo tamaño con contenido distinto no es igual")

	// Tamaños distintos: falso sin leer contenido
	eq, err = a.Equal(d)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestSetKey_DerivedFromSizeAndDigest(t *testing.T) {
	dir := t.TempDir()

	a := mustFile(t, dir, "a", "hello")
	b := mustFile(t, dir, "b", "hello")
	c := mustFile(t, dir, "c", "adios")

	ka, err := a.SetKey()
	require.NoError(t, err)
	kb, err := b.SetKey()
	require.NoError(t, err)
	kc, err := c.SetKey()
	require.NoError(t, err)

	assert.Equal(t, ka, kb)
	assert.NotEqual(t, ka, kc)
}
