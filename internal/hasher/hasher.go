package hasher

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// BlockSize optimiza la lectura del disco (32KB es un buen estándar)
const BlockSize = 32 * 1024

// LeadingSize define cuántos bytes iniciales forman el fingerprint rápido
const LeadingSize = 5

// bufferPool solo para cargas pesadas (SumFile completo)
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, BlockSize)
		return &b
	},
}

// md5Pool para reutilizar el estado del digest
var md5Pool = sync.Pool{
	New: func() any {
		return md5.New()
	},
}

// SumFile calcula el digest MD5 completo del archivo, en streaming por
// bloques, y lo devuelve en hexadecimal. Aquí SÍ vale la pena usar Pools.
// Un error a mitad de lectura devuelve digest vacío: nunca un parcial.
func SumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := md5Pool.Get().(hash.Hash)
	h.Reset()
	defer md5Pool.Put(h)

	bufPtr := bufferPool.Get().(*[]byte)
	buf := *bufPtr
	defer bufferPool.Put(bufPtr)

	if _, err := io.CopyBuffer(h, file, buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// ReadLeading lee los primeros LeadingSize bytes del archivo.
// NO usa pools: alloc de 5 bytes es gratis y evita contención.
// Un archivo corto devuelve menos bytes; uno vacío, el slice vacío.
// Eso es un fingerprint válido, no un error.
func ReadLeading(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := make([]byte, LeadingSize)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}

	return buf[:n], nil
}

// GroupKey deriva una clave compacta para conjuntos hash a partir del par
// (tamaño, digest). Es una función de derivación explícita: la pertenencia
// a un conjunto nunca depende de rutas ni nombres.
func GroupKey(size int64, digest string) uint64 {
	var sizeBytes [8]byte
	binary.LittleEndian.PutUint64(sizeBytes[:], uint64(size))

	d := xxhash.New()
	_, _ = d.Write(sizeBytes[:])
	_, _ = d.WriteString(digest)
	return d.Sum64()
}
