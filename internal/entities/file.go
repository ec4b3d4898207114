package entities

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/soyunomas/doublon/internal/hasher"
)

// File representa un archivo en disco con los metadatos capturados en el
// momento del escaneo. Los fingerprints (primeros bytes y digest completo)
// se calculan bajo demanda y se cachean exactamente una vez: la mayoría de
// los archivos se descartan por tamaño antes de llegar a leerse.
type File struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size_bytes"`
	ModTime time.Time `json:"mod_time"`

	leadOnce sync.Once
	lead     []byte
	leadErr  error

	digestOnce sync.Once
	digest     string
	digestErr  error
}

// NewFile hace stat sobre la ruta y captura tamaño y fecha de modificación.
// No lee contenido. Devuelve *AccessError si el stat falla.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &AccessError{Path: path, Cause: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &AccessError{Path: abs, Cause: err}
	}
	return FromStat(abs, info), nil
}

// FromStat construye el descriptor a partir de un stat ya hecho.
// Lo usa el scanner para no duplicar syscalls durante el recorrido.
func FromStat(path string, info os.FileInfo) *File {
	return &File{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// LeadingBytes devuelve los primeros bytes del archivo (hasta 5).
// Un archivo más corto produce un fingerprint válido más corto; un archivo
// vacío produce el slice vacío. El resultado se cachea: lecturas
// posteriores no tocan el disco. El slice devuelto no debe mutarse.
func (f *File) LeadingBytes() ([]byte, error) {
	f.leadOnce.Do(func() {
		lead, err := hasher.ReadLeading(f.Path)
		if err != nil {
			f.leadErr = &AccessError{Path: f.Path, Cause: err}
			return
		}
		f.lead = lead
	})
	return f.lead, f.leadErr
}

// ContentFingerprint devuelve el digest MD5 completo en hexadecimal,
// leyendo el archivo entero en bloques. Se calcula como mucho una vez por
// descriptor, incluso con primeros accesos concurrentes (sync.Once).
// Un fallo a mitad de lectura nunca cachea un digest parcial.
func (f *File) ContentFingerprint() (string, error) {
	f.digestOnce.Do(func() {
		digest, err := hasher.SumFile(f.Path)
		if err != nil {
			f.digestErr = &AccessError{Path: f.Path, Cause: err}
			return
		}
		f.digest = digest
	})
	return f.digest, f.digestErr
}

// Equal decide igualdad de contenido: mismo tamaño Y mismo digest.
// Nunca compara rutas ni nombres. Si los tamaños difieren no se lee nada.
func (f *File) Equal(other *File) (bool, error) {
	if f.Size != other.Size {
		return false, nil
	}
	d1, err := f.ContentFingerprint()
	if err != nil {
		return false, err
	}
	d2, err := other.ContentFingerprint()
	if err != nil {
		return false, err
	}
	return d1 == d2, nil
}

// SetKey deriva la clave para colecciones hash a partir de
// (tamaño, digest) exclusivamente. Fuerza el cálculo del fingerprint.
func (f *File) SetKey() (uint64, error) {
	digest, err := f.ContentFingerprint()
	if err != nil {
		return 0, err
	}
	return hasher.GroupKey(f.Size, digest), nil
}
