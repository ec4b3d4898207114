package scanner

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/soyunomas/doublon/internal/entities"
)

// ScanError registra un fallo no fatal sobre una entrada concreta.
// El recorrido continúa; el llamador decide si reportarlos.
type ScanError struct {
	Path string
	Err  error
}

// Config define las reglas para el escaneo.
type Config struct {
	MinSize  int64    // Tamaño mínimo en bytes para considerar
	Excludes []string // Lista de carpetas a ignorar
}

// FileScanner encapsula la lógica de recorrido del sistema de archivos.
type FileScanner struct {
	cfg        Config
	excludeMap map[string]struct{} // Optimización O(1)
}

// New crea una nueva instancia del escáner con configuración.
func New(cfg Config) *FileScanner {
	// Pre-procesamos excludes a un mapa para búsquedas instantáneas
	exMap := make(map[string]struct{}, len(cfg.Excludes))
	for _, e := range cfg.Excludes {
		exMap[e] = struct{}{}
	}

	return &FileScanner{
		cfg:        cfg,
		excludeMap: exMap,
	}
}

// Scan recorre rootDir y devuelve los descriptores de los archivos
// regulares encontrados, en orden de recorrido, junto con la lista de
// errores por entrada (no fatales: una entrada mala nunca aborta el árbol).
// Si rootDir no existe o no es un directorio devuelve *NotFoundError
// antes de recorrer nada.
func (s *FileScanner) Scan(rootDir string) ([]*entities.File, []ScanError, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, nil, &entities.NotFoundError{Path: rootDir}
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil, &entities.NotFoundError{Path: root}
	}

	var files []*entities.File
	var scanErrs []ScanError

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		// 1. Errores de acceso (permisos, etc): registrar y seguir
		if err != nil {
			scanErrs = append(scanErrs, ScanError{Path: path, Err: err})
			return nil
		}

		// 2. Si es directorio, verificamos si debemos ignorarlo
		if d.IsDir() {
			if _, ok := s.excludeMap[d.Name()]; ok {
				return filepath.SkipDir
			}
			return nil
		}

		// 3. Solo archivos regulares (symlinks y especiales fuera)
		if !d.Type().IsRegular() {
			return nil
		}

		// 4. Stat de la entrada
		fi, err := d.Info()
		if err != nil {
			// Pudo desaparecer entre la enumeración y el stat
			scanErrs = append(scanErrs, ScanError{Path: path, Err: err})
			return nil
		}

		// 5. Filtro de Tamaño
		if fi.Size() < s.cfg.MinSize {
			return nil
		}

		files = append(files, entities.FromStat(path, fi))
		return nil
	})
	if walkErr != nil {
		return nil, scanErrs, walkErr
	}

	return files, scanErrs, nil
}
