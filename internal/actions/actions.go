// Package actions implementa las operaciones derivadas de la clasificación:
// borrado de duplicados y propagación de archivos únicos. El motor nunca
// borra, copia ni pregunta; solo esta capa lo hace, y la confirmación le
// llega siempre como callback del llamador (aquí no se lee stdin).
package actions

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/soyunomas/doublon/internal/entities"
	"github.com/soyunomas/doublon/internal/utils"
)

// ErrCancelled la devuelve Purge cuando el callback de confirmación
// rechaza la operación. No se ha borrado nada.
var ErrCancelled = errors.New("operación cancelada por el usuario")

// ErrConfirmRequired la devuelve Purge cuando no hay ni Force ni callback:
// una operación destructiva jamás procede por defecto.
var ErrConfirmRequired = errors.New("se requiere confirmación explícita para borrar")

// PurgeOptions controla el borrado de duplicados.
type PurgeOptions struct {
	Force    bool                      // true salta la confirmación
	Confirm  func(summary string) bool // obligatorio si Force es false
	TrashDir string                    // si no está vacío: mover aquí en vez de borrar
}

// PurgeResult resume lo ocurrido. Los fallos por archivo se acumulan y no
// abortan el resto del lote.
type PurgeResult struct {
	Deleted int64
	Freed   int64
	Errors  []error
}

// Purge elimina (o mueve a la papelera) los archivos indicados, que el
// llamador obtuvo de Compare o de los grupos de Classify. Sin Force el
// callback recibe un resumen y decide una única vez para todo el lote.
func Purge(victims []*entities.File, opts PurgeOptions) (PurgeResult, error) {
	result := PurgeResult{}
	if len(victims) == 0 {
		return result, nil
	}

	if !opts.Force {
		if opts.Confirm == nil {
			return result, ErrConfirmRequired
		}
		var total int64
		for _, f := range victims {
			total += f.Size
		}
		summary := fmt.Sprintf("%d archivos (%s)", len(victims), utils.ByteCountDecimal(total))
		if !opts.Confirm(summary) {
			return result, ErrCancelled
		}
	}

	if opts.TrashDir != "" {
		if err := os.MkdirAll(opts.TrashDir, 0755); err != nil {
			return result, fmt.Errorf("no se pudo crear la papelera: %w", err)
		}
	}

	for _, f := range victims {
		var err error
		if opts.TrashDir != "" {
			err = moveToTrash(f.Path, opts.TrashDir)
		} else {
			err = os.Remove(f.Path)
		}
		if err != nil {
			result.Errors = append(result.Errors, &entities.AccessError{Path: f.Path, Cause: err})
			continue
		}
		result.Deleted++
		result.Freed += f.Size
	}

	return result, nil
}

// PropagateResult resume la copia de únicos.
type PropagateResult struct {
	Copied  int64
	Skipped int64
	Bytes   int64
	Errors  []error
}

// Propagate copia cada archivo único (del árbol B) a destRoot (el árbol A),
// plano, por nombre base. Si en el destino ya existe un archivo con el
// mismo nombre y fecha igual o posterior, se omite: solo se copia lo
// estrictamente más nuevo. La fecha de modificación se conserva.
func Propagate(unique []*entities.File, destRoot string) (PropagateResult, error) {
	result := PropagateResult{}

	info, err := os.Stat(destRoot)
	if err != nil || !info.IsDir() {
		return result, &entities.NotFoundError{Path: destRoot}
	}

	for _, f := range unique {
		target := filepath.Join(destRoot, f.Name)

		if existing, err := os.Stat(target); err == nil {
			// Igual o posterior en destino -> no tocar.
			// El caso de fecha exactamente igual también se omite.
			if !f.ModTime.After(existing.ModTime()) {
				result.Skipped++
				continue
			}
		}

		if err := copyFile(f.Path, target, f.ModTime); err != nil {
			result.Errors = append(result.Errors, &entities.AccessError{Path: f.Path, Cause: err})
			continue
		}
		result.Copied++
		result.Bytes += f.Size
	}

	return result, nil
}

// copyFile copia origen a destino conservando permisos y fecha de
// modificación. Cierra cada descriptor en cuanto termina con él.
func copyFile(src, dst string, modTime time.Time) error {
	input, err := os.Open(src)
	if err != nil {
		return err
	}
	defer input.Close()

	srcInfo, err := input.Stat()
	if err != nil {
		return err
	}

	output, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(output, input); err != nil {
		_ = output.Close()
		return err
	}
	if err := output.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, time.Now(), modTime)
}

// moveToTrash mueve el archivo a la carpeta trashDir.
// Renombra el archivo para evitar colisiones: nombre_TIMESTAMP.ext
func moveToTrash(srcPath, trashDir string) error {
	filename := filepath.Base(srcPath)
	ext := filepath.Ext(filename)
	nameWithoutExt := strings.TrimSuffix(filename, ext)

	// Generar nombre único: archivo_171562912.txt
	uniqueName := fmt.Sprintf("%s_%d%s", nameWithoutExt, time.Now().UnixNano(), ext)
	destPath := filepath.Join(trashDir, uniqueName)

	// Rename es atómico dentro del mismo FS; entre particiones falla
	err := os.Rename(srcPath, destPath)
	if err != nil {
		if isCrossDeviceError(err) {
			return moveCrossDevice(srcPath, destPath)
		}
		return err
	}
	return nil
}

// isCrossDeviceError detecta si el error es "invalid cross-device link"
func isCrossDeviceError(err error) bool {
	return strings.Contains(err.Error(), "cross-device") || strings.Contains(err.Error(), "EXDEV")
}

// moveCrossDevice copia y borra (para mover entre particiones)
func moveCrossDevice(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := copyFile(src, dst, info.ModTime()); err != nil {
		return err
	}
	return os.Remove(src)
}
