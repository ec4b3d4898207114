package entities

import (
	"errors"
	"fmt"
)

// AccessError indica un fallo de stat o lectura sobre una ruta concreta
// (permisos, archivo desaparecido, error de E/S). Durante el escaneo es
// recuperable; durante el fingerprinting se propaga.
type AccessError struct {
	Path  string
	Cause error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("no se pudo acceder a %s: %v", e.Path, e.Cause)
}

func (e *AccessError) Unwrap() error {
	return e.Cause
}

// NotFoundError indica que una ruta raíz no existe o no es un directorio.
// Siempre fatal, se detecta antes de empezar cualquier escaneo.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("la ruta %s no existe o no es un directorio", e.Path)
}

// IsAccess facilita a los llamadores distinguir errores de acceso
// sin hacer type-assertions por todas partes.
func IsAccess(err error) bool {
	var ae *AccessError
	return errors.As(err, &ae)
}
