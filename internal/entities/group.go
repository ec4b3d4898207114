package entities

// FileGroup representa un conjunto de archivos que comparten criterios.
// El orden de Files es el orden en que los archivos se añadieron.
type FileGroup struct {
	Count int64   `json:"count"`
	Files []*File `json:"files"`
}

// Add agrega un archivo al grupo
func (fg *FileGroup) Add(f *File) {
	fg.Files = append(fg.Files, f)
	fg.Count++
}
