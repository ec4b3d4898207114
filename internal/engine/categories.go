package engine

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/soyunomas/doublon/internal/entities"
)

// CategoryStat acumula archivos y bytes de una categoría.
type CategoryStat struct {
	Name  string `json:"name"`
	Files int64  `json:"files"`
	Bytes int64  `json:"bytes"`
}

// CategoryReport es el desglose de tamaño por categoría de una población.
type CategoryReport struct {
	Categories []CategoryStat `json:"categories"`
	TotalFiles int64          `json:"total_files"`
	TotalBytes int64          `json:"total_bytes"`
}

// Mapa extensión -> categoría. Lo que no encaje cae en "otros".
var extCategories = map[string]string{
	".jpg": "imagenes", ".jpeg": "imagenes", ".png": "imagenes", ".gif": "imagenes",
	".bmp": "imagenes", ".webp": "imagenes", ".svg": "imagenes", ".tiff": "imagenes",

	".mp4": "videos", ".mkv": "videos", ".avi": "videos", ".mov": "videos",
	".wmv": "videos", ".webm": "videos",

	".mp3": "audio", ".flac": "audio", ".wav": "audio", ".ogg": "audio",
	".aac": "audio", ".m4a": "audio",

	".pdf": "documentos", ".doc": "documentos", ".docx": "documentos",
	".xls": "documentos", ".xlsx": "documentos", ".ppt": "documentos",
	".pptx": "documentos", ".odt": "documentos", ".txt": "documentos",
	".md": "documentos",

	".zip": "comprimidos", ".tar": "comprimidos", ".gz": "comprimidos",
	".rar": "comprimidos", ".7z": "comprimidos", ".bz2": "comprimidos",
	".xz": "comprimidos",

	".go": "codigo", ".py": "codigo", ".js": "codigo", ".ts": "codigo",
	".c": "codigo", ".h": "codigo", ".cpp": "codigo", ".java": "codigo",
	".rs": "codigo", ".sh": "codigo", ".html": "codigo", ".css": "codigo",
	".json": "codigo", ".yaml": "codigo", ".yml": "codigo",
}

// Categorize reparte la población en categorías por extensión y suma
// tamaños. Contabilidad pura sobre los descriptores: cero E/S.
func Categorize(files []*entities.File) CategoryReport {
	buckets := make(map[string]*CategoryStat)

	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name))
		name, ok := extCategories[ext]
		if !ok {
			name = "otros"
		}
		stat, exists := buckets[name]
		if !exists {
			stat = &CategoryStat{Name: name}
			buckets[name] = stat
		}
		stat.Files++
		stat.Bytes += f.Size
	}

	report := CategoryReport{}
	for _, stat := range buckets {
		report.Categories = append(report.Categories, *stat)
		report.TotalFiles += stat.Files
		report.TotalBytes += stat.Bytes
	}

	// Mayor consumo primero; empate alfabético para salida reproducible
	sort.Slice(report.Categories, func(i, j int) bool {
		c1, c2 := report.Categories[i], report.Categories[j]
		if c1.Bytes != c2.Bytes {
			return c1.Bytes > c2.Bytes
		}
		return c1.Name < c2.Name
	})

	return report
}
