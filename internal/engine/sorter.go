package engine

import (
	"sort"

	"github.com/soyunomas/doublon/internal/entities"
)

// sortGroups organiza los archivos dentro de cada grupo según la estrategia.
// El objetivo es que el archivo en la posición [0] sea el "Keeper" (Original).
func sortGroups(groups map[string]*entities.FileGroup, strategy KeepStrategy) {
	for _, group := range groups {
		if group.Count < 2 {
			continue
		}

		sort.SliceStable(group.Files, func(i, j int) bool {
			f1 := group.Files[i]
			f2 := group.Files[j]

			switch strategy {

			case KeepShortestPath:
				if len(f1.Path) != len(f2.Path) {
					return len(f1.Path) < len(f2.Path)
				}

			case KeepLongestPath:
				if len(f1.Path) != len(f2.Path) {
					return len(f1.Path) > len(f2.Path)
				}

			case KeepOldest:
				if !f1.ModTime.Equal(f2.ModTime) {
					return f1.ModTime.Before(f2.ModTime)
				}

			case KeepNewest:
				if !f1.ModTime.Equal(f2.ModTime) {
					return f1.ModTime.After(f2.ModTime)
				}
			}

			// --- CRITERIOS DE DESEMPATE ---
			// Si la regla principal empata necesitamos determinismo absoluto.

			if len(f1.Path) != len(f2.Path) {
				if strategy == KeepLongestPath {
					return len(f1.Path) > len(f2.Path)
				}
				return len(f1.Path) < len(f2.Path)
			}

			// Alfabético (último recurso)
			return f1.Path < f2.Path
		})
	}
}

// ParseStrategy traduce el valor del flag -keep a una estrategia.
func ParseStrategy(name string) (KeepStrategy, bool) {
	switch name {
	case "shortest":
		return KeepShortestPath, true
	case "longest":
		return KeepLongestPath, true
	case "oldest":
		return KeepOldest, true
	case "newest":
		return KeepNewest, true
	}
	return KeepShortestPath, false
}
