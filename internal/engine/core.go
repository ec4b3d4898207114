package engine

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/soyunomas/doublon/internal/entities"
	"github.com/soyunomas/doublon/internal/scanner"
)

// Definimos las estrategias de conservación disponibles
type KeepStrategy int

const (
	KeepShortestPath KeepStrategy = iota // Default
	KeepLongestPath
	KeepOldest
	KeepNewest
)

type Options struct {
	MinSize  int64
	Excludes []string
	Workers  int // 0 = NumCPU
	Strategy KeepStrategy
	Quiet    bool // sin fases por consola (modo -json)
}

type Stats struct {
	TotalFilesScanned int64
	ScanErrors        []scanner.ScanError
	Groups            map[string]*entities.FileGroup
	DuplicatesCount   int64
	WastedBytes       int64
	Duration          time.Duration
}

// CompareResult es la partición exacta del árbol B contra el árbol A:
// Duplicates ∪ Unique == archivos de B, disjuntos, en orden de escaneo.
type CompareResult struct {
	Duplicates []*entities.File
	Unique     []*entities.File
	ScanErrors []scanner.ScanError
	TotalA     int64
	TotalB     int64
	Duration   time.Duration
}

type Runner struct {
	opts Options
}

func New(opts Options) *Runner {
	return &Runner{opts: opts}
}

func (r *Runner) workers() int {
	if r.opts.Workers > 0 {
		return r.opts.Workers
	}
	return runtime.NumCPU()
}

func (r *Runner) logf(format string, args ...any) {
	if !r.opts.Quiet {
		fmt.Printf(format, args...)
	}
}

// Run escanea rootDir, clasifica y ordena los grupos según la estrategia.
// Es el flujo completo que consume el subcomando scan.
func (r *Runner) Run(rootDir string) (*Stats, error) {
	start := time.Now()

	r.logf("🔍 Fase 0: Escaneando sistema de archivos...\n")
	sc := scanner.New(scanner.Config{
		MinSize:  r.opts.MinSize,
		Excludes: r.opts.Excludes,
	})

	files, scanErrs, err := sc.Scan(rootDir)
	if err != nil {
		return nil, fmt.Errorf("fallo en scanner: %w", err)
	}
	r.logf("   -> %d archivos encontrados (%d entradas con error).\n", len(files), len(scanErrs))

	groups, err := r.Classify(files)
	if err != nil {
		return nil, err
	}

	sortGroups(groups, r.opts.Strategy)

	var dupesCount, wasted int64
	for _, group := range groups {
		dupesCount += group.Count - 1
		wasted += (group.Count - 1) * group.Files[0].Size
	}

	return &Stats{
		TotalFilesScanned: int64(len(files)),
		ScanErrors:        scanErrs,
		Groups:            groups,
		DuplicatesCount:   dupesCount,
		WastedBytes:       wasted,
		Duration:          time.Since(start),
	}, nil
}

// Classify aplica el filtro progresivo de tres fases sobre la población:
// tamaño → primeros bytes → digest completo. Cada fase solo reexamina a los
// supervivientes de la anterior, de modo que el hashing completo (el coste
// dominante) se aplica al conjunto mínimo posible de candidatos.
//
// La partición es estable: dentro de cada grupo el orden de los miembros es
// el orden en que llegaron los descriptores. El resultado solo contiene
// grupos de 2 o más archivos, indexados por digest.
//
// Un AccessError al calcular cualquier fingerprint es fatal para la llamada
// entera: omitir en silencio un archivo ilegible ocultaría duplicados
// reales. Los llamadores que toleren resultados parciales deben reintentar
// por subconjuntos.
func (r *Runner) Classify(files []*entities.File) (map[string]*entities.FileGroup, error) {
	// --- FASE 1: PARTICIÓN POR TAMAÑO (cero E/S) ---
	bySize := make(map[int64]int, len(files))
	for _, f := range files {
		bySize[f.Size]++
	}

	var sizeSurvivors []*entities.File
	for _, f := range files {
		if bySize[f.Size] > 1 {
			sizeSurvivors = append(sizeSurvivors, f)
		}
	}
	r.logf("🔍 Fase 1: %d candidatos por tamaño.\n", len(sizeSurvivors))

	// --- FASE 2: PRIMEROS BYTES (5 bytes por archivo como máximo) ---
	if err := r.forEach(sizeSurvivors, func(f *entities.File) error {
		_, err := f.LeadingBytes()
		return err
	}); err != nil {
		return nil, err
	}

	type leadKey struct {
		size int64
		lead string
	}
	byLead := make(map[leadKey]int, len(sizeSurvivors))
	for _, f := range sizeSurvivors {
		lead, _ := f.LeadingBytes() // ya cacheado, no puede fallar aquí
		byLead[leadKey{f.Size, string(lead)}]++
	}

	var leadSurvivors []*entities.File
	for _, f := range sizeSurvivors {
		lead, _ := f.LeadingBytes()
		if byLead[leadKey{f.Size, string(lead)}] > 1 {
			leadSurvivors = append(leadSurvivors, f)
		}
	}
	r.logf("🔍 Fase 2: %d candidatos tras primeros bytes.\n", len(leadSurvivors))

	// --- FASE 3: DIGEST COMPLETO (verificación final) ---
	if err := r.forEach(leadSurvivors, func(f *entities.File) error {
		_, err := f.ContentFingerprint()
		return err
	}); err != nil {
		return nil, err
	}

	// Los workers solo rellenan los caches; la agrupación recorre el slice
	// original en orden de entrada para que el orden de llegada de los
	// workers nunca se filtre al resultado.
	groups := make(map[string]*entities.FileGroup)
	for _, f := range leadSurvivors {
		digest, _ := f.ContentFingerprint()
		if _, exists := groups[digest]; !exists {
			groups[digest] = &entities.FileGroup{}
		}
		groups[digest].Add(f)
	}

	for digest, group := range groups {
		if group.Count < 2 {
			delete(groups, digest)
		}
	}
	r.logf("🔍 Fase 3: %d grupos de duplicados confirmados.\n", len(groups))

	return groups, nil
}

// Compare escanea los dos árboles, calcula el digest completo de TODOS los
// archivos de ambos y particiona B en duplicados-de-A y únicos. Aquí no se
// aplica el prefiltro por tamaño/primeros bytes de Classify: la pertenencia
// a un conjunto exige una clave canónica, y ese trade-off (simplicidad
// frente a la optimización en tres fases) se mantiene tal cual.
func (r *Runner) Compare(rootA, rootB string) (*CompareResult, error) {
	start := time.Now()

	sc := scanner.New(scanner.Config{
		MinSize:  r.opts.MinSize,
		Excludes: r.opts.Excludes,
	})

	r.logf("🔍 Escaneando árbol A: %s\n", rootA)
	filesA, errsA, err := sc.Scan(rootA)
	if err != nil {
		return nil, fmt.Errorf("fallo en scanner (árbol A): %w", err)
	}

	r.logf("🔍 Escaneando árbol B: %s\n", rootB)
	filesB, errsB, err := sc.Scan(rootB)
	if err != nil {
		return nil, fmt.Errorf("fallo en scanner (árbol B): %w", err)
	}

	r.logf("🔍 Calculando digests (%d + %d archivos)...\n", len(filesA), len(filesB))
	all := make([]*entities.File, 0, len(filesA)+len(filesB))
	all = append(all, filesA...)
	all = append(all, filesB...)
	if err := r.forEach(all, func(f *entities.File) error {
		_, err := f.ContentFingerprint()
		return err
	}); err != nil {
		return nil, err
	}

	// Conjunto de pertenencia sobre A: clave derivada de (tamaño, digest),
	// con verificación por cubeta para que una colisión de la clave nunca
	// produzca un falso positivo.
	members := make(map[uint64][]*entities.File, len(filesA))
	for _, f := range filesA {
		key, err := f.SetKey()
		if err != nil {
			return nil, err
		}
		members[key] = append(members[key], f)
	}

	result := &CompareResult{
		ScanErrors: append(errsA, errsB...),
		TotalA:     int64(len(filesA)),
		TotalB:     int64(len(filesB)),
	}

	for _, f := range filesB {
		key, err := f.SetKey()
		if err != nil {
			return nil, err
		}
		matched := false
		for _, candidate := range members[key] {
			eq, err := candidate.Equal(f)
			if err != nil {
				return nil, err
			}
			if eq {
				matched = true
				break
			}
		}
		if matched {
			result.Duplicates = append(result.Duplicates, f)
		} else {
			result.Unique = append(result.Unique, f)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// forEach reparte los archivos entre un pool acotado de workers y aplica fn
// a cada uno. Si algún worker falla se drena el resto y se devuelve el
// primer error recogido (política fatal).
func (r *Runner) forEach(files []*entities.File, fn func(*entities.File) error) error {
	if len(files) == 0 {
		return nil
	}

	jobs := make(chan *entities.File, len(files))
	errs := make(chan error, len(files))

	var wg sync.WaitGroup
	for i := 0; i < r.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				if err := fn(f); err != nil {
					errs <- err
				}
			}
		}()
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)

	wg.Wait()
	close(errs)

	for err := range errs {
		return err
	}
	return nil
}
