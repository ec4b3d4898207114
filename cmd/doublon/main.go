package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/soyunomas/doublon/internal/actions"
	"github.com/soyunomas/doublon/internal/config"
	"github.com/soyunomas/doublon/internal/engine"
	"github.com/soyunomas/doublon/internal/entities"
	"github.com/soyunomas/doublon/internal/scanner"
	"github.com/soyunomas/doublon/internal/utils"
)

const version = "1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		runScan(os.Args[2:])
	case "categories":
		runCategories(os.Args[2:])
	case "compare":
		runCompare(os.Args[2:])
	case "clean":
		runClean(os.Args[2:])
	case "merge":
		runMerge(os.Args[2:])
	case "help", "-h", "-help", "--help":
		usage()
	case "version", "-version", "--version":
		fmt.Printf("doublon v%s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "❌ Subcomando desconocido: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`🚀 doublon - detector de archivos duplicados

Uso: doublon <subcomando> [flags]

Subcomandos:
  scan        Buscar duplicados dentro de un directorio
  categories  Desglose de tamaño por categoría de archivo
  compare     Comparar dos directorios (duplicados y únicos de B frente a A)
  clean       Borrar de B todo lo que ya existe en A (destructivo)
  merge       Copiar a A los archivos únicos de B
  version     Mostrar la versión

Usa 'doublon <subcomando> -h' para ver los flags de cada uno.`)
}

// --- FLAGS COMUNES ---

type commonFlags struct {
	configPath *string
	minSize    *int64
	excludes   *string
	workers    *int
	jsonOut    *bool
}

func addCommon(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", "", "Ruta a un archivo de configuración ini (se crea si no existe)"),
		minSize:    fs.Int64("min-size", -1, "Tamaño mínimo en bytes (-1 = usar configuración)"),
		excludes:   fs.String("excludes", "", "Carpetas a ignorar, separadas por comas (vacío = usar configuración)"),
		workers:    fs.Int("workers", -1, "Workers de hashing (-1 = usar configuración, 0 = CPUs)"),
		jsonOut:    fs.Bool("json", false, "Salida en formato JSON a stdout"),
	}
}

// resolve mezcla configuración y flags (los flags mandan).
func (cf *commonFlags) resolve(strategy engine.KeepStrategy) (engine.Options, *config.Config, error) {
	var cfg *config.Config
	var err error
	if *cf.configPath != "" {
		cfg, err = config.Load(*cf.configPath)
		if err != nil {
			return engine.Options{}, nil, err
		}
	} else {
		cfg = config.Default()
	}

	scanCfg := cfg.Scan()
	opts := engine.Options{
		MinSize:  scanCfg.MinSize,
		Excludes: scanCfg.Excludes,
		Workers:  cfg.Hash().Workers,
		Strategy: strategy,
		Quiet:    *cf.jsonOut,
	}
	if *cf.minSize >= 0 {
		opts.MinSize = *cf.minSize
	}
	if *cf.excludes != "" {
		opts.Excludes = strings.Split(*cf.excludes, ",")
	}
	if *cf.workers >= 0 {
		opts.Workers = *cf.workers
	}

	return opts, cfg, nil
}

// confirmPrompt construye el callback de confirmación para la capa de
// acciones: pregunta en el terminal y acepta solo un sí explícito. Si stdin
// no es un terminal rechaza siempre (en scripts hay que usar -force).
func confirmPrompt(question string) func(summary string) bool {
	return func(summary string) bool {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "❌ stdin no es un terminal: usa -force para confirmar sin preguntar")
			return false
		}
		fmt.Printf("⚠️  %s: %s. ¿Continuar? [s/N]: ", question, summary)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "si", "sí", "y", "yes":
			return true
		}
		return false
	}
}

// --- SUBCOMANDO: SCAN ---

func runScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	dirPtr := fs.String("dir", ".", "Directorio a escanear")
	keepPtr := fs.String("keep", "shortest", "Criterio de keeper: shortest, longest, oldest, newest")
	deletePtr := fs.Bool("delete", false, "⚠️  Borrar los duplicados (pide confirmación)")
	trashPtr := fs.Bool("trash", false, "♻️  Mover los duplicados a la papelera en vez de borrarlos")
	outputPtr := fs.String("output", "", "Generar un script .sh de revisión en vez de actuar")
	forcePtr := fs.Bool("force", false, "No pedir confirmación antes de borrar")
	common := addCommon(fs)
	_ = fs.Parse(args)

	actionCount := 0
	if *deletePtr {
		actionCount++
	}
	if *trashPtr {
		actionCount++
	}
	if *outputPtr != "" {
		actionCount++
	}
	if actionCount > 1 {
		fmt.Fprintln(os.Stderr, "❌ Error: Solo puedes elegir UNA acción: -delete, -trash, o -output")
		os.Exit(1)
	}

	strategy, ok := engine.ParseStrategy(strings.ToLower(*keepPtr))
	if !ok {
		fmt.Fprintf(os.Stderr, "❌ Estrategia desconocida: %s\n", *keepPtr)
		os.Exit(1)
	}

	opts, cfg, err := common.resolve(strategy)
	if err != nil {
		die(err, *common.jsonOut)
	}
	runner := engine.New(opts)

	if !*common.jsonOut {
		fmt.Printf("🚀 doublon v%s - Escaneando: %s\n", version, *dirPtr)
		fmt.Printf("⚖️  Estrategia: Mantener %s\n", strings.ToUpper(*keepPtr))
		fmt.Println("------------------------------------------------")
	}

	stats, err := runner.Run(*dirPtr)
	if err != nil {
		die(err, *common.jsonOut)
	}

	report := generateReport(stats, *dirPtr, *keepPtr)

	if *common.jsonOut {
		printJSON(report)
		return
	}

	reportSkipped(stats.ScanErrors)

	if *outputPtr != "" {
		if err := generateShellScript(report, *outputPtr); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Error generando script: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n📄 Script generado: %s\n", *outputPtr)
		return
	}

	if len(report.Groups) == 0 {
		fmt.Println("✅ ¡Limpio! No se encontraron duplicados.")
		return
	}

	// El reporte ya viene ordenado por bytes recuperables; las víctimas se
	// recogen de los grupos del motor, donde el keeper es el índice 0.
	fmt.Println("🔴 DUPLICADOS ENCONTRADOS:")
	var victims []*entities.File
	for _, g := range report.Groups {
		group := stats.Groups[g.Digest]
		fmt.Printf("   📦 Grupo %s (%s) | 👑 KEEPER: %s\n",
			g.Digest[:12], utils.ByteCountDecimal(g.Size), g.Keeper.Path)
		for _, f := range group.Files[1:] {
			fmt.Printf("      🗑️  [Candidato]: %s\n", f.Path)
			victims = append(victims, f)
		}
		fmt.Println("")
	}

	if !*deletePtr && !*trashPtr {
		fmt.Println("------------------------------------------------")
		fmt.Printf("🏁 Escaneo terminado. Candidatos a borrar: %d\n", report.Summary.TotalDuplicates)
		fmt.Printf("💾 Espacio recuperable: %s\n", report.Summary.BytesSavedHuman)
		fmt.Println("💡 Opciones disponibles:")
		fmt.Println("   -trash   -> Mover a carpeta segura")
		fmt.Println("   -output  -> Generar script de revisión")
		fmt.Println("   -delete  -> Borrar inmediatamente")
		return
	}

	purgeOpts := actions.PurgeOptions{
		Force:   *forcePtr,
		Confirm: confirmPrompt("Borrado de duplicados"),
	}
	if *trashPtr {
		purgeOpts.TrashDir = cfg.Action().TrashDir
		fmt.Printf("♻️  Modo Papelera: Los archivos se moverán a ./%s/\n", purgeOpts.TrashDir)
	} else {
		fmt.Println("🔥 MODO DESTRUCTIVO: Los archivos se borrarán para siempre.")
	}

	result, err := actions.Purge(victims, purgeOpts)
	if err != nil {
		die(err, false)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "      ❌ %v\n", e)
	}
	fmt.Println("------------------------------------------------")
	fmt.Printf("🏁 Operación completada. Archivos procesados: %d\n", result.Deleted)
	fmt.Printf("💾 Espacio liberado: %s\n", utils.ByteCountDecimal(result.Freed))
}

// --- SUBCOMANDO: CATEGORIES ---

func runCategories(args []string) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	dirPtr := fs.String("dir", ".", "Directorio a analizar")
	common := addCommon(fs)
	_ = fs.Parse(args)

	opts, _, err := common.resolve(engine.KeepShortestPath)
	if err != nil {
		die(err, *common.jsonOut)
	}

	sc := scanner.New(scanner.Config{MinSize: opts.MinSize, Excludes: opts.Excludes})
	files, scanErrs, err := sc.Scan(*dirPtr)
	if err != nil {
		die(err, *common.jsonOut)
	}

	report := engine.Categorize(files)

	if *common.jsonOut {
		printJSON(report)
		return
	}

	reportSkipped(scanErrs)
	fmt.Printf("📊 Desglose por categoría en: %s\n", *dirPtr)
	fmt.Println("------------------------------------------------")
	for _, c := range report.Categories {
		fmt.Printf("   %-12s %6d archivos  %10s\n", c.Name, c.Files, utils.ByteCountDecimal(c.Bytes))
	}
	fmt.Println("------------------------------------------------")
	fmt.Printf("🏁 Total: %d archivos, %s\n", report.TotalFiles, utils.ByteCountDecimal(report.TotalBytes))
}

// --- SUBCOMANDO: COMPARE ---

func runCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	aPtr := fs.String("a", "", "Directorio de referencia (árbol A)")
	bPtr := fs.String("b", "", "Directorio a particionar (árbol B)")
	common := addCommon(fs)
	_ = fs.Parse(args)

	result := mustCompare(common, *aPtr, *bPtr)

	if *common.jsonOut {
		printJSON(compareReport(result, *aPtr, *bPtr))
		return
	}

	reportSkipped(result.ScanErrors)
	fmt.Println("🔴 DUPLICADOS EN B (ya existen en A):")
	for _, f := range result.Duplicates {
		fmt.Printf("   🔁 %s (%s)\n", f.Path, utils.ByteCountDecimal(f.Size))
	}
	fmt.Println("🟢 ÚNICOS EN B:")
	for _, f := range result.Unique {
		fmt.Printf("   ✨ %s (%s)\n", f.Path, utils.ByteCountDecimal(f.Size))
	}
	fmt.Println("------------------------------------------------")
	fmt.Printf("🏁 B: %d archivos -> %d duplicados, %d únicos (en %s)\n",
		result.TotalB, len(result.Duplicates), len(result.Unique),
		result.Duration.Round(time.Millisecond))
}

// --- SUBCOMANDO: CLEAN ---

func runClean(args []string) {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	aPtr := fs.String("a", "", "Directorio de referencia (árbol A, no se toca)")
	bPtr := fs.String("b", "", "Directorio a limpiar (árbol B)")
	trashPtr := fs.Bool("trash", false, "♻️  Mover a la papelera en vez de borrar")
	forcePtr := fs.Bool("force", false, "No pedir confirmación (necesario fuera de un terminal)")
	common := addCommon(fs)
	_ = fs.Parse(args)

	result := mustCompare(common, *aPtr, *bPtr)
	reportSkipped(result.ScanErrors)

	if len(result.Duplicates) == 0 {
		fmt.Println("✅ Nada que limpiar: B no contiene duplicados de A.")
		return
	}

	_, cfg, err := common.resolve(engine.KeepShortestPath)
	if err != nil {
		die(err, false)
	}

	opts := actions.PurgeOptions{
		Force:   *forcePtr,
		Confirm: confirmPrompt(fmt.Sprintf("Borrar de %s", *bPtr)),
	}
	if *trashPtr {
		opts.TrashDir = cfg.Action().TrashDir
	}

	purged, err := actions.Purge(result.Duplicates, opts)
	if err != nil {
		die(err, false)
	}
	for _, e := range purged.Errors {
		fmt.Fprintf(os.Stderr, "   ❌ %v\n", e)
	}
	fmt.Printf("🏁 Limpieza completada. Archivos eliminados: %d\n", purged.Deleted)
	fmt.Printf("💾 Espacio liberado: %s\n", utils.ByteCountDecimal(purged.Freed))
}

// --- SUBCOMANDO: MERGE ---

func runMerge(args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	aPtr := fs.String("a", "", "Directorio destino (árbol A)")
	bPtr := fs.String("b", "", "Directorio origen de únicos (árbol B)")
	common := addCommon(fs)
	_ = fs.Parse(args)

	result := mustCompare(common, *aPtr, *bPtr)
	reportSkipped(result.ScanErrors)

	if len(result.Unique) == 0 {
		fmt.Println("✅ Nada que propagar: B no contiene archivos únicos.")
		return
	}

	propagated, err := actions.Propagate(result.Unique, *aPtr)
	if err != nil {
		die(err, false)
	}
	for _, e := range propagated.Errors {
		fmt.Fprintf(os.Stderr, "   ❌ %v\n", e)
	}
	fmt.Printf("🏁 Propagación completada. Copiados: %d, omitidos: %d (%s)\n",
		propagated.Copied, propagated.Skipped, utils.ByteCountDecimal(propagated.Bytes))
}

// --- HELPERS ---

func mustCompare(common *commonFlags, a, b string) *engine.CompareResult {
	if a == "" || b == "" {
		fmt.Fprintln(os.Stderr, "❌ Error: hay que indicar -a y -b")
		os.Exit(1)
	}
	opts, _, err := common.resolve(engine.KeepShortestPath)
	if err != nil {
		die(err, *common.jsonOut)
	}
	result, err := engine.New(opts).Compare(a, b)
	if err != nil {
		die(err, *common.jsonOut)
	}
	return result
}
