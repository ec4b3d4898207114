package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/soyunomas/doublon/internal/engine"
	"github.com/soyunomas/doublon/internal/entities"
	"github.com/soyunomas/doublon/internal/scanner"
	"github.com/soyunomas/doublon/internal/utils"
)

// --- ESTRUCTURAS PARA EL REPORTE FINAL ---

type Report struct {
	Summary  Summary       `json:"summary"`
	Groups   []GroupResult `json:"groups"`
	Skipped  []SkippedFile `json:"skipped,omitempty"`
	Metadata Metadata      `json:"metadata"`
}

type Metadata struct {
	ScannedPath string    `json:"scanned_path"`
	Strategy    string    `json:"strategy"`
	Timestamp   time.Time `json:"timestamp"`
	Duration    string    `json:"duration_human"`
}

type Summary struct {
	TotalFilesScanned int64  `json:"total_files_scanned"`
	TotalDuplicates   int64  `json:"total_duplicates"`
	BytesSaved        int64  `json:"bytes_saved"`
	BytesSavedHuman   string `json:"bytes_saved_human"`
	SkippedFiles      int64  `json:"skipped_files"`
}

type GroupResult struct {
	Digest  string         `json:"digest"`
	Size    int64          `json:"file_size"`
	Keeper  *entities.File `json:"keeper"`
	Victims []Victim       `json:"victims"`
}

type Victim struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

type SkippedFile struct {
	Path  string `json:"path"`
	Cause string `json:"cause"`
}

// generateReport convierte las estadísticas del motor en el reporte final.
// Los grupos van ordenados por bytes recuperables (mayor primero) para que
// la salida sea reproducible entre ejecuciones.
func generateReport(stats *engine.Stats, rootDir, strategy string) Report {
	rep := Report{
		Metadata: Metadata{
			ScannedPath: rootDir,
			Strategy:    strategy,
			Timestamp:   time.Now(),
			Duration:    stats.Duration.String(),
		},
		Summary: Summary{
			TotalFilesScanned: stats.TotalFilesScanned,
			SkippedFiles:      int64(len(stats.ScanErrors)),
		},
		Groups:  []GroupResult{},
		Skipped: skippedFromScanErrors(stats.ScanErrors),
	}

	for digest, group := range stats.Groups {
		keeper := group.Files[0]
		gRes := GroupResult{
			Digest: digest,
			Size:   keeper.Size,
			Keeper: keeper,
		}

		for _, file := range group.Files[1:] {
			gRes.Victims = append(gRes.Victims, Victim{
				Path: file.Path,
				Size: file.Size,
			})
			rep.Summary.TotalDuplicates++
			rep.Summary.BytesSaved += file.Size
		}

		rep.Groups = append(rep.Groups, gRes)
	}

	sort.Slice(rep.Groups, func(i, j int) bool {
		g1, g2 := rep.Groups[i], rep.Groups[j]
		b1 := g1.Size * int64(len(g1.Victims))
		b2 := g2.Size * int64(len(g2.Victims))
		if b1 != b2 {
			return b1 > b2
		}
		return g1.Digest < g2.Digest
	})

	rep.Summary.BytesSavedHuman = utils.ByteCountDecimal(rep.Summary.BytesSaved)
	return rep
}

func skippedFromScanErrors(errs []scanner.ScanError) []SkippedFile {
	var skipped []SkippedFile
	for _, e := range errs {
		skipped = append(skipped, SkippedFile{Path: e.Path, Cause: e.Err.Error()})
	}
	return skipped
}

// reportSkipped avisa por stderr de las entradas omitidas durante el escaneo.
func reportSkipped(errs []scanner.ScanError) {
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "⚠️  Omitido %s: %v\n", e.Path, e.Err)
	}
}

// generateShellScript vuelca las víctimas a un script de revisión manual.
func generateShellScript(r Report, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "#!/bin/sh\n")
	fmt.Fprintf(w, "# Generado por doublon\n")
	fmt.Fprintf(w, "echo 'Iniciando limpieza...'\n\n")

	for _, g := range r.Groups {
		if len(g.Victims) == 0 {
			continue
		}
		fmt.Fprintf(w, "# Group Digest: %s\n", g.Digest)
		fmt.Fprintf(w, "# Keeper: %s\n", g.Keeper.Path)
		for _, v := range g.Victims {
			fmt.Fprintf(w, "rm -v %q\n", v.Path)
		}
		fmt.Fprintf(w, "\n")
	}
	return w.Flush()
}

// CompareReport es la salida JSON del subcomando compare.
type CompareReport struct {
	TreeA      string           `json:"tree_a"`
	TreeB      string           `json:"tree_b"`
	TotalA     int64            `json:"total_files_a"`
	TotalB     int64            `json:"total_files_b"`
	Duplicates []*entities.File `json:"duplicates_in_b"`
	Unique     []*entities.File `json:"unique_in_b"`
	Skipped    []SkippedFile    `json:"skipped,omitempty"`
	Duration   string           `json:"duration_human"`
}

func compareReport(result *engine.CompareResult, a, b string) CompareReport {
	return CompareReport{
		TreeA:      a,
		TreeB:      b,
		TotalA:     result.TotalA,
		TotalB:     result.TotalB,
		Duplicates: result.Duplicates,
		Unique:     result.Unique,
		Skipped:    skippedFromScanErrors(result.ScanErrors),
		Duration:   result.Duration.String(),
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func die(err error, jsonMode bool) {
	if jsonMode {
		fmt.Printf(`{"error": %q}`+"\n", err.Error())
	} else {
		fmt.Fprintf(os.Stderr, "❌ Error fatal: %v\n", err)
	}
	os.Exit(1)
}
