// import_snapshots genera un script SQL con las existencias iniciales del rebaño
// a partir de una planilla CSV (property_id;category_id;quantity;unit_value;as_of).
//
// Uso: go run ./cmd/import_snapshots [-latin1] [-initial] [-out ruta.sql] planilla.csv
// Por defecto escribe internal/infrastructure/postgres/migrations/900_seed_snapshots.sql.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/rebanho-api/internal/infrastructure/importer"
)

func main() {
	latin1 := flag.Bool("latin1", true, "la planilla está codificada en ISO-8859-1")
	initial := flag.Bool("initial", true, "marcar los snapshots como iniciales")
	outPath := flag.String("out", "", "archivo SQL de salida")
	flag.Parse()

	csvPath := "existencias.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	snaps, rejects, err := importer.ParseSnapshots(f, importer.Options{Latin1: *latin1, Initial: *initial})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}
	for _, r := range rejects {
		fmt.Fprintf(os.Stderr, "Fila rechazada, %v\n", r)
	}
	if len(snaps) == 0 {
		fmt.Fprintln(os.Stderr, "No hay filas válidas para importar")
		os.Exit(1)
	}

	if *outPath == "" {
		*outPath = filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "900_seed_snapshots.sql")
	}
	out, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := importer.WriteSeedSQL(out, snaps); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d snapshots, %d filas rechazadas\n", *outPath, len(snaps), len(rejects))
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
