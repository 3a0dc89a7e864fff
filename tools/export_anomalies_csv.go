package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/store"
)

func main() {
	var (
		dbPath  = flag.String("db", "models/anomaly-scorer.db", "caminho do BoltDB")
		outPath = flag.String("out", "anomalies.csv", "arquivo CSV de saída")
	)
	flag.Parse()

	st, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro ao abrir db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	f, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro ao criar arquivo: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"when", "service", "message", "score"}); err != nil {
		fmt.Fprintf(os.Stderr, "erro ao escrever cabeçalho: %v\n", err)
		os.Exit(1)
	}

	n := 0
	err = st.IterateAnomalies(func(p store.Prediction) bool {
		row := []string{
			p.When.UTC().Format(time.RFC3339),
			p.Service,
			p.Message,
			strconv.FormatFloat(p.Score, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			fmt.Fprintf(os.Stderr, "erro ao escrever linha: %v\n", err)
			return false
		}
		n++
		return true
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro ao iterar anomalias: %v\n", err)
		os.Exit(1)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "erro ao finalizar csv: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exportadas %d anomalias para %s\n", n, *outPath)
}
