// Command normalize runs the CSV normalizer over a file or stdin and prints
// the resulting table as JSON. Handy for eyeballing upstream export artifacts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/careview/platform/pkg/normalizer"
	"github.com/careview/platform/pkg/schema"
)

func main() {
	var (
		path        = flag.String("file", "", "CSV file to normalize (default: stdin)")
		catalogPath = flag.String("catalog", "", "schema catalog YAML (default: built-in)")
		ratio       = flag.Float64("min-row-ratio", 0.7, "minimum cell count as a fraction of header count")
	)
	flag.Parse()

	catalog, err := schema.Load(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}

	var data []byte
	if *path != "" {
		data, err = os.ReadFile(*path)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}

	table := normalizer.NewParser(catalog.Renames, *ratio).Parse(string(data))

	out, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
