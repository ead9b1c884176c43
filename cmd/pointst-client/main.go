package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ygmpkk/pointst/core"
	"github.com/ygmpkk/pointst/internal/log"
	"github.com/ygmpkk/pointst/internal/table"
)

func main() {
	var (
		kindName string
		verbose  bool
		version  bool
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `pointst-client version: %s

Usage: pointst-client [-kind kdtree|brute] [file]

Reads x y coordinate pairs from file, or stdin when no file is given, stores
each with its sequence number and prints a report of table queries.

`, core.Version)
		flag.PrintDefaults()
	}
	flag.StringVar(&kindName, "kind", "kdtree", "table implementation: kdtree or brute")
	flag.BoolVar(&verbose, "v", false, "log timings to stderr")
	flag.BoolVar(&version, "version", false, "print the version and exit")
	flag.Parse()

	if version {
		fmt.Fprintf(os.Stdout, "pointst-client version: %s (%s)\n", core.Version, core.GitSHA)
		return
	}
	if verbose {
		log.Level = 3
	}

	kind, err := table.ParseKind(kindName)
	if err != nil {
		log.Fatal(err)
	}

	var rd io.Reader = os.Stdin
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		rd = f
	}

	tbl := table.New[int](kind)
	if err := load(rd, tbl); err != nil {
		log.Fatal(err)
	}
	log.Debugf("loaded %d points into %s table", tbl.Len(), kind)
	if err := report(os.Stdout, tbl); err != nil {
		log.Fatal(err)
	}
}
