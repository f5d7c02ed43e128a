// SquarePack evolves a packing of N rotated squares into a square container
// with a parallel genetic algorithm.
//
// Build:
//   go build -o squarepack ./cmd/squarepack
//
// Examples:
//   squarepack -generations 2000 -dat evolution.dat -pdf report.pdf
//   squarepack -tui -checkpoint run.json -checkpoint-every 100
//   squarepack -resume run.json -generations 500
//   SQUAREPACK_GENE_SIZE=10 SQUAREPACK_BOX_SIDE=3.71 squarepack -compare

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "squarepack:", err)
		stop()
		os.Exit(1)
	}
}
