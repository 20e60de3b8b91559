// Command perft counts the leaf nodes of the legal move tree of a position.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kollin78/chess/internal/chess"
	"github.com/pkg/profile"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		fen      string
		depth    int
		divide   bool
		profMode string
	)
	fs := flag.NewFlagSet("perft", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&fen, "fen", chess.StartFEN, "position to search")
	fs.IntVar(&depth, "depth", 4, "search depth in plies")
	fs.BoolVar(&divide, "divide", false, "print the node count below each root move")
	fs.StringVar(&profMode, "profile", "", "write a cpu or mem profile to the current directory")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Parse before profiling so a bad position leaves no profile behind.
	game, err := chess.ParseFEN(fen)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	switch profMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		fmt.Fprintf(stderr, "unknown profile mode %q\n", profMode)
		return 2
	}

	start := time.Now()
	var nodes int
	if divide {
		counts := chess.Divide(game, depth)
		moves := make([]chess.Move, 0, len(counts))
		for m := range counts {
			moves = append(moves, m)
		}
		slices.SortFunc(moves, func(a, b chess.Move) int {
			return strings.Compare(a.String(), b.String())
		})
		for _, m := range moves {
			fmt.Fprintf(stdout, "%s: %d\n", m, counts[m])
			nodes += counts[m]
		}
		fmt.Fprintln(stdout)
	} else {
		nodes = chess.Perft(game, depth)
	}
	elapsed := time.Since(start)

	fmt.Fprintf(stdout, "nodes %d\ntime %s\nnps %.0f\n", nodes, elapsed.Round(time.Millisecond), float64(nodes)/elapsed.Seconds())
	return 0
}
