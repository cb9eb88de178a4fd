// Package main provides the Flowchart CLI application
package main

import (
	"fmt"
	"os"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/delta"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/dot"
)

// Version information set during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Printf("Flowchart %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
		return nil
	case "check":
		return runCheck(args[1:])
	case "frontier":
		return runFrontier(args[1:])
	case "delta":
		return runDelta(args[1:])
	default:
		printUsage()
		return nil
	}
}

func printUsage() {
	fmt.Println("🎤 Flowchart - Voice-Powered Flowchart Generation")
	fmt.Println("Usage:")
	fmt.Println("  flowchart check FILE...    validate DOT flowchart files")
	fmt.Println("  flowchart frontier FILE    list the open ends of a flowchart")
	fmt.Println("  flowchart delta FILE...    validate instruction delta JSON files")
	fmt.Println("  flowchart version          print version information")
}

// runCheck parses each DOT file and reports whether it is a well-formed
// flowchart.
func runCheck(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("check requires at least one DOT file")
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		g, err := dot.Parse(string(data))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("%s: ok (%d nodes, %d edges)\n", path, g.Len(), len(g.Edges()))
	}
	return nil
}

// runFrontier prints the attachable nodes of a flowchart, one per line
// as id, kind, label.
func runFrontier(paths []string) error {
	if len(paths) != 1 {
		return fmt.Errorf("frontier requires exactly one DOT file")
	}
	data, err := os.ReadFile(paths[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", paths[0], err)
	}
	g, err := dot.Parse(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", paths[0], err)
	}
	for _, id := range g.Frontier() {
		if n, ok := g.NodeByID(id); ok {
			fmt.Printf("%s\t%s\t%s\n", n.ID, n.Kind, n.Label)
		}
	}
	return nil
}

// runDelta validates instruction delta JSON files against the wire schema.
func runDelta(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("delta requires at least one JSON file")
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		d, err := delta.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("%s: ok (%d steps)\n", path, len(d.Steps))
	}
	return nil
}
