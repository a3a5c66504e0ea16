// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/vgrab/internal/config"
	"github.com/ManuGH/vgrab/internal/version"
)

func runConfigCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vgrab config validate [--config|-c config.yaml]")
	fmt.Fprintln(w, "  vgrab config dump [--config|-c config.yaml]")
}

func parseConfigFlags(name string, args []string, stderr io.Writer) (string, bool) {
	fs := flag.NewFlagSet("vgrab config "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	fs.StringVar(&file, "config", "", "path to YAML configuration file")
	fs.StringVar(&file, "c", "", "path to YAML configuration file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return "", false
	}
	return strings.TrimSpace(file), true
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	path, ok := parseConfigFlags("validate", args, stderr)
	if !ok {
		return 2
	}

	if _, err := config.NewLoader(path, version.Version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", sourceName(path), err)
		return 1
	}
	fmt.Fprintf(stdout, "%s is valid\n", sourceName(path))
	return 0
}

// runConfigDump prints the effective configuration (defaults + file + env).
func runConfigDump(args []string, stdout, stderr io.Writer) int {
	path, ok := parseConfigFlags("dump", args, stderr)
	if !ok {
		return 2
	}

	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", sourceName(path), err)
		return 1
	}

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
		return 1
	}
	_ = enc.Close()
	return 0
}

func sourceName(path string) string {
	if path == "" {
		return "environment"
	}
	return path
}
