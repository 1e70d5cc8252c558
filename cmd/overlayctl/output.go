package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type format string

const (
	formatYAML format = "yaml"
	formatJSON format = "json"
)

// outputFormat is set by the root command's --format flag.
var outputFormat = formatYAML

var stdout io.Writer = os.Stdout

// printResult serializes v to stdout in the current output format.
func printResult(v interface{}) error {
	switch outputFormat {
	case formatJSON:
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}
