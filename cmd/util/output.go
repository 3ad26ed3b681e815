package util

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Print writes v in the configured output format
func Print(w io.Writer, v any) error {
	return PrintAs(w, viper.GetString("output"), v)
}

// PrintAs writes v in the given output format (text, json, yaml).
// Text prints strings as they are and everything else as compact JSON.
func PrintAs(w io.Writer, format string, v any) error {
	switch format {
	case "text", "":
		if s, ok := v.(string); ok {
			_, err := fmt.Fprintln(w, s)
			return err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()

	default:
		return fmt.Errorf("invalid output format %s", format)
	}
}

// ParseValue parses a command line value as JSON and falls back to the
// plain string if it is not valid JSON
func ParseValue(arg string) any {
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return arg
	}
	return v
}

// OutputIsText reports whether the plain text output format is configured
func OutputIsText() bool {
	format := viper.GetString("output")
	return format == "text" || format == ""
}

// CurrentOutput returns the configured output format
func CurrentOutput() string {
	return viper.GetString("output")
}
