package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/swcstudio/fsl-continuum-sub003/internal/ensemble"
)

// encode writes v as JSON or YAML.
func encode(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "", "json":
		enc := json.NewEncoder(w)
		if pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// writeOutput encodes v to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, v any, format string, pretty bool) error {
	if path == "" {
		return encode(w, v, format, pretty)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := encode(f, v, format, pretty); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var (
	okColor      = color.New(color.FgGreen, color.Bold)
	partialColor = color.New(color.FgYellow, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
)

// printSummary writes the one-line run outcome.
func printSummary(w io.Writer, res *ensemble.Result) {
	answered := 0
	for _, r := range res.Responses {
		if !r.Failed() {
			answered++
		}
	}

	line := fmt.Sprintf("tier=%s complexity=%.2f backends=%d/%d confidence=%.2f agreement=%.2f cost=%.4f",
		res.Tier, res.Complexity, answered, len(res.Responses), res.Confidence, res.Agreement, res.TotalCost)
	if res.ElevationSuggested && res.ElevationTarget != nil {
		line += fmt.Sprintf(" elevation=%s", res.ElevationTarget)
	}

	switch {
	case res.Degraded:
		failColor.Fprint(w, "FAILED ")
		fmt.Fprintln(w, line+" (no backend answered)")
	case answered < len(res.Responses):
		partialColor.Fprint(w, "DEGRADED ")
		fmt.Fprintln(w, line)
	default:
		okColor.Fprint(w, "OK ")
		fmt.Fprintln(w, line)
	}
}
