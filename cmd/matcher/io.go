package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/context-matcher/internal/schemas"
	"github.com/jonathan/context-matcher/internal/types"
)

// readJSONInput reads path, checks it against schema when the schema file can be found,
// and decodes it into dst
func readJSONInput(path, schema string, dst any, warn io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input file %s: %w", path, err)
	}

	if schemaPath := schemas.ResolveSchemaPath(schema); schemaPath != "" {
		if err := schemas.ValidateBytes(schemaPath, data); err != nil {
			return fmt.Errorf("input %s failed schema validation: %w", path, err)
		}
	} else {
		_, _ = fmt.Fprintf(warn, "Warning: schema %s not found, skipping validation of %s\n", schema, path)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return nil
}

func loadProfile(path string, warn io.Writer) (*types.ContextWindow, error) {
	var cw types.ContextWindow
	if err := readJSONInput(path, schemas.ContextWindowSchema, &cw, warn); err != nil {
		return nil, err
	}
	if err := cw.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile in %s: %w", path, err)
	}
	return &cw, nil
}

func loadCandidates(path string, warn io.Writer) ([]types.ContextWindow, error) {
	var candidates []types.ContextWindow
	if err := readJSONInput(path, schemas.CandidatesSchema, &candidates, warn); err != nil {
		return nil, err
	}
	for i := range candidates {
		if err := candidates[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid candidate %d in %s: %w", i, path, err)
		}
	}
	return candidates, nil
}

// loadSharedCounts reads a candidate id to shared-community count map; an empty path means none
func loadSharedCounts(path string, warn io.Writer) (map[string]int, error) {
	if path == "" {
		return nil, nil
	}
	var counts map[string]int
	if err := readJSONInput(path, schemas.CommunitiesSchema, &counts, warn); err != nil {
		return nil, err
	}
	return counts, nil
}

// writeJSONOutput writes v as indented JSON to path, or to stdout when path is empty
func writeJSONOutput(stdout io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output JSON: %w", err)
	}

	if path == "" {
		_, err := fmt.Fprintln(stdout, string(data))
		return err
	}

	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return nil
}

// checkResults validates written match results; failures are reported, never fatal
func checkResults(path string, warn io.Writer) {
	if path == "" {
		return
	}
	schemaPath := schemas.ResolveSchemaPath(schemas.MatchResultsSchema)
	if schemaPath == "" {
		return
	}
	if err := schemas.ValidateJSON(schemaPath, path); err != nil {
		_, _ = fmt.Fprintf(warn, "Warning: Output validation failed: %v\n", err)
	}
}
