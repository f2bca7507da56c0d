package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/fixturedrc/pkg/analysis"
)

// Write writes every artifact enabled in out into out.Dir, named after
// base, and returns the written paths.
func Write(rep *analysis.Report, out analysis.OutputConfig, base string) ([]string, error) {
	dir := out.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create %s: %w", dir, err)
	}
	stem := filepath.Join(dir, base)

	var paths []string
	if out.DXF {
		p := stem + "_result.dxf"
		if err := DXF(rep, p); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	if out.JSON {
		p := stem + "_result.json"
		if err := writeFile(p, func(f *os.File) error { return JSON(rep, f) }); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	if out.PNG {
		p := stem + "_result.png"
		if err := writeFile(p, func(f *os.File) error { return PNG(rep, f, out.PNGScale) }); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}
