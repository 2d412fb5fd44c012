package executor

import (
	"fmt"
	"os"
	"path/filepath"
)

// sourceFileName is the fixed name the submitted code is written under inside
// a scratch workspace. The runner script receives its absolute path.
const sourceFileName = "kata.py"

// materialize writes the submitted code and any uploaded assets into dir and
// returns the path of the source file. Asset names are reduced to their base
// name so an upload can never escape the workspace; empty names are dropped.
func materialize(dir string, req Request) (string, error) {
	srcPath := filepath.Join(dir, sourceFileName)
	if err := os.WriteFile(srcPath, []byte(req.Code), 0o644); err != nil {
		return "", fmt.Errorf("writing source file: %w", err)
	}

	for _, f := range req.Files {
		name := filepath.Base(f.Name)
		if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), f.Data, 0o644); err != nil {
			return "", fmt.Errorf("writing uploaded file %s: %w", name, err)
		}
	}
	return srcPath, nil
}
