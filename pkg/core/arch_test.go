package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// coreImports returns the import paths of each non-test file in pkg/core.
func coreImports(t *testing.T) map[string][]string {
	t.Helper()
	entries, err := os.ReadDir(".")
	require.NoError(t, err)

	fset := token.NewFileSet()
	imports := make(map[string][]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		require.NoError(t, err, name)
		for _, imp := range f.Imports {
			imports[name] = append(imports[name], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return imports
}

// pkg/core imports only the standard library.
func TestCoreImportsStdlibOnly(t *testing.T) {
	for file, paths := range coreImports(t) {
		for _, p := range paths {
			first, _, _ := strings.Cut(p, "/")
			if strings.Contains(first, ".") {
				t.Errorf("%s imports non-stdlib package %s", file, p)
			}
			if strings.Contains(p, "/internal/") {
				t.Errorf("%s imports internal package %s", file, p)
			}
		}
	}
}
