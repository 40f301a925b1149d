package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/mod/modfile"
)

// layer groups internal packages by directory prefix. A layer may import
// anything except the packages listed in forbid.
type layer struct {
	name   string
	dirs   []string
	forbid []string
}

var layers = []layer{
	{
		name:   "platform",
		dirs:   []string{"platform/"},
		forbid: []string{"domain", "data/", "authz", "realtime", "services", "seed", "http", "app"},
	},
	{
		name:   "domain",
		dirs:   []string{"domain/"},
		forbid: []string{"data/", "authz", "realtime", "services", "seed", "http", "app", "platform/gcp"},
	},
	{
		name:   "data",
		dirs:   []string{"data/"},
		forbid: []string{"authz", "realtime", "services", "seed", "http", "app"},
	},
	{
		name:   "infra",
		dirs:   []string{"authz/", "realtime/"},
		forbid: []string{"services", "seed", "http", "app"},
	},
	{
		name:   "services",
		dirs:   []string{"services/", "seed/"},
		forbid: []string{"http", "app"},
	},
	{
		name:   "http",
		dirs:   []string{"http/"},
		forbid: []string{"app", "seed"},
	},
}

func TestImportBoundaries(t *testing.T) {
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("module root: %v", err)
	}
	gomod, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("read go.mod: %v", err)
	}
	internal := modfile.ModulePath(gomod) + "/internal/"

	imports, err := internalImports(filepath.Join(root, "internal"), internal)
	if err != nil {
		t.Fatalf("scan internal/: %v", err)
	}

	var bad []string
	for file, pkgs := range imports {
		l, ok := layerOf(file)
		if !ok {
			continue
		}
		for _, pkg := range pkgs {
			for _, f := range l.forbid {
				if strings.HasPrefix(pkg, f) {
					bad = append(bad, l.name+": "+file+" imports internal/"+pkg)
					break
				}
			}
		}
	}
	sort.Strings(bad)
	if len(bad) > 0 {
		t.Fatalf("import boundary violations:\n%s", strings.Join(bad, "\n"))
	}
}

func TestLayerOf(t *testing.T) {
	cases := map[string]string{
		"platform/apierr/apierr.go":   "platform",
		"data/repos/tickets/repo.go":  "data",
		"realtime/bus/redis_bus.go":   "infra",
		"seed/seed.go":                "services",
		"http/handlers/ticket.go":     "http",
		"app/app.go":                  "",
		"observability/metrics.go":    "",
		"domain/ticket/status.go":     "domain",
	}
	for file, want := range cases {
		l, _ := layerOf(file)
		if l.name != want {
			t.Errorf("layerOf(%s) = %q, want %q", file, l.name, want)
		}
	}
}

func layerOf(file string) (layer, bool) {
	for _, l := range layers {
		for _, d := range l.dirs {
			if strings.HasPrefix(file, d) {
				return l, true
			}
		}
	}
	return layer{}, false
}

// internalImports maps each .go file under dir, relative to dir, to the
// module-internal packages it imports with the prefix trimmed.
func internalImports(dir, prefix string) (map[string][]string, error) {
	out := map[string][]string{}
	fset := token.NewFileSet()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".go" {
			return err
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, spec := range f.Imports {
			imp, err := strconv.Unquote(spec.Path.Value)
			if err == nil && strings.HasPrefix(imp, prefix) {
				out[rel] = append(out[rel], strings.TrimPrefix(imp, prefix))
			}
		}
		return nil
	})
	return out, err
}
