package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLiveExportProvider(t *testing.T) {
	workspace := t.TempDir()
	moduleDir := filepath.Join(workspace, "node_modules", "@acme", "ui")
	if err := os.MkdirAll(moduleDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, moduleDir, "package.json", `{"name": "@acme/ui", "types": "index.d.ts"}`)
	writeFile(t, moduleDir, "index.d.ts", `
export declare const version: string;
export { Button } from './Button';
export { Card } from './Card';
`)

	provider := NewExportProvider(workspace, "@acme/ui")
	if _, ok := provider.(*liveExportProvider); !ok {
		t.Fatalf("expected live provider when package is on disk, got %T", provider)
	}

	exports, err := provider.Exports(context.Background(), "@acme/ui")
	if err != nil {
		t.Fatalf("Exports failed: %v", err)
	}
	got := make(map[string]bool)
	for _, e := range exports {
		got[e] = true
	}
	if !got["Button"] || !got["Card"] {
		t.Errorf("expected Button and Card in exports, got %v", exports)
	}
}

func TestExportProviderFactory_StaticFallback(t *testing.T) {
	workspace := t.TempDir() // no node_modules
	provider := NewExportProvider(workspace, "antd")
	if _, ok := provider.(*staticExportProvider); !ok {
		t.Fatalf("expected static provider fallback, got %T", provider)
	}

	exports, err := provider.Exports(context.Background(), "antd")
	if err != nil {
		t.Fatalf("static Exports failed: %v", err)
	}
	found := false
	for _, e := range exports {
		if e == "Button" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Button in curated antd exports")
	}
}

func TestStaticExportProvider_UnknownPackage(t *testing.T) {
	provider := &staticExportProvider{}
	if _, err := provider.Exports(context.Background(), "@no/such-lib"); err == nil {
		t.Error("expected error for package with no static table")
	}
}

// A package neither provider can serve contributes nothing without failing
// the source.
func TestPackageSource_NoDataIsNotAnError(t *testing.T) {
	src := NewPackageSource("@no/such-lib", t.TempDir())
	records, err := src.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover should not fail: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestPackageSource_ComponentHeuristic(t *testing.T) {
	src := &PackageSource{
		pkg: "@acme/ui",
		provider: &fakeProvider{exports: []string{
			"Button", "useTheme", "VERSION", "createTheme", "Card", "with_underscore",
		}},
	}
	records, err := src.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 component-shaped exports, got %d: %+v", len(records), records)
	}
	for _, rec := range records {
		if rec.ImportPath != "@acme/ui" {
			t.Errorf("import path = %s, want @acme/ui", rec.ImportPath)
		}
	}
}

type fakeProvider struct {
	exports []string
}

func (f *fakeProvider) Exports(_ context.Context, _ string) ([]string, error) {
	return f.exports, nil
}
