package catalog

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"storyforge/internal/config"
	"storyforge/internal/logging"
)

// Build probes all configured sources concurrently and resolves name
// collisions by origin priority. A failing source is logged and skipped;
// the build itself never fails - an empty catalog is a valid degraded result.
func Build(ctx context.Context, workspace string, cfg config.CatalogConfig) []ComponentRecord {
	return BuildFromSources(ctx, SourcesFromConfig(workspace, cfg))
}

// SourcesFromConfig assembles the discovery sources named by configuration.
func SourcesFromConfig(workspace string, cfg config.CatalogConfig) []Source {
	var sources []Source

	for _, pkg := range cfg.Packages {
		sources = append(sources, NewPackageSource(pkg, workspace))
	}
	for _, dir := range cfg.ScanDirs {
		sources = append(sources, NewScanSource(dir.Path, dir.Patterns, cfg.PrimaryImportPath))
	}
	for _, manifest := range cfg.Manifests {
		sources = append(sources, NewManifestSource(manifest, cfg.PrimaryImportPath))
	}
	if len(cfg.Overrides) > 0 {
		sources = append(sources, NewOverrideSource(cfg.Overrides, cfg.PrimaryImportPath))
	}

	return sources
}

// BuildFromSources runs discovery on the given sources. Sources are probed
// concurrently (they are read-only against shared state); conflict resolution
// runs only after every source has completed.
func BuildFromSources(ctx context.Context, sources []Source) []ComponentRecord {
	timer := logging.StartTimer(logging.CategoryCatalog, "catalog build")
	defer timer.Stop()

	var mu sync.Mutex
	byName := make(map[string][]ComponentRecord)

	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			records, err := src.Discover(ctx)
			if err != nil {
				logging.CatalogWarn("source %s failed, skipping: %v", src.Name(), err)
				return nil // failing sources degrade the catalog, never fail it
			}
			logging.CatalogDebug("source %s contributed %d records", src.Name(), len(records))

			mu.Lock()
			for _, rec := range records {
				byName[rec.Name] = append(byName[rec.Name], rec)
			}
			mu.Unlock()
			return nil
		})
	}
	// Join barrier: resolution must not start until all sources are done.
	_ = g.Wait()

	catalog := resolveConflicts(byName)
	logging.Catalog("built catalog: %d components from %d sources", len(catalog), len(sources))
	return catalog
}

// resolveConflicts keeps, for each name, only the record from the
// highest-priority origin. Losers are discarded entirely - field-level
// merging across origins would make provenance ambiguous.
func resolveConflicts(byName map[string][]ComponentRecord) []ComponentRecord {
	result := make([]ComponentRecord, 0, len(byName))

	for name, records := range byName {
		if len(records) > 1 {
			sort.SliceStable(records, func(i, j int) bool {
				return originPriority[records[i].Origin] < originPriority[records[j].Origin]
			})
			logging.CatalogDebug("conflict on %s: keeping %s, discarding %d record(s)",
				name, records[0].Origin, len(records)-1)
		}
		result = append(result, records[0])
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// ImportTable exposes the catalog as a simple name -> import-path lookup.
func ImportTable(records []ComponentRecord) map[string]string {
	table := make(map[string]string, len(records))
	for _, rec := range records {
		table[rec.Name] = rec.ImportPath
	}
	return table
}
