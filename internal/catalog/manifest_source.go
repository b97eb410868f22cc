package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"storyforge/internal/logging"
)

// ManifestSource discovers components from a declarative custom-elements
// manifest (the structured JSON description emitted by web-component
// tooling: modules -> declarations -> customElement markers).
type ManifestSource struct {
	path       string
	importPath string
}

// NewManifestSource creates a declarative-manifest source.
func NewManifestSource(path, importPath string) *ManifestSource {
	return &ManifestSource{path: path, importPath: importPath}
}

func (s *ManifestSource) Name() string   { return fmt.Sprintf("manifest:%s", s.path) }
func (s *ManifestSource) Origin() Origin { return OriginManifest }

// customElementsManifest mirrors the subset of the custom-elements.json
// schema the catalog cares about.
type customElementsManifest struct {
	Modules []struct {
		Declarations []struct {
			Kind          string `json:"kind"`
			Name          string `json:"name"`
			TagName       string `json:"tagName"`
			CustomElement bool   `json:"customElement"`
			Description   string `json:"description"`
			Members       []struct {
				Kind    string `json:"kind"`
				Name    string `json:"name"`
				Privacy string `json:"privacy"`
			} `json:"members"`
			Slots []struct {
				Name string `json:"name"`
			} `json:"slots"`
		} `json:"declarations"`
	} `json:"modules"`
}

// Discover parses the manifest, keeping declarations with explicit
// custom-element markers and extracting public fields as props plus
// declared slot names.
func (s *ManifestSource) Discover(ctx context.Context) ([]ComponentRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("manifest unreadable: %w", err)
	}

	var manifest customElementsManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("manifest malformed: %w", err)
	}

	var records []ComponentRecord
	for _, module := range manifest.Modules {
		for _, decl := range module.Declarations {
			// Declarations without explicit custom-element markers are
			// plain classes, not components.
			if !decl.CustomElement && decl.TagName == "" {
				continue
			}
			if !IsPascalCase(decl.Name) {
				continue
			}

			var props []string
			for _, member := range decl.Members {
				if member.Kind == "field" && member.Privacy != "private" && member.Privacy != "protected" {
					props = append(props, member.Name)
				}
			}

			// Every element has at least the implicit default slot.
			slots := []string{"default"}
			for _, slot := range decl.Slots {
				if slot.Name != "" && slot.Name != "default" {
					slots = append(slots, slot.Name)
				}
			}

			records = append(records, ComponentRecord{
				Name:        decl.Name,
				Category:    GuessCategory(decl.Name),
				Props:       props,
				Slots:       slots,
				Description: decl.Description,
				ImportPath:  s.importPath,
				Origin:      OriginManifest,
			})
		}
	}

	logging.CatalogDebug("manifest %s: %d custom elements", s.path, len(records))
	return records, nil
}
