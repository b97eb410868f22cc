package catalog

import (
	"context"

	"storyforge/internal/config"
)

// OverrideSource serves user-declared component records from configuration.
// Overrides always win conflict resolution.
type OverrideSource struct {
	overrides  []config.OverrideComponent
	importPath string
}

// NewOverrideSource creates a user-override source.
func NewOverrideSource(overrides []config.OverrideComponent, importPath string) *OverrideSource {
	return &OverrideSource{overrides: overrides, importPath: importPath}
}

func (s *OverrideSource) Name() string   { return "user-overrides" }
func (s *OverrideSource) Origin() Origin { return OriginOverride }

func (s *OverrideSource) Discover(_ context.Context) ([]ComponentRecord, error) {
	records := make([]ComponentRecord, 0, len(s.overrides))
	for _, o := range s.overrides {
		if !IsPascalCase(o.Name) {
			continue
		}

		importPath := o.ImportPath
		if importPath == "" {
			importPath = s.importPath
		}

		category := Category(o.Category)
		switch category {
		case CategoryLayout, CategoryContent, CategoryForm, CategoryNavigation, CategoryFeedback, CategoryOther:
		default:
			category = GuessCategory(o.Name)
		}

		records = append(records, ComponentRecord{
			Name:        o.Name,
			Category:    category,
			Props:       o.Props,
			Description: o.Description,
			ImportPath:  importPath,
			Origin:      OriginOverride,
		})
	}
	return records, nil
}
