package validate

import (
	"context"
	"strings"
	"testing"

	"storyforge/internal/catalog"
)

func testOracle(names ...string) *catalog.Oracle {
	var recs []catalog.ComponentRecord
	for _, n := range names {
		recs = append(recs, catalog.ComponentRecord{
			Name:       n,
			Category:   catalog.CategoryContent,
			ImportPath: "@acme/ui",
		})
	}
	return catalog.NewOracle(recs)
}

func testValidator(oracle *catalog.Oracle, repair bool) *Validator {
	return NewValidator(oracle, DialectReact, Options{
		CanonicalImportPath: "@acme/ui",
		Repair:              repair,
	})
}

const validStory = `import { Card, Text } from '@acme/ui';

export default {
  title: 'Display/Card',
  component: Card,
};

export const Basic = () => (
  <Card>
    <Text>hello</Text>
  </Card>
);
`

func TestValidArtifactPasses(t *testing.T) {
	v := testValidator(testOracle("Card", "Text"), false)
	out := v.Run(context.Background(), validStory)

	if !out.IsValid {
		t.Fatalf("expected valid, got diagnostics: %v", out.Diagnostics)
	}
	if out.RepairedArtifact != "" {
		t.Errorf("no repair should be reported for a valid artifact")
	}
}

func TestImportedButNotInCatalog(t *testing.T) {
	// Banner is imported from the canonical source but the catalog only
	// knows Card and Text. Exactly one error, naming Banner.
	text := `import { Card, Text, Banner } from '@acme/ui';

export default { title: 'Display/Banner', component: Banner };

export const Basic = () => (
  <Banner>
    <Card><Text>hi</Text></Card>
  </Banner>
);
`
	v := testValidator(testOracle("Card", "Text"), false)
	out := v.Run(context.Background(), text)

	if out.IsValid {
		t.Fatal("expected invalid")
	}
	var errs []Diagnostic
	for _, d := range out.Diagnostics {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Message, "Banner") {
		t.Errorf("error should name Banner: %s", errs[0].Message)
	}
}

func TestUsedButNeverImported(t *testing.T) {
	text := `import { Bar } from '@acme/ui';

export default { title: 'X/Bar', component: Bar };

export const Basic = () => (
  <div>
    <Foo label="a" />
    <Foo label="b" />
    <Bar />
  </div>
);
`
	v := testValidator(testOracle("Bar", "Foo"), false)
	out := v.Run(context.Background(), text)

	if out.IsValid {
		t.Fatal("expected invalid")
	}
	count := 0
	for _, d := range out.Diagnostics {
		if d.Severity == SeverityError && strings.Contains(d.Message, "<Foo>") {
			count++
			if !strings.Contains(d.Message, "@acme/ui") {
				t.Errorf("diagnostic should carry the import path: %s", d.Message)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected one diagnostic for Foo despite two usages, got %d", count)
	}
}

func TestKnownBadNameGetsStructuredSuggestion(t *testing.T) {
	text := `import { Card, Meta } from '@acme/ui';

export default { title: 'X/Card', component: Card };

export const Basic = () => <Card />;
`
	v := testValidator(testOracle("Card"), false)
	out := v.Run(context.Background(), text)

	found := false
	for _, d := range out.Diagnostics {
		if strings.Contains(d.Message, `"Meta" is not a real component`) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected known-bad diagnostic for Meta, got: %v", out.Diagnostics)
	}
}

func TestCompoundUsageChecksRoot(t *testing.T) {
	text := `import { Menu } from '@acme/ui';

export default { title: 'Nav/Menu', component: Menu };

export const Basic = () => (
  <Menu>
    <Menu.Item label="one" />
  </Menu>
);
`
	v := testValidator(testOracle("Menu"), false)
	out := v.Run(context.Background(), text)

	if !out.IsValid {
		t.Errorf("Menu.Item should resolve through the imported Menu root: %v", out.Diagnostics)
	}
}

func TestDeepImportWarnsAndStrictEscalates(t *testing.T) {
	text := `import { Card } from '@acme/ui/lib/Card';

export default { title: 'X/Card', component: Card };

export const Basic = () => <Card />;
`
	lax := NewValidator(testOracle("Card"), DialectReact, Options{CanonicalImportPath: "@acme/ui"})
	out := lax.Run(context.Background(), text)
	if !out.IsValid {
		t.Errorf("deep import should be a warning by default: %v", out.Diagnostics)
	}
	warned := false
	for _, d := range out.Diagnostics {
		if d.Severity == SeverityWarning && strings.Contains(d.Message, "deep import") {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a deep import warning")
	}

	strict := NewValidator(testOracle("Card"), DialectReact, Options{
		CanonicalImportPath: "@acme/ui",
		StrictImports:       true,
	})
	if out := strict.Run(context.Background(), text); out.IsValid {
		t.Error("strict mode should make deep imports errors")
	}
}

func TestDeepImportRepairConsolidates(t *testing.T) {
	text := `import { Card } from '@acme/ui/lib/Card';
import { Text } from '@acme/ui';

export default { title: 'X/Card', component: Card };

export const Basic = () => <Card><Text>hi</Text></Card>;
`
	v := NewValidator(testOracle("Card", "Text"), DialectReact, Options{
		CanonicalImportPath: "@acme/ui",
		StrictImports:       true,
		Repair:              true,
	})
	out := v.Run(context.Background(), text)

	if !out.IsValid {
		t.Fatalf("repair should fix the deep import: %v", out.Diagnostics)
	}
	if out.RepairedArtifact == "" {
		t.Fatal("expected a repaired artifact")
	}
	if strings.Contains(out.RepairedArtifact, "@acme/ui/lib/Card") {
		t.Errorf("deep specifier should be gone:\n%s", out.RepairedArtifact)
	}
	if !strings.Contains(out.RepairedArtifact, "import { Card, Text } from '@acme/ui';") {
		t.Errorf("imports should be consolidated:\n%s", out.RepairedArtifact)
	}
}

func TestTruncatedArtifactRepaired(t *testing.T) {
	// Output cut off mid-body: two tags left dangling before the closer.
	text := `import { Card, Text } from '@acme/ui';

export default { title: 'Display/Card', component: Card };

export const Basic = () => (
  <Card>
    <Text>hello
);
`
	v := testValidator(testOracle("Card", "Text"), true)
	out := v.Run(context.Background(), text)

	if out.RepairedArtifact == "" {
		t.Fatalf("expected repair attempt, diagnostics: %v", out.Diagnostics)
	}
	if strings.Count(out.RepairedArtifact, "</Text>") != 1 ||
		strings.Count(out.RepairedArtifact, "</Card>") != 1 {
		t.Errorf("dangling tags should be closed:\n%s", out.RepairedArtifact)
	}
}

func TestRepairNeverIncreasesErrors(t *testing.T) {
	// An artifact whose defects are not mechanically repairable: repair
	// must leave diagnostics intact rather than thrash.
	text := `import { Zzz } from '@acme/ui';

export default { title: 'X/Zzz', component: Zzz };

export const Basic = () => <Zzz />;
`
	v := testValidator(testOracle("Card"), true)
	out := v.Run(context.Background(), text)

	if out.IsValid {
		t.Fatal("unknown component cannot be repaired away")
	}
	if out.RepairedArtifact != "" {
		t.Errorf("no rewrite applies here; none should be reported")
	}
}

func TestRepairIdempotent(t *testing.T) {
	text := `import { Card } from '@acme/ui/lib/Card';

export default { title: 'X/Card', component: Card };

export const Basic = () => <Card />;
`
	v := NewValidator(testOracle("Card"), DialectReact, Options{
		CanonicalImportPath: "@acme/ui",
		StrictImports:       true,
		Repair:              true,
	})
	first := v.Run(context.Background(), text)
	if first.RepairedArtifact == "" {
		t.Fatal("expected a repair on first run")
	}

	second := v.Run(context.Background(), first.RepairedArtifact)
	if !second.IsValid {
		t.Fatalf("repaired artifact should validate clean: %v", second.Diagnostics)
	}
	if second.RepairedArtifact != "" {
		t.Error("second run should find nothing to rewrite")
	}
}

func TestMissingDefaultExport(t *testing.T) {
	text := `import { Card } from '@acme/ui';

export const Basic = () => <Card />;
`
	v := testValidator(testOracle("Card"), false)
	out := v.Run(context.Background(), text)

	if out.IsValid {
		t.Fatal("missing default export must be an error")
	}
	found := false
	for _, d := range out.Diagnostics {
		if strings.Contains(d.Message, "default export") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected default-export diagnostic: %v", out.Diagnostics)
	}
}

func TestLegacyStoriesOfRejected(t *testing.T) {
	text := `import { storiesOf } from '@storybook/react';
import { Card } from '@acme/ui';

storiesOf('Card', module).add('basic', () => <Card />);

export default { title: 'X/Card' };
`
	v := testValidator(testOracle("Card"), false)
	out := v.Run(context.Background(), text)

	found := false
	for _, d := range out.Diagnostics {
		if strings.Contains(d.Message, "storiesOf") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected storiesOf diagnostic: %v", out.Diagnostics)
	}
}

func TestCrossFrameworkContamination(t *testing.T) {
	text := `import { Button } from '@acme/ui';

export default { title: 'X/Button', component: Button };

export const Basic = () => <Button @click="go">ok</Button>;
`
	v := NewValidator(testOracle("Button"), DialectReact, Options{CanonicalImportPath: "@acme/ui"})
	out := v.Run(context.Background(), text)

	found := false
	for _, d := range out.Diagnostics {
		if d.Severity == SeverityError && strings.Contains(d.Message, "vue") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected vue contamination diagnostic: %v", out.Diagnostics)
	}
}

func TestEmptyCatalogSkipsImportChecks(t *testing.T) {
	v := testValidator(testOracle(), false)
	out := v.Run(context.Background(), validStory)

	for _, d := range out.Diagnostics {
		if strings.Contains(d.Message, "catalog") {
			t.Errorf("empty catalog must not reject imports: %s", d.Message)
		}
	}
}
