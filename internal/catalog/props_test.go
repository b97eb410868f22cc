package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInterfaceFieldProps(t *testing.T) {
	content := `
interface AlertProps {
  severity: 'info' | 'error';
  title?: string;
  readonly onClose: () => void;
  // internal
  children: React.ReactNode;
}
export function Alert(props: AlertProps) { return null; }
`
	got := interfaceFieldProps(content, "Alert")
	want := []string{"severity", "title", "onClose", "children"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("props (-want +got):\n%s", diff)
	}
}

func TestInterfaceFieldProps_TypeAlias(t *testing.T) {
	content := `
type ChipProps = {
  label: string;
  variant: 'filled' | 'outlined';
}
export const Chip = (props: ChipProps) => null;
`
	got := interfaceFieldProps(content, "Chip")
	want := []string{"label", "variant"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("props (-want +got):\n%s", diff)
	}
}

func TestPropTypesMapProps(t *testing.T) {
	content := `
export function Legacy({ name }) { return null; }

Legacy.propTypes = {
  name: PropTypes.string,
  count: PropTypes.number,
  onSelect: PropTypes.func
};
`
	got := propTypesMapProps(content, "Legacy")
	want := []string{"name", "count", "onSelect"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("props (-want +got):\n%s", diff)
	}
}

func TestDestructuredParamProps(t *testing.T) {
	tests := []struct {
		name    string
		content string
		comp    string
		want    []string
	}{
		{
			"function declaration",
			`export function Toggle({ checked, onChange = noop, ...rest }) {}`,
			"Toggle",
			[]string{"checked", "onChange"},
		},
		{
			"arrow function",
			`export const Pill = ({ text, color }) => <span>{text}</span>;`,
			"Pill",
			[]string{"text", "color"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := destructuredParamProps(tt.content, tt.comp)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("props (-want +got):\n%s", diff)
			}
		})
	}
}

// Strategies union rather than shadow each other.
func TestExtractProps_Union(t *testing.T) {
	content := `
interface MixedProps {
  declared: string;
}

export function Mixed({ declared, destructuredOnly }) { return null; }

Mixed.propTypes = {
  legacyOnly: PropTypes.bool
};
`
	got := ExtractProps(content, "Mixed")
	wantSet := map[string]bool{"declared": true, "destructuredOnly": true, "legacyOnly": true}
	if len(got) != len(wantSet) {
		t.Fatalf("expected %d props, got %v", len(wantSet), got)
	}
	for _, p := range got {
		if !wantSet[p] {
			t.Errorf("unexpected prop %q", p)
		}
	}
}

func TestMineExampleProps(t *testing.T) {
	example := `
export const Primary = {
  args: { label: 'Click', disabled: false },
};

const rendered = <Fancy size="lg" rounded tone={2} onPress={() => {}} />;
`
	got := MineExampleProps(example, "Fancy")
	for _, want := range []string{"size", "tone", "onPress", "label", "disabled"} {
		found := false
		for _, p := range got {
			if p == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected prop %q in %v", want, got)
		}
	}
}

func TestInferPropType(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{`"primary"`, "string"},
		{`'lg'`, "string"},
		{"true", "boolean"},
		{"{false}", "boolean"},
		{"{42}", "number"},
		{"{() => {}}", "function"},
		{"{someRef}", "unknown"},
	}
	for _, tt := range tests {
		if got := InferPropType(tt.value); got != tt.want {
			t.Errorf("InferPropType(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
