package catalog

import "testing"

func testCatalog() []ComponentRecord {
	return []ComponentRecord{
		{Name: "Button", ImportPath: "@acme/ui"},
		{Name: "Card", ImportPath: "@acme/ui"},
		{Name: "VStack", ImportPath: "@acme/ui"},
		{Name: "TextField", ImportPath: "@acme/forms"},
	}
}

// Oracle soundness: every catalog name is known with the right import path;
// anything else is unknown.
func TestOracle_Soundness(t *testing.T) {
	records := testCatalog()
	oracle := NewOracle(records)

	for _, rec := range records {
		if !oracle.IsKnown(rec.Name) {
			t.Errorf("IsKnown(%s) = false, want true", rec.Name)
		}
		path, ok := oracle.ImportPathFor(rec.Name)
		if !ok || path != rec.ImportPath {
			t.Errorf("ImportPathFor(%s) = %q, %v; want %q, true", rec.Name, path, ok, rec.ImportPath)
		}
	}

	for _, name := range []string{"Modal", "button", "", "ButtonX"} {
		if oracle.IsKnown(name) {
			t.Errorf("IsKnown(%q) = true, want false", name)
		}
	}
}

func TestOracle_SuggestSubstring(t *testing.T) {
	oracle := NewOracle(testCatalog())

	tests := []struct {
		in   string
		want string
	}{
		{"button", "Button"},        // case-insensitive exact
		{"PrimaryButton", "Button"}, // catalog name contained in request
		{"Butt", "Button"},          // request contained in catalog name
		{"Elephant", ""},            // nothing plausible
	}
	for _, tt := range tests {
		if got := oracle.Suggest(tt.in); got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOracle_SuggestGenericAlias(t *testing.T) {
	oracle := NewOracle(testCatalog())

	// "stack" maps to whichever concrete stacking component the active
	// catalog actually contains - here VStack.
	if got := oracle.Suggest("stack"); got != "VStack" {
		t.Errorf("Suggest(stack) = %q, want VStack", got)
	}
	// "textbox" maps to TextField via the alias table.
	if got := oracle.Suggest("textbox"); got != "TextField" {
		t.Errorf("Suggest(textbox) = %q, want TextField", got)
	}
}

func TestOracle_SuggestDeterministic(t *testing.T) {
	oracle := NewOracle(testCatalog())
	first := oracle.Suggest("card")
	for i := 0; i < 10; i++ {
		if got := oracle.Suggest("card"); got != first {
			t.Fatalf("Suggest not deterministic: %q then %q", first, got)
		}
	}
}

func TestOracle_KnownBad(t *testing.T) {
	oracle := NewOracle(testCatalog())

	tests := []struct {
		name        string
		wantBad     bool
		wantSuggest string
	}{
		{"ButtonStory", true, "Button"},   // artifact suffix with real base
		{"CardExample", true, "Card"},     // ditto
		{"WidgetDemo", true, ""},          // artifact suffix, no real base
		{"StoryObj", true, ""},            // internal tool symbol
		{"LegacyGrid", true, ""},          // deprecated, replacement not in catalog
		{"Button", false, ""},             // catalog hit is never known-bad
		{"Modal", false, ""},              // merely unknown, not known-bad
	}
	for _, tt := range tests {
		bad, suggestion := oracle.IsKnownBad(tt.name)
		if bad != tt.wantBad {
			t.Errorf("IsKnownBad(%s) = %v, want %v", tt.name, bad, tt.wantBad)
		}
		if suggestion != tt.wantSuggest {
			t.Errorf("IsKnownBad(%s) suggestion = %q, want %q", tt.name, suggestion, tt.wantSuggest)
		}
	}
}

func TestOracle_Empty(t *testing.T) {
	oracle := NewOracle(nil)
	if oracle.Len() != 0 {
		t.Errorf("empty oracle Len = %d", oracle.Len())
	}
	if oracle.IsKnown("Button") {
		t.Error("empty oracle should know nothing")
	}
	if got := oracle.Suggest("Button"); got != "" {
		t.Errorf("empty oracle Suggest = %q, want empty", got)
	}
}
