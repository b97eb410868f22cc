package preview

import "testing"

func TestScanFrameHealthy(t *testing.T) {
	body := `<html><body><div id="storybook-root"><h1>Card</h1><p>content</p></div></body></html>`
	if scan := scanFrame(body); scan.Kind != ErrorKindNone {
		t.Errorf("healthy frame flagged: %+v", scan)
	}
}

func TestScanFrameClassification(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ErrorKind
	}{
		{
			"module resolution",
			`<body><div>Error: Failed to resolve import "@acme/ui/Bannr"</div></body>`,
			ErrorKindModuleLoad,
		},
		{
			"undefined reference",
			`<body><pre>ReferenceError: Banner is not defined</pre></body>`,
			ErrorKindRender,
		},
		{
			"error boundary marker",
			`<body><div class="sb-errordisplay"><pre>boom</pre></div></body>`,
			ErrorKindRender,
		},
		{
			"no preview",
			`<body><div class="sb-nopreview"><p>No Preview</p></div></body>`,
			ErrorKindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan := scanFrame(tt.body)
			if scan.Kind != tt.want {
				t.Errorf("kind = %q, want %q (detail %q)", scan.Kind, tt.want, scan.Detail)
			}
			if scan.Detail == "" {
				t.Error("classified failure must carry detail text")
			}
		})
	}
}

func TestScanFrameIgnoresScriptText(t *testing.T) {
	// Signature strings inside script bodies are runtime code, not
	// rendered output, and must not trip the scan.
	body := `<html><body><div id="storybook-root">ok</div>
	<script>if (e.message.includes("is not defined")) report(e);</script>
	</body></html>`
	if scan := scanFrame(body); scan.Kind != ErrorKindNone {
		t.Errorf("script text tripped the scan: %+v", scan)
	}
}

func TestClassifyText(t *testing.T) {
	if got := classifyText("TypeError: x.map is not a function"); got != ErrorKindRender {
		t.Errorf("got %q", got)
	}
	if got := classifyText("Cannot find module './Missing'"); got != ErrorKindModuleLoad {
		t.Errorf("got %q", got)
	}
	if got := classifyText("all good"); got != ErrorKindNone {
		t.Errorf("got %q", got)
	}
}
