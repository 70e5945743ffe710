package esm

import (
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
)

func TestLoaderForExtensions(t *testing.T) {
	cases := map[string]api.Loader{
		"index.ts":    api.LoaderTS,
		"App.tsx":     api.LoaderTSX,
		"widget.jsx":  api.LoaderJSX,
		"data.json":   api.LoaderJSON,
		"styles.css":  api.LoaderCSS,
		"index.js":    api.LoaderJS,
		"noext":       api.LoaderJS,
	}
	for path, want := range cases {
		if got := loaderFor(path); got != want {
			t.Errorf("loaderFor(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestRewriteExternalImportsPinsResolvedVersions(t *testing.T) {
	code := `import x from "react";
export { y } from "lodash";
import "./local.js";
`
	deps := map[string]string{"react": "18.2.0"}
	got := rewriteExternalImports(code, deps)

	if !strings.Contains(got, `"/cdn/npm/react@18.2.0/+esm"`) {
		t.Errorf("expected react rewritten with pinned version, got:\n%s", got)
	}
	if !strings.Contains(got, `"/cdn/npm/lodash/+esm"`) {
		t.Errorf("expected lodash rewritten without a version, got:\n%s", got)
	}
	if !strings.Contains(got, `"./local.js"`) {
		t.Errorf("expected relative import left untouched, got:\n%s", got)
	}
}

func TestRangeBoundVersion(t *testing.T) {
	cases := map[string]string{
		"^1.2.3":         "1.0.0",
		"~1.2.3":         "1.2.0",
		">=1.2.3 <2.0.0": "1.0.0",
		"<=1.9.9":        "1.9.9",
		">=2.4.0":        "2.4.0",
		"1.2.3":          "1.2.3",
		"*":              "",
		"":               "",
		"latest":         "",
	}
	for rng, want := range cases {
		if got := rangeBoundVersion(rng); got != want {
			t.Errorf("rangeBoundVersion(%q) = %q, want %q", rng, got, want)
		}
	}
}
