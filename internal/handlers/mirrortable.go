package handlers

// defaultMirrors lists the generic passthrough registries proxied
// verbatim under /mirror/<name>/..., each mapped to its upstream base.
var defaultMirrors = map[string]string{
	"npm":              "https://registry.npmjs.org",
	"jsr-npm":          "https://npm.jsr.io",
	"pypi":             "https://pypi.org",
	"pypi-files":       "https://files.pythonhosted.org",
	"rubygems":         "https://rubygems.org",
	"crates":           "https://static.crates.io",
	"crates-index":     "https://index.crates.io",
	"packagist":        "https://repo.packagist.org",
	"nuget":            "https://api.nuget.org",
	"nuget-v3":         "https://api.nuget.org/v3-flatcontainer",
	"goproxy":          "https://proxy.golang.org",
	"maven":            "https://repo1.maven.org/maven2",
	"gradle-plugins":   "https://plugins.gradle.org/m2",
	"cocoapods":        "https://cdn.cocoapods.org",
	"conda":            "https://conda.anaconda.org",
	"conda-forge":      "https://conda.anaconda.org/conda-forge",
	"cran":             "https://cran.r-project.org",
	"hex":              "https://repo.hex.pm",
	"hexdocs":          "https://hexdocs.pm",
	"cpan":             "https://cpan.metacpan.org",
	"composer":         "https://packagist.org",
	"debian":           "https://deb.debian.org/debian",
	"ubuntu":           "https://archive.ubuntu.com/ubuntu",
	"alpine":           "https://dl-cdn.alpinelinux.org/alpine",
	"fedora":           "https://dl.fedoraproject.org/pub/fedora",
	"homebrew-bottles": "https://ghcr.io/v2/homebrew/core",
	"homebrew-api":     "https://formulae.brew.sh/api",
	"vscode-marketplace": "https://marketplace.visualstudio.com",
	"vscode-gallery":   "https://update.code.visualstudio.com",
	"jsdelivr-gh":      "https://raw.githubusercontent.com",
	"unpkg":            "https://unpkg.com",
	"deno-land":        "https://deno.land",
	"terraform":        "https://registry.terraform.io",
	"helm-stable":      "https://charts.helm.sh/stable",
	"dockerhub":        "https://registry-1.docker.io",
	"quay":             "https://quay.io",
	"ghcr":             "https://ghcr.io",
	"sourcehut":        "https://git.sr.ht",
	"opam":             "https://opam.ocaml.org",
	"swiftpm-index":    "https://swiftpackageindex.com",
	"dart-pub":         "https://pub.dev",
	"dart-pub-api":     "https://pub.dartlang.org",
	"composer-dist":    "https://github.com",
	"nimble":           "https://nimble.directory",
	"vcpkg":            "https://raw.githubusercontent.com",
}
