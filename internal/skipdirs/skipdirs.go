// Package skipdirs holds the fixed set of directory names tilth never
// descends into for search, indexing, or directory maps.
package skipdirs

var names = map[string]struct{}{
	".git":            {},
	"node_modules":    {},
	"target":          {},
	"dist":            {},
	"build":           {},
	"__pycache__":     {},
	".pycache":        {},
	"vendor":          {},
	".next":           {},
	".nuxt":           {},
	"coverage":        {},
	".cache":          {},
	".tox":            {},
	".venv":           {},
	".eggs":           {},
	".mypy_cache":     {},
	".ruff_cache":     {},
	".pytest_cache":   {},
	".turbo":          {},
	".parcel-cache":   {},
	".svelte-kit":     {},
	"out":             {},
	".output":         {},
	".vercel":         {},
	".netlify":        {},
	".gradle":         {},
	".idea":           {},
}

// Skip reports whether dirName should be excluded from a walk.
func Skip(dirName string) bool {
	_, ok := names[dirName]

	return ok
}
