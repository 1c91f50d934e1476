// Package outline generates a structural summary of a source file: one line
// per top-level (or nested, up to a depth cap) declaration, with its line
// range and signature, instead of the file's full text.
package outline

import (
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	cgrammar "github.com/alexaandru/go-sitter-forest/c"
	csharpgrammar "github.com/alexaandru/go-sitter-forest/c_sharp"
	cppgrammar "github.com/alexaandru/go-sitter-forest/cpp"
	dockerfilegrammar "github.com/alexaandru/go-sitter-forest/dockerfile"
	gogrammar "github.com/alexaandru/go-sitter-forest/go"
	javagrammar "github.com/alexaandru/go-sitter-forest/java"
	javascriptgrammar "github.com/alexaandru/go-sitter-forest/javascript"
	kotlingrammar "github.com/alexaandru/go-sitter-forest/kotlin"
	makegrammar "github.com/alexaandru/go-sitter-forest/make"
	pythongrammar "github.com/alexaandru/go-sitter-forest/python"
	rubygrammar "github.com/alexaandru/go-sitter-forest/ruby"
	rustgrammar "github.com/alexaandru/go-sitter-forest/rust"
	swiftgrammar "github.com/alexaandru/go-sitter-forest/swift"
	tsxgrammar "github.com/alexaandru/go-sitter-forest/tsx"
	typescriptgrammar "github.com/alexaandru/go-sitter-forest/typescript"

	"github.com/pityka/tilth/internal/langtag"
)

// grammarFuncs maps each grammar-backed Lang to its tree-sitter
// GetLanguage function, mirroring the teacher's languageFuncs table but
// scoped to the languages tilth's outline engine actually supports.
var grammarFuncs = map[langtag.Lang]func() unsafe.Pointer{
	langtag.Rust:       rustgrammar.GetLanguage,
	langtag.TypeScript: typescriptgrammar.GetLanguage,
	langtag.TSX:        tsxgrammar.GetLanguage,
	langtag.JavaScript: javascriptgrammar.GetLanguage,
	langtag.Python:     pythongrammar.GetLanguage,
	langtag.Go:         gogrammar.GetLanguage,
	langtag.Java:       javagrammar.GetLanguage,
	langtag.C:          cgrammar.GetLanguage,
	langtag.Cpp:        cppgrammar.GetLanguage,
	langtag.Ruby:       rubygrammar.GetLanguage,
	langtag.Swift:      swiftgrammar.GetLanguage,
	langtag.Kotlin:     kotlingrammar.GetLanguage,
	langtag.CSharp:     csharpgrammar.GetLanguage,
	langtag.Dockerfile: dockerfilegrammar.GetLanguage,
	langtag.Makefile:   makegrammar.GetLanguage,
}

var (
	languageCache sync.Map // langtag.Lang -> *sitter.Language
	parserPools   sync.Map // langtag.Lang -> *sync.Pool of *sitter.Parser
)

// Language returns the cached tree-sitter Language for l, or nil if l has
// no grammar wired. Exposed for packages that need to compile their own
// queries against a language (e.g. the sibling resolver).
func Language(l langtag.Lang) *sitter.Language {
	return languageFor(l)
}

// languageFor returns the cached tree-sitter Language for l, or nil if l
// has no grammar wired.
func languageFor(l langtag.Lang) *sitter.Language {
	if cached, ok := languageCache.Load(l); ok {
		return cached.(*sitter.Language)
	}

	fn, ok := grammarFuncs[l]
	if !ok {
		return nil
	}

	lang := sitter.NewLanguage(fn())
	languageCache.Store(l, lang)

	return lang
}

// poolFor returns the parser pool for l, creating it on first use. Each
// pooled parser has SetLanguage called once at construction, so checkout
// and return never touch the language again.
func poolFor(l langtag.Lang, lang *sitter.Language) *sync.Pool {
	if cached, ok := parserPools.Load(l); ok {
		return cached.(*sync.Pool)
	}

	pool := &sync.Pool{
		New: func() any {
			p := sitter.NewParser()
			p.SetLanguage(lang)

			return p
		},
	}

	actual, _ := parserPools.LoadOrStore(l, pool)

	return actual.(*sync.Pool)
}

// checkoutParser returns a pooled parser for l, recovering from the forest
// registry's panic-on-unknown-grammar behavior by reporting ok=false.
func checkoutParser(l langtag.Lang) (p *sitter.Parser, put func(), ok bool) {
	lang := languageFor(l)
	if lang == nil {
		return nil, nil, false
	}

	pool := poolFor(l, lang)

	parser, _ := pool.Get().(*sitter.Parser)
	if parser == nil {
		return nil, nil, false
	}

	return parser, func() { pool.Put(parser) }, true
}
