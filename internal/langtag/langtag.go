// Package langtag classifies a file path into the closed language
// enumeration tilth's outline engine and search pipeline dispatch on.
package langtag

import (
	"path/filepath"
	"strings"

	enry "github.com/src-d/enry/v2"
)

// Lang is the closed set of recognized outline/search languages, plus the
// non-code tags used by the read pipeline.
type Lang int

// Recognized language tags.
const (
	Unknown Lang = iota
	Rust
	TypeScript
	TSX
	JavaScript
	Python
	Go
	Java
	C
	Cpp
	Ruby
	Swift
	Kotlin
	CSharp
	Dockerfile
	Makefile

	Markdown
	StructuredData
	Tabular
	Log
	Binary
	Generated
	Other
)

// extensionTable maps a lowercased file extension (with leading dot) to its
// language tag. This is the spec's "fixed extension table"; enry is consulted
// only for files this table (and namedFiles) does not recognize.
var extensionTable = map[string]Lang{
	".rs":         Rust,
	".ts":         TypeScript,
	".tsx":        TSX,
	".js":         JavaScript,
	".jsx":        JavaScript,
	".mjs":        JavaScript,
	".cjs":        JavaScript,
	".py":         Python,
	".pyi":        Python,
	".go":         Go,
	".java":       Java,
	".c":          C,
	".h":          C,
	".cc":         Cpp,
	".cpp":        Cpp,
	".cxx":        Cpp,
	".hpp":        Cpp,
	".hh":         Cpp,
	".rb":         Ruby,
	".swift":      Swift,
	".kt":         Kotlin,
	".kts":        Kotlin,
	".cs":         CSharp,
	".md":         Markdown,
	".markdown":   Markdown,
	".json":       StructuredData,
	".yaml":       StructuredData,
	".yml":        StructuredData,
	".toml":       StructuredData,
	".xml":        StructuredData,
	".ini":        StructuredData,
	".env":        StructuredData,
	".csv":        Tabular,
	".tsv":        Tabular,
	".log":        Log,
}

// namedFiles maps an exact lowercased basename to a language tag, for files
// that carry no useful extension.
var namedFiles = map[string]Lang{
	"dockerfile": Dockerfile,
	"makefile":   Makefile,
	"gnumakefile": Makefile,
}

// CodeLanguages lists the Lang values that the outline engine parses with a
// tree-sitter grammar, in no particular order.
var CodeLanguages = []Lang{
	Rust, TypeScript, TSX, JavaScript, Python, Go, Java, C, Cpp, Ruby, Swift,
	Kotlin, CSharp, Dockerfile, Makefile,
}

// IsCode reports whether l is one of the grammar-backed source languages.
func (l Lang) IsCode() bool {
	switch l {
	case Rust, TypeScript, TSX, JavaScript, Python, Go, Java, C, Cpp, Ruby,
		Swift, Kotlin, CSharp, Dockerfile, Makefile:
		return true
	default:
		return false
	}
}

// String renders a human-readable name, used in diagnostics and headers.
func (l Lang) String() string {
	switch l {
	case Rust:
		return "rust"
	case TypeScript:
		return "typescript"
	case TSX:
		return "tsx"
	case JavaScript:
		return "javascript"
	case Python:
		return "python"
	case Go:
		return "go"
	case Java:
		return "java"
	case C:
		return "c"
	case Cpp:
		return "cpp"
	case Ruby:
		return "ruby"
	case Swift:
		return "swift"
	case Kotlin:
		return "kotlin"
	case CSharp:
		return "csharp"
	case Dockerfile:
		return "dockerfile"
	case Makefile:
		return "makefile"
	case Markdown:
		return "markdown"
	case StructuredData:
		return "structured"
	case Tabular:
		return "tabular"
	case Log:
		return "log"
	case Binary:
		return "binary"
	case Generated:
		return "generated"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// Detect classifies path by extension and basename, falling back to enry's
// content-based classifier when the fixed tables don't recognize it. content
// may be nil when only the path is available (e.g. directory listings).
func Detect(path string, content []byte) Lang {
	base := strings.ToLower(filepath.Base(path))

	if lang, ok := namedFiles[base]; ok {
		return lang
	}

	ext := strings.ToLower(filepath.Ext(base))
	if lang, ok := extensionTable[ext]; ok {
		return lang
	}

	if content == nil {
		return Other
	}

	if enry.IsBinary(content) {
		return Binary
	}

	if enry.IsGenerated(path, content) {
		return Generated
	}

	if enry.IsVendor(path) {
		return Other
	}

	guess := enry.GetLanguage(filepath.Base(path), content)

	return fromEnryName(guess)
}

// fromEnryName maps an enry language name onto our closed enumeration.
// Unrecognized names degrade to Other rather than Unknown, since enry did
// produce a guess, it's just not one of our supported grammars.
func fromEnryName(name string) Lang {
	switch name {
	case "Rust":
		return Rust
	case "TypeScript":
		return TypeScript
	case "TSX":
		return TSX
	case "JavaScript":
		return JavaScript
	case "Python":
		return Python
	case "Go":
		return Go
	case "Java":
		return Java
	case "C":
		return C
	case "C++":
		return Cpp
	case "Ruby":
		return Ruby
	case "Swift":
		return Swift
	case "Kotlin":
		return Kotlin
	case "C#":
		return CSharp
	case "Dockerfile":
		return Dockerfile
	case "Makefile":
		return Makefile
	case "Markdown":
		return Markdown
	case "JSON", "YAML", "TOML", "INI":
		return StructuredData
	default:
		return Other
	}
}

// EstimateTokens approximates a token count from a byte length, per the
// spec's fixed token_estimate(byte_len) == byte_len/4 rule.
func EstimateTokens(byteLen int) int {
	return byteLen / 4
}
