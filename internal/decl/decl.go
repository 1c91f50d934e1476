// Package decl holds the compact, in-Go declaration-kind tables the outline
// engine and symbol index use to classify a tree-sitter grammar's node
// types into tilth's closed set of declaration kinds. It replaces the
// TOML/YAML mapping-rule layer a full AST-normalization tool would carry:
// tilth only needs "is this node a declaration, and of what kind", not a
// cross-language canonical tree.
package decl

import "github.com/pityka/tilth/internal/langtag"

// Kind is tilth's closed set of declaration kinds, shared by the outline
// engine (for rendering) and the symbol index / search pipeline (for
// definition weight, per spec's def_weight table).
type Kind int

const (
	KindOther Kind = iota
	KindFunction
	KindMethod
	KindClass
	KindStruct
	KindInterface // trait / interface / protocol
	KindEnum
	KindTypeAlias
	KindConst
	KindModule
	KindImpl
	KindVariable
	KindReexport
)

// Weight returns the definition weight used by the search ranking formula.
func (k Kind) Weight() int {
	switch k {
	case KindFunction, KindMethod, KindClass, KindStruct, KindInterface, KindEnum, KindTypeAlias:
		return 100
	case KindImpl:
		return 90
	case KindConst:
		return 80
	case KindModule:
		return 70
	case KindVariable:
		return 40
	case KindReexport:
		return 30
	default:
		return 50
	}
}

// Label renders a short, human-readable tag used in outline signatures.
func (k Kind) Label() string {
	switch k {
	case KindFunction:
		return "fn"
	case KindMethod:
		return "method"
	case KindClass:
		return "class"
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindTypeAlias:
		return "type"
	case KindConst:
		return "const"
	case KindModule:
		return "mod"
	case KindImpl:
		return "impl"
	case KindVariable:
		return "var"
	case KindReexport:
		return "export"
	default:
		return ""
	}
}

// Rule describes how to classify one tree-sitter node type: its kind, the
// field holding its name (falling back to a scan for the first identifier
// child when empty), and whether it can hold nested declarations counted
// against the outline engine's depth cap.
type Rule struct {
	Kind        Kind
	NameField   string
	Nestable    bool
	NameFields2 string // Rust impl_item: second name field (the trait), present only for `impl Trait for Type`
}

// Table maps a grammar's node type names to their declaration rule.
type Table map[string]Rule

// ForLang returns the declaration table for l, or nil if l has no table
// (the caller should fall back to a header-only view).
func ForLang(l langtag.Lang) Table {
	switch l {
	case langtag.Rust:
		return rustTable
	case langtag.Go:
		return goTable
	case langtag.Python:
		return pythonTable
	case langtag.TypeScript, langtag.TSX, langtag.JavaScript:
		return tsTable
	case langtag.Java:
		return javaTable
	case langtag.C:
		return cTable
	case langtag.Cpp:
		return cppTable
	case langtag.Ruby:
		return rubyTable
	case langtag.Swift:
		return swiftTable
	case langtag.Kotlin:
		return kotlinTable
	case langtag.CSharp:
		return csharpTable
	case langtag.Dockerfile:
		return dockerfileTable
	case langtag.Makefile:
		return makefileTable
	default:
		return nil
	}
}

var rustTable = Table{
	"function_item":        {Kind: KindFunction, NameField: "name"},
	"struct_item":          {Kind: KindStruct, NameField: "name", Nestable: true},
	"enum_item":            {Kind: KindEnum, NameField: "name", Nestable: true},
	"trait_item":           {Kind: KindInterface, NameField: "name", Nestable: true},
	"impl_item":            {Kind: KindImpl, NameField: "type", NameFields2: "trait", Nestable: true},
	"mod_item":             {Kind: KindModule, NameField: "name", Nestable: true},
	"const_item":           {Kind: KindConst, NameField: "name"},
	"static_item":          {Kind: KindConst, NameField: "name"},
	"type_item":            {Kind: KindTypeAlias, NameField: "name"},
	"use_declaration":      {Kind: KindReexport, NameField: "argument"},
}

var goTable = Table{
	"function_declaration": {Kind: KindFunction, NameField: "name"},
	"method_declaration":   {Kind: KindMethod, NameField: "name"},
	"type_spec":            {Kind: KindStruct, NameField: "name", Nestable: true},
	"const_declaration":    {Kind: KindConst, NameField: ""},
	"var_declaration":      {Kind: KindVariable, NameField: ""},
	"import_declaration":   {Kind: KindReexport, NameField: ""},
}

var pythonTable = Table{
	"function_definition": {Kind: KindFunction, NameField: "name"},
	"class_definition":    {Kind: KindClass, NameField: "name", Nestable: true},
	"decorated_definition": {Kind: KindFunction, NameField: ""},
	"import_statement":      {Kind: KindReexport, NameField: ""},
	"import_from_statement": {Kind: KindReexport, NameField: ""},
}

// tsTable covers JavaScript, TypeScript, and TSX: the three grammars share
// node type names for everything the outline engine cares about.
var tsTable = Table{
	"function_declaration":    {Kind: KindFunction, NameField: "name"},
	"class_declaration":       {Kind: KindClass, NameField: "name", Nestable: true},
	"method_definition":       {Kind: KindMethod, NameField: "name"},
	"interface_declaration":   {Kind: KindInterface, NameField: "name", Nestable: true},
	"enum_declaration":        {Kind: KindEnum, NameField: "name", Nestable: true},
	"type_alias_declaration":  {Kind: KindTypeAlias, NameField: "name"},
	"lexical_declaration":     {Kind: KindVariable, NameField: ""},
	"import_statement":        {Kind: KindReexport, NameField: ""},
	"export_statement":        {Kind: KindReexport, NameField: ""},
}

var javaTable = Table{
	"class_declaration":       {Kind: KindClass, NameField: "name", Nestable: true},
	"interface_declaration":   {Kind: KindInterface, NameField: "name", Nestable: true},
	"enum_declaration":        {Kind: KindEnum, NameField: "name", Nestable: true},
	"method_declaration":      {Kind: KindMethod, NameField: "name"},
	"constructor_declaration": {Kind: KindMethod, NameField: "name"},
	"field_declaration":       {Kind: KindVariable, NameField: ""},
	"import_declaration":      {Kind: KindReexport, NameField: ""},
}

var cTable = Table{
	"function_definition": {Kind: KindFunction, NameField: "declarator"},
	"struct_specifier":    {Kind: KindStruct, NameField: "name", Nestable: true},
	"enum_specifier":      {Kind: KindEnum, NameField: "name", Nestable: true},
	"type_definition":     {Kind: KindTypeAlias, NameField: "declarator"},
	"preproc_include":     {Kind: KindReexport, NameField: "path"},
}

var cppTable = Table{
	"function_definition":  {Kind: KindFunction, NameField: "declarator"},
	"struct_specifier":     {Kind: KindStruct, NameField: "name", Nestable: true},
	"class_specifier":      {Kind: KindClass, NameField: "name", Nestable: true},
	"enum_specifier":       {Kind: KindEnum, NameField: "name", Nestable: true},
	"namespace_definition": {Kind: KindModule, NameField: "name", Nestable: true},
	"type_definition":      {Kind: KindTypeAlias, NameField: "declarator"},
	"preproc_include":      {Kind: KindReexport, NameField: "path"},
}

var rubyTable = Table{
	"method":            {Kind: KindMethod, NameField: "name"},
	"singleton_method":  {Kind: KindMethod, NameField: "name"},
	"class":             {Kind: KindClass, NameField: "name", Nestable: true},
	"module":            {Kind: KindModule, NameField: "name", Nestable: true},
	"assignment":        {Kind: KindVariable, NameField: ""},
}

var swiftTable = Table{
	"function_declaration":     {Kind: KindFunction, NameField: "name"},
	"class_declaration":        {Kind: KindClass, NameField: "name", Nestable: true},
	"protocol_declaration":     {Kind: KindInterface, NameField: "name", Nestable: true},
	"enum_declaration":         {Kind: KindEnum, NameField: "name", Nestable: true},
	"extension_declaration":    {Kind: KindImpl, NameField: "name", Nestable: true},
	"typealias_declaration":    {Kind: KindTypeAlias, NameField: "name"},
	"import_declaration":       {Kind: KindReexport, NameField: ""},
}

var kotlinTable = Table{
	"function_declaration":  {Kind: KindFunction, NameField: "name"},
	"class_declaration":     {Kind: KindClass, NameField: "name", Nestable: true},
	"object_declaration":    {Kind: KindClass, NameField: "name", Nestable: true},
	"property_declaration":  {Kind: KindVariable, NameField: ""},
	"import_header":         {Kind: KindReexport, NameField: ""},
}

var csharpTable = Table{
	"class_declaration":       {Kind: KindClass, NameField: "name", Nestable: true},
	"interface_declaration":   {Kind: KindInterface, NameField: "name", Nestable: true},
	"struct_declaration":      {Kind: KindStruct, NameField: "name", Nestable: true},
	"enum_declaration":        {Kind: KindEnum, NameField: "name", Nestable: true},
	"method_declaration":      {Kind: KindMethod, NameField: "name"},
	"constructor_declaration": {Kind: KindMethod, NameField: "name"},
	"namespace_declaration":   {Kind: KindModule, NameField: "name", Nestable: true},
	"using_directive":         {Kind: KindReexport, NameField: ""},
}

var dockerfileTable = Table{
	"from_instruction": {Kind: KindModule, NameField: ""},
}

var makefileTable = Table{
	"rule": {Kind: KindFunction, NameField: ""},
}
