package parse

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"

	"github.com/alexaandru/go-sitter-forest/c"
	"github.com/alexaandru/go-sitter-forest/cpp"
	golang "github.com/alexaandru/go-sitter-forest/go"
	"github.com/alexaandru/go-sitter-forest/java"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/python"
	"github.com/alexaandru/go-sitter-forest/ruby"
	"github.com/alexaandru/go-sitter-forest/rust"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"

	"github.com/Sumatoshi-tech/editvec/pkg/cst"
)

// Language describes one supported grammar.
type Language struct {
	grammar func() unsafe.Pointer
	// Name is the grammar name.
	Name string
	// Extensions are the lower-case file extensions, with the dot.
	Extensions []string
	// StringKinds are literal kinds whose names do not contain "literal".
	StringKinds []string
}

// Literal returns the literal-kind predicate for the language, extended
// with extra kinds.
func (l *Language) Literal(extra ...string) cst.KindFunc {
	return cst.LiteralKinds(append(slices.Clone(l.StringKinds), extra...)...)
}

var languageCache sync.Map

// sitterLanguage returns the cached tree-sitter language.
func (l *Language) sitterLanguage() *sitter.Language {
	if cached, ok := languageCache.Load(l.Name); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	lang := sitter.NewLanguage(l.grammar())
	languageCache.Store(l.Name, lang)

	return lang
}

// builtinLanguages lists the grammars compiled into the binary.
func builtinLanguages() []*Language {
	return []*Language{
		{Name: "c", grammar: c.GetLanguage, Extensions: []string{".c", ".h"}},
		{Name: "cpp", grammar: cpp.GetLanguage, Extensions: []string{".cc", ".cpp", ".cxx", ".hpp", ".hh"}},
		{Name: "go", grammar: golang.GetLanguage, Extensions: []string{".go"}},
		{Name: "java", grammar: java.GetLanguage, Extensions: []string{".java"}},
		{
			Name: "javascript", grammar: javascript.GetLanguage,
			Extensions:  []string{".js", ".jsx", ".mjs", ".cjs"},
			StringKinds: []string{"string", "template_string"},
		},
		{Name: "python", grammar: python.GetLanguage, Extensions: []string{".py"}, StringKinds: []string{"string"}},
		{Name: "ruby", grammar: ruby.GetLanguage, Extensions: []string{".rb"}, StringKinds: []string{"string"}},
		{Name: "rust", grammar: rust.GetLanguage, Extensions: []string{".rs"}},
		{Name: "tsx", grammar: tsx.GetLanguage, Extensions: []string{".tsx"}, StringKinds: []string{"string", "template_string"}},
		{
			Name: "typescript", grammar: typescript.GetLanguage,
			Extensions:  []string{".ts", ".mts", ".cts"},
			StringKinds: []string{"string", "template_string"},
		},
	}
}

// Registry maps file names and grammar names to languages.
type Registry struct {
	byExt  map[string]*Language
	byName map[string]*Language
}

// NewRegistry returns a registry of the built-in languages.
func NewRegistry() *Registry {
	reg := &Registry{byExt: make(map[string]*Language), byName: make(map[string]*Language)}

	for _, lang := range builtinLanguages() {
		reg.byName[lang.Name] = lang

		for _, ext := range lang.Extensions {
			reg.byExt[ext] = lang
		}
	}

	return reg
}

// ForPath returns the language of a file by extension.
func (reg *Registry) ForPath(path string) (*Language, bool) {
	lang, ok := reg.byExt[strings.ToLower(filepath.Ext(path))]

	return lang, ok
}

// ByName returns the language with the given grammar name.
func (reg *Registry) ByName(name string) (*Language, bool) {
	lang, ok := reg.byName[strings.ToLower(name)]

	return lang, ok
}

// enryNames maps enry language names that differ from grammar names.
var enryNames = map[string]string{ //nolint:gochecknoglobals // fixed alias table
	"C++": "cpp",
}

// Detect returns the language of a file: by extension first, then by enry
// on the file name, then by enry on the content (shebang, heuristics).
// content may be nil.
func (reg *Registry) Detect(path string, content []byte) (*Language, bool) {
	if lang, ok := reg.ForPath(path); ok {
		return lang, true
	}

	base := filepath.Base(path)

	name := enry.GetLanguage(base, nil)
	if name == "" && len(content) > 0 {
		name = enry.GetLanguage(base, content)
	}

	if name == "" {
		return nil, false
	}

	if alias, ok := enryNames[name]; ok {
		name = alias
	}

	return reg.ByName(name)
}

// Languages returns all languages sorted by name.
func (reg *Registry) Languages() []*Language {
	out := make([]*Language, 0, len(reg.byName))
	for _, lang := range reg.byName {
		out = append(out, lang)
	}

	slices.SortFunc(out, func(a, b *Language) int { return strings.Compare(a.Name, b.Name) })

	return out
}
