// Package parse builds concrete and abstract trees from source files with
// tree-sitter grammars.
package parse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/editvec/pkg/cst"
	"github.com/Sumatoshi-tech/editvec/pkg/safeconv"
	"github.com/Sumatoshi-tech/editvec/pkg/syntax"
)

// Sentinel errors for parser operations.
var (
	ErrUnsupported = errors.New("unsupported language")
	ErrNoRootNode  = errors.New("no root node found")
	errPoolType    = errors.New("unexpected parser pool type")
)

// File is one parsed source file in both tree shapes.
type File struct {
	Language *Language
	Tree     *cst.Tree
	Syntax   []*syntax.Node
}

// Parser parses files of any registered language. It is safe for
// concurrent use; tree-sitter parsers are pooled per language.
type Parser struct {
	registry *Registry
	pools    map[string]*sync.Pool
	// extraLiteral are literal kinds added to every language.
	extraLiteral []string
	mu           sync.Mutex
}

// NewParser returns a parser over reg. A nil reg uses the built-in registry.
func NewParser(reg *Registry, extraLiteral ...string) *Parser {
	if reg == nil {
		reg = NewRegistry()
	}

	return &Parser{registry: reg, pools: make(map[string]*sync.Pool), extraLiteral: extraLiteral}
}

// Registry returns the language registry.
func (p *Parser) Registry() *Registry {
	return p.registry
}

// Literal returns the literal-kind predicate used for lang.
func (p *Parser) Literal(lang *Language) cst.KindFunc {
	return lang.Literal(p.extraLiteral...)
}

func (p *Parser) pool(lang *Language) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, ok := p.pools[lang.Name]
	if !ok {
		tsLang := lang.sitterLanguage()
		pool = &sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(tsLang)

				return tsParser
			},
		}
		p.pools[lang.Name] = pool
	}

	return pool
}

// ParsePath parses content using the language detected for path.
func (p *Parser) ParsePath(ctx context.Context, path string, content []byte) (*File, error) {
	lang, ok := p.registry.Detect(path, content)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	return p.Parse(ctx, lang, content)
}

// Parse parses content as lang.
func (p *Parser) Parse(ctx context.Context, lang *Language, content []byte) (*File, error) {
	pool := p.pool(lang)

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	tsTree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", lang.Name, err)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root.IsNull() {
		return nil, ErrNoRootNode
	}

	tree := cst.NewTree(content)
	copyNode(tree, cst.NoParent, root)

	return &File{
		Language: lang,
		Tree:     tree,
		Syntax:   syntax.NewBuilder(p.Literal(lang)).Build(tree),
	}, nil
}

// copyNode copies a tree-sitter subtree into the arena, named and
// anonymous children alike.
func copyNode(tree *cst.Tree, parent int, tsNode sitter.Node) {
	start, end := tsNode.StartPoint(), tsNode.EndPoint()

	idx := tree.AddWithPoints(parent, cst.Node{
		Kind:      tsNode.Type(),
		StartByte: safeconv.MustInt(tsNode.StartByte()),
		EndByte:   safeconv.MustInt(tsNode.EndByte()),
		Start:     cst.Point{Row: safeconv.MustInt(start.Row), Column: safeconv.MustInt(start.Column)},
		End:       cst.Point{Row: safeconv.MustInt(end.Row), Column: safeconv.MustInt(end.Column)},
		Named:     tsNode.IsNamed(),
	})

	for i := range tsNode.ChildCount() {
		child := tsNode.Child(i)
		if child.IsNull() {
			continue
		}

		copyNode(tree, idx, child)
	}
}
