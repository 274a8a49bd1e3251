package document

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Selector is a compiled CSS selector that keeps its source for logging.
type Selector struct {
	Source string
	m      cascadia.Matcher
}

// SelectorList is an ordered, prioritised set of selectors.
type SelectorList []Selector

// Compile parses a CSS selector group.
func Compile(source string) (Selector, error) {
	m, err := cascadia.ParseGroup(source)
	if err != nil {
		return Selector{}, fmt.Errorf("compile selector %q: %w", source, err)
	}
	return Selector{Source: source, m: m}, nil
}

// MustCompile is Compile for selectors known at build time.
func MustCompile(source string) Selector {
	s, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return s
}

// CompileList compiles every source in order.
func CompileList(sources []string) (SelectorList, error) {
	list := make(SelectorList, 0, len(sources))
	for _, src := range sources {
		s, err := Compile(src)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

func (s Selector) queryAll(n *html.Node) []*html.Node {
	return cascadia.QueryAll(n, s.m)
}

func (s Selector) String() string {
	return s.Source
}
