package parsley

import (
	"os"

	"github.com/pkg/errors"
)

// GrammarFromBytes loads a grammar written in the text syntax.  The
// start rule is the first definition, unless `grammar.start` is set
// in `cfg`.
func GrammarFromBytes(grammar []byte, cfg *Config) (*Grammar, error) {
	g, err := NewGrammarParser(grammar).Parse()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return g, nil
	}
	if start := cfg.GetString("grammar.start"); start != "" && start != g.start {
		return NewGrammar(start, g.rules...)
	}
	return g, nil
}

// GrammarFromFile reads the grammar at `path` and loads it with
// GrammarFromBytes
func GrammarFromFile(path string, cfg *Config) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "can't read grammar")
	}
	g, err := GrammarFromBytes(data, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "can't load grammar %s", path)
	}
	return g, nil
}

// Parse matches the whole input against the start rule of `g` using
// the default configuration
func Parse(g *Grammar, input Input) (*Node, error) {
	m, err := NewMatcher(g, nil)
	if err != nil {
		return nil, err
	}
	return m.Parse(input)
}
