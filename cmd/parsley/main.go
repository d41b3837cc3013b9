package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/parsleyg/parsley"
)

// ANSI color codes for terminal output
const (
	colorReset = "\033[0m"
	colorRed   = "\033[1;31m"
)

type args struct {
	grammarPath *string
	grammarText *bool
	showConfig  *bool

	inputPath *string
	startRule *string
	tokens    *bool

	keepEmpty *bool
	maxDepth  *int
	trace     *bool
	strict    *bool

	logLevel *string
}

func readArgs() *args {
	a := &args{
		grammarPath: flag.String("grammar", "", "Path to the grammar file"),

		// Debugging Options
		grammarText: flag.Bool("grammar-text", false, "Output the grammar as it was loaded"),
		showConfig:  flag.Bool("show-config", false, "Output the configuration in use"),

		// Input Options
		inputPath: flag.String("input", "", "Path to the input file; reads lines from stdin when empty"),
		startRule: flag.String("start", "", "Rule to start parsing from; defaults to the first definition"),
		tokens:    flag.Bool("tokens", false, "Split the input on whitespace and match whole tokens"),

		// Matcher Options
		keepEmpty: flag.Bool("keep-empty", false, "Keep zero-width nodes in the parse tree"),
		maxDepth:  flag.Int("max-depth", 10000, "Max number of nested rule invocations"),
		trace:     flag.Bool("trace", false, "Log every rule invocation"),
		strict:    flag.Bool("strict", false, "Refuse grammars with validation warnings"),

		logLevel: flag.String("log-level", "warn", "Log level: trace, debug, info, warn or error"),
	}
	flag.Parse()
	return a
}

func main() {
	a := readArgs()

	if *a.grammarPath == "" {
		fatal("Grammar not informed")
	}

	level := hclog.LevelFromString(*a.logLevel)
	if *a.trace {
		level = hclog.Trace
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "parsley",
		Level:  level,
		Output: os.Stderr,
		Color:  hclog.AutoColor,
	})
	hclog.SetDefault(logger)

	cfg := parsley.NewConfig()
	cfg.SetString("grammar.start", *a.startRule)
	cfg.SetBool("grammar.warnings_as_errors", *a.strict)
	cfg.SetBool("matcher.keep_empty", *a.keepEmpty)
	cfg.SetInt("matcher.max_depth", *a.maxDepth)
	cfg.SetBool("matcher.trace", *a.trace)

	if *a.showConfig {
		cfg.Debug(os.Stdout)
	}

	grammar, err := parsley.GrammarFromFile(*a.grammarPath, cfg)
	if err != nil {
		fatal("%s", err.Error())
	}
	logger.Debug("grammar loaded", "path", *a.grammarPath, "rules", len(grammar.Rules()), "start", grammar.Start())

	if *a.grammarText {
		fmt.Print(grammar.Text())
		return
	}

	matcher, err := parsley.NewMatcher(grammar, cfg)
	if err != nil {
		fatal("Invalid grammar: %s", err.Error())
	}
	matcher.SetLogger(logger)

	// If there's no input file, it will open a lil REPL shell
	if *a.inputPath == "" {
		repl(matcher, *a.tokens)
		return
	}

	text, err := os.ReadFile(*a.inputPath)
	if err != nil {
		fatal("Can't open input file: %s", err.Error())
	}
	if !parse(os.Stdout, matcher, newInput(string(text), *a.tokens)) {
		os.Exit(1)
	}
}

func repl(matcher *parsley.Matcher, tokens bool) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, _ := reader.ReadString('\n')
		if text == "" {
			fmt.Println("")
			break
		}
		text = strings.TrimRight(text, "\r\n")
		if text == "" {
			continue
		}
		parse(os.Stdout, matcher, newInput(text, tokens))
	}
}

// parse prints either the parse tree or the diagnostic of matching
// `input`, and returns true on success
func parse(w io.Writer, matcher *parsley.Matcher, input parsley.Input) bool {
	tree, err := matcher.Parse(input)
	if err != nil {
		fmt.Fprintf(w, "%sERROR:%s %s\n", colorRed, colorReset, err.Error())
		return false
	}
	fmt.Fprintln(w, tree.Pretty(input))
	return true
}

func newInput(text string, tokens bool) parsley.Input {
	if tokens {
		return parsley.NewTokens(strings.Fields(text))
	}
	return parsley.NewText(text)
}

// fatal prints an error message and exits with code 1.
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%serror:%s ", colorRed, colorReset)
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintf(os.Stderr, "\n")
	os.Exit(1)
}
