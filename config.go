package parsley

import (
	"fmt"
	"io"
	"sort"
)

type Config map[string]*cfgVal

// NewConfig creates a new configuration object primed with all the
// default values expected by the validator and the matcher.
func NewConfig() *Config {
	m := make(Config)
	// keep zero-width nodes without children in the parse tree
	m.SetBool("matcher.keep_empty", false)
	// max number of nested rule invocations within a single match
	m.SetInt("matcher.max_depth", 10000)
	// log every rule invocation at the trace level
	m.SetBool("matcher.trace", false)
	// refuse grammars that only produced validation warnings
	m.SetBool("grammar.warnings_as_errors", false)
	// rule parsing starts from; empty means the first definition
	m.SetString("grammar.start", "")
	return &m
}

// Debug writes every setting and its value to `w`, sorted by key
func (c *Config) Debug(w io.Writer) {
	fmt.Fprintln(w, "Configuration")

	keys := make([]string, 0, len(*c))
	width := 0
	for k := range *c {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "%-*s : %s\n", width, k, (*c)[k].String())
	}
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
)

var cfgValTypeNames = [...]string{
	cfgValType_Undefined: "undefined",
	cfgValType_Bool:      "bool",
	cfgValType_Int:       "int",
	cfgValType_String:    "string",
}

func (vt cfgValType) String() string { return cfgValTypeNames[vt] }

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

// assignType panics when a setting changes type
func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("Can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("Can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (v *cfgVal) String() string {
	switch v.typ {
	case cfgValType_Bool:
		return fmt.Sprintf("%t (bool)", v.asBool)
	case cfgValType_Int:
		return fmt.Sprintf("%d (int)", v.asInt)
	case cfgValType_String:
		return fmt.Sprintf("%s (string)", v.asString)
	case cfgValType_Undefined:
		return "(undefined)"
	default:
		panic(fmt.Sprintf("unknown cfgVal type: %v", v.typ))
	}
}

func (c *Config) set(path string, vt cfgValType) *cfgVal {
	val, ok := (*c)[path]
	if !ok {
		val = &cfgVal{}
		(*c)[path] = val
	}
	val.assignType(vt)
	return val
}

func (c *Config) SetBool(path string, v bool)     { c.set(path, cfgValType_Bool).asBool = v }
func (c *Config) SetInt(path string, v int)       { c.set(path, cfgValType_Int).asInt = v }
func (c *Config) SetString(path string, v string) { c.set(path, cfgValType_String).asString = v }

func (c *Config) GetBool(path string) bool     { return c.get(path, cfgValType_Bool).asBool }
func (c *Config) GetInt(path string) int       { return c.get(path, cfgValType_Int).asInt }
func (c *Config) GetString(path string) string { return c.get(path, cfgValType_String).asString }

// get panics for unknown settings as well as for reads with the
// wrong type, both being programming errors
func (c *Config) get(path string, vt cfgValType) *cfgVal {
	val, ok := (*c)[path]
	if !ok {
		panic(fmt.Sprintf("%s setting `%s` does not exist", vt, path))
	}
	val.checkType(vt)
	return val
}
