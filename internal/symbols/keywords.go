package symbols

// Keywords lists the language keywords, in the order completion offers them.
var Keywords = []string{
	"var", "input", "output", "fun", "schema", "type",
	"component", "resource", "for", "in", "if", "else",
	"return", "import", "from", "true", "false", "null",
}

var keywordSet = func() map[string]bool {
	m := make(map[string]bool, len(Keywords))
	for _, k := range Keywords {
		m[k] = true
	}
	return m
}()

// IsKeyword reports whether name is a reserved word rather than a reference.
func IsKeyword(name string) bool { return keywordSet[name] }

// BuiltinTypeNames lists the base types, for completion.
var BuiltinTypeNames = []string{"any", "boolean", "number", "object", "string", "void"}
