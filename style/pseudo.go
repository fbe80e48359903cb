package style

type pseudoEntry struct {
	suffix  string // CSS name without colons
	element bool   // pseudo-element, rendered with a double colon
	param   bool   // requires KeyParam in the nested node
}

// pseudoTable is the closed set of recognized pseudo keys. Names not listed
// here fall through to plain property keys, never to an error.
var pseudoTable = map[string]pseudoEntry{
	"hover":        {suffix: "hover"},
	"focus":        {suffix: "focus"},
	"focusWithin":  {suffix: "focus-within"},
	"focusVisible": {suffix: "focus-visible"},
	"active":       {suffix: "active"},
	"visited":      {suffix: "visited"},
	"link":         {suffix: "link"},
	"disabled":     {suffix: "disabled"},
	"enabled":      {suffix: "enabled"},
	"checked":      {suffix: "checked"},
	"empty":        {suffix: "empty"},
	"firstChild":   {suffix: "first-child"},
	"lastChild":    {suffix: "last-child"},
	"onlyChild":    {suffix: "only-child"},
	"firstOfType":  {suffix: "first-of-type"},
	"lastOfType":   {suffix: "last-of-type"},
	"nthChild":     {suffix: "nth-child", param: true},
	"nthOfType":    {suffix: "nth-of-type", param: true},
	"nthLastChild": {suffix: "nth-last-child", param: true},
	"lang":         {suffix: "lang", param: true},
	"before":       {suffix: "before", element: true},
	"after":        {suffix: "after", element: true},
	"placeholder":  {suffix: "placeholder", element: true},
	"selection":    {suffix: "selection", element: true},
	"firstLine":    {suffix: "first-line", element: true},
	"firstLetter":  {suffix: "first-letter", element: true},
}

// pseudoKeys maps CSS pseudo names back to tree keys, for folding parsed
// stylesheets into style trees.
var pseudoKeys = func() map[string]string {
	m := make(map[string]string, len(pseudoTable))
	for key, e := range pseudoTable {
		m[e.suffix] = key
	}
	return m
}()

// IsPseudo reports whether key is a recognized pseudo key.
func IsPseudo(key string) bool {
	_, ok := pseudoTable[key]
	return ok
}

// PseudoSuffix returns the full selector suffix for a pseudo key, colons
// included but without any functional argument.
func PseudoSuffix(key string) (string, bool) {
	e, ok := pseudoTable[key]
	if !ok {
		return "", false
	}
	if e.element {
		return "::" + e.suffix, true
	}
	return ":" + e.suffix, true
}

// PseudoKey returns the tree key for a CSS pseudo name (no colons), the
// reverse of PseudoSuffix.
func PseudoKey(cssName string) (string, bool) {
	key, ok := pseudoKeys[cssName]
	return key, ok
}
