package analyzer

import (
	"regexp"
	"strings"
)

type Language string

const (
	Java       Language = "java"
	C          Language = "c"
	Go         Language = "go"
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Ruby       Language = "ruby"
	CSharp     Language = "csharp"
	Cpp        Language = "cpp"
	PHP        Language = "php"
	Python     Language = "python"
)

var languageOrder = []Language{Java, C, Go, TypeScript, JavaScript, Ruby, CSharp, Cpp, PHP, Python}

var extensions = map[Language][]string{
	Java:       {".java"},
	C:          {".c"},
	Go:         {".go"},
	TypeScript: {".ts"},
	JavaScript: {".js"},
	Ruby:       {".rb"},
	CSharp:     {".cs"},
	Cpp:        {".cpp", ".hpp", ".cc", ".cxx"},
	PHP:        {".php"},
	Python:     {".py"},
}

// Detect returns the language of path by extension.
func Detect(path string) (Language, bool) {
	for _, lang := range languageOrder {
		for _, ext := range extensions[lang] {
			if strings.HasSuffix(path, ext) {
				return lang, true
			}
		}
	}
	return "", false
}

// IsSourceFile reports whether path is in a language the analyzer scans.
func IsSourceFile(path string) bool {
	_, ok := Detect(path)
	return ok
}

// pattern captures the first non-empty group listed in groups. Group 0 is the
// whole match.
type pattern struct {
	re     *regexp.Regexp
	groups []int
	trim   bool
}

func p(expr string, groups ...int) pattern {
	if len(groups) == 0 {
		groups = []int{1}
	}
	return pattern{re: regexp.MustCompile(expr), groups: groups}
}

func block(expr string, groups ...int) pattern {
	pt := p(expr, groups...)
	pt.trim = true
	return pt
}

func (pt pattern) findAll(code string) []string {
	var out []string
	for _, m := range pt.re.FindAllStringSubmatch(code, -1) {
		for _, g := range pt.groups {
			if g < len(m) && m[g] != "" {
				s := m[g]
				if pt.trim {
					s = strings.TrimSpace(s)
				}
				out = append(out, s)
				break
			}
		}
	}
	return out
}

type scanner struct {
	imports      []pattern
	importBlocks *regexp.Regexp // grouped imports; every quoted path inside group 1 counts
	functions    []pattern
	comments     []pattern
}

var quoted = regexp.MustCompile(`"([^"]+)"`)

var (
	slashComments = []pattern{p(`(?m)//(.*)`), block(`(?s)/\*.*?\*/`, 0)}
	hashComment   = p(`(?m)#(.*)`)

	cFamily = scanner{
		imports:   []pattern{p(`#include\s+<(.*?)>`)},
		functions: []pattern{p(`\b\w+\s+(\w+)\s*\(.*?\)\s*\{`)},
		comments:  slashComments,
	}
	jsFamily = scanner{
		imports:   []pattern{p(`import\s+.*?from\s+['"](.*?)['"]`)},
		functions: []pattern{p(`function\s+(\w+)|(\w+)\s*=\s*\(?.*?\)?\s*=>`, 1, 2)},
		comments:  slashComments,
	}
)

var scanners = map[Language]scanner{
	Java: {
		imports:   []pattern{p(`import\s+([\w.]+);`)},
		functions: []pattern{p(`\s+(\w+)\s*\(.*\)\s*\{`)},
		comments:  slashComments,
	},
	C:          cFamily,
	Cpp:        cFamily,
	CSharp:     cFamily,
	JavaScript: jsFamily,
	TypeScript: jsFamily,
	Go: {
		imports:      []pattern{p(`import\s+(?:\w+\s+)?"(.*?)"`)},
		importBlocks: regexp.MustCompile(`(?s)import\s*\((.*?)\)`),
		functions:    []pattern{p(`func\s+(\w+)\s*\(`), p(`func\s+\([^)]*\)\s*(\w+)\s*\(`)},
		comments:     slashComments,
	},
	PHP: {
		imports:   []pattern{p(`require(_once)?\s*\(?['"](.*?)['"]\)?;`, 2)},
		functions: []pattern{p(`function\s+(\w+)\s*\(`)},
		comments:  slashComments,
	},
	Ruby: {
		imports:   []pattern{p(`require\s+['"](.*?)['"]`)},
		functions: []pattern{p(`def\s+(\w+)`)},
		comments:  []pattern{hashComment, block(`(?s)=begin(.*?)=end`)},
	},
	Python: {
		imports: []pattern{
			p(`(?m)^\s*import\s+([\w.]+)`),
			p(`(?m)^\s*from\s+([\w.]+)\s+import\b`),
		},
		functions: []pattern{p(`(?m)^\s*def\s+(\w+)\s*\(`)},
		comments:  []pattern{hashComment, block(`(?s)""".*?"""|'''.*?'''`, 0)},
	},
}

func (s scanner) scan(code string) (imports, functions, comments []string) {
	for _, pt := range s.imports {
		imports = append(imports, pt.findAll(code)...)
	}
	if s.importBlocks != nil {
		for _, b := range s.importBlocks.FindAllStringSubmatch(code, -1) {
			for _, m := range quoted.FindAllStringSubmatch(b[1], -1) {
				imports = append(imports, m[1])
			}
		}
	}
	for _, pt := range s.functions {
		functions = append(functions, pt.findAll(code)...)
	}
	for _, pt := range s.comments {
		comments = append(comments, pt.findAll(code)...)
	}
	return imports, functions, comments
}
