package scanner

import (
	"strings"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/pkg/ast"
)

var languageByExt = map[string]ast.Language{
	".py":   ast.LanguagePython,
	".pyw":  ast.LanguagePython,
	".pyi":  ast.LanguagePython,
	".java": ast.LanguageJava,
}

// DetectLanguage maps a file extension to an analyzable language.
// The second result is false for extensions the pipeline cannot parse.
func DetectLanguage(ext string) (ast.Language, bool) {
	lang, ok := languageByExt[strings.ToLower(ext)]
	return lang, ok
}
