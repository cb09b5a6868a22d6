package syntax

import (
	"sync"

	"github.com/bethropolis/blockpatch/internal/logger"
	"github.com/bethropolis/blockpatch/internal/syntax/lang"

	"github.com/smacker/go-tree-sitter/css"
	gosrc "github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	jssrc "github.com/smacker/go-tree-sitter/javascript"
	pythonsrc "github.com/smacker/go-tree-sitter/python"
	rustsrc "github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var registerOnce sync.Once

// RegisterLanguages adds the built-in grammars. Safe to call repeatedly.
func RegisterLanguages() {
	registerOnce.Do(func() {
		// The javascript grammar covers JSX.
		lang.Register(&lang.Language{
			Name:           "JavaScript",
			TreeSitterLang: jssrc.GetLanguage(),
			Extensions:     []string{".js", ".jsx", ".mjs", ".cjs"},
		})
		lang.Register(&lang.Language{
			Name:           "TypeScript",
			TreeSitterLang: typescript.GetLanguage(),
			Extensions:     []string{".ts", ".mts", ".cts"},
		})
		lang.Register(&lang.Language{
			Name:           "TSX",
			TreeSitterLang: tsx.GetLanguage(),
			Extensions:     []string{".tsx"},
		})
		lang.Register(&lang.Language{
			Name:           "CSS",
			TreeSitterLang: css.GetLanguage(),
			Extensions:     []string{".css"},
		})
		lang.Register(&lang.Language{
			Name:           "HTML",
			TreeSitterLang: html.GetLanguage(),
			Extensions:     []string{".html", ".htm"},
		})
		lang.Register(&lang.Language{
			Name:           "Python",
			TreeSitterLang: pythonsrc.GetLanguage(),
			Extensions:     []string{".py", ".pyw"},
		})
		lang.Register(&lang.Language{
			Name:           "Go",
			TreeSitterLang: gosrc.GetLanguage(),
			Extensions:     []string{".go"},
		})
		lang.Register(&lang.Language{
			Name:           "Rust",
			TreeSitterLang: rustsrc.GetLanguage(),
			Extensions:     []string{".rs"},
		})
		logger.DebugTagf("syntax", "Registration complete. Registered %d languages.", len(lang.GetAll()))
	})
}
