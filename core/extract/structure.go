package extract

import (
	"path"
	"sort"
	"strings"

	"github.com/huangsam/repolens/schema"
)

// UnknownLanguage is reported for extensions without a known language.
const UnknownLanguage = "unknown"

// languageByExtension maps lower-cased extensions to language names.
var languageByExtension = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".java":  "java",
	".cpp":   "cpp",
	".c":     "c",
	".cs":    "csharp",
	".go":    "go",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".rs":    "rust",
	".scala": "scala",
	".r":     "r",
	".sql":   "sql",
	".html":  "html",
	".css":   "css",
	".jsx":   "javascript",
	".tsx":   "typescript",
	".vue":   "vue",
	".dart":  "dart",
}

// packageManagers maps root-level manifest names to the tool that owns them.
var packageManagers = map[string]string{
	"requirements.txt": "pip",
	"package.json":     "npm",
	"pom.xml":          "maven",
	"build.gradle":     "gradle",
	"Gemfile":          "bundler",
	"go.mod":           "go",
	"Cargo.toml":       "cargo",
	"composer.json":    "composer",
}

// DetectLanguage returns the language for a file path based on its extension.
func DetectLanguage(filePath string) string {
	if lang, ok := languageByExtension[strings.ToLower(path.Ext(filePath))]; ok {
		return lang
	}
	return UnknownLanguage
}

// SummarizeStructure computes the structure summary of a file tree.
// Maps and slices are never nil.
func SummarizeStructure(entries []schema.FileEntry) schema.FileStructure {
	s := schema.FileStructure{
		ByLanguage:      make(map[string]int),
		ByExtension:     make(map[string]int),
		Directories:     make(map[string]int),
		PackageManagers: []string{},
	}

	managers := make(map[string]struct{})
	for _, e := range entries {
		s.TotalFiles++
		s.TotalBytes += e.Size
		s.ByExtension[e.Extension]++
		s.ByLanguage[DetectLanguage(e.Path)]++

		top, _, nested := strings.Cut(e.Path, "/")
		if nested {
			s.Directories[top]++
		} else if m, ok := packageManagers[e.Path]; ok {
			managers[m] = struct{}{}
		}
	}

	for m := range managers {
		s.PackageManagers = append(s.PackageManagers, m)
	}
	sort.Strings(s.PackageManagers)
	return s
}
