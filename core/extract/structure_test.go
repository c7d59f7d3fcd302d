package extract

import (
	"testing"

	"github.com/huangsam/repolens/schema"
	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"main.go":          "go",
		"src/App.JSX":      "javascript",
		"lib/index.ts":     "typescript",
		"analysis.R":       "r",
		"Program.cs":       "csharp",
		"README.md":        UnknownLanguage,
		"Makefile":         UnknownLanguage,
		"web/style.css":    "css",
		"pkg/mod.rs":       "rust",
		"a/b/c/Widget.kt":  "kotlin",
		"views/page.html":  "html",
		"schema/init.sql":  "sql",
		"ui/Comp.vue":      "vue",
		"mobile/main.dart": "dart",
	}
	for p, expected := range tests {
		assert.Equal(t, expected, DetectLanguage(p), p)
	}
}

func TestSummarizeStructureEmpty(t *testing.T) {
	s := SummarizeStructure(nil)
	assert.Zero(t, s.TotalFiles)
	assert.Zero(t, s.TotalBytes)
	assert.NotNil(t, s.ByLanguage)
	assert.NotNil(t, s.ByExtension)
	assert.NotNil(t, s.Directories)
	assert.NotNil(t, s.PackageManagers)
	assert.Empty(t, s.PackageManagers)
}

func TestSummarizeStructurePackageManagers(t *testing.T) {
	s := SummarizeStructure([]schema.FileEntry{
		{Path: "package.json", Extension: ".json"},
		{Path: "requirements.txt", Extension: ".txt"},
		{Path: "Cargo.toml", Extension: ".toml"},
		{Path: "vendor/pom.xml", Extension: ".xml"}, // nested manifests are ignored
		{Path: "Gemfile"},
	})
	assert.Equal(t, []string{"bundler", "cargo", "npm", "pip"}, s.PackageManagers)
	assert.Equal(t, 1, s.ByExtension[""])
	assert.Equal(t, map[string]int{"vendor": 1}, s.Directories)
}
