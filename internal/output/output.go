// Package output derives translated file names and writes assembled
// documents into the output directory.
package output

import (
	"os"
	"path/filepath"
	"strings"

	"tolk/internal/fileutil"
)

// FileName derives the translated file name from the source name and target
// language: "book.txt" becomes "book-fr.txt". Names without a ".txt"
// extension get the suffix before their extension, or at the end when they
// have none.
func FileName(sourceName, targetLang string) string {
	base := filepath.Base(strings.TrimSpace(sourceName))
	lang := strings.TrimSpace(targetLang)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "output.txt"
	}
	if lang == "" {
		return base
	}
	if strings.HasSuffix(base, ".txt") {
		return strings.TrimSuffix(base, ".txt") + "-" + lang + ".txt"
	}
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return base + "-" + lang
	}
	return strings.TrimSuffix(base, ext) + "-" + lang + ext
}

// Path joins the output directory with FileName.
func Path(outputDir, sourceName, targetLang string) string {
	return filepath.Join(outputDir, FileName(sourceName, targetLang))
}

// Write stores content at path atomically, creating the directory on demand.
func Write(path, content string) error {
	return fileutil.WriteFileAtomic(path, []byte(content), 0o644)
}

// Exists reports whether an output file is already present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
