package constants

import "strings"

// ContentTypePDF is the only upload content type the analysis service accepts.
const ContentTypePDF = "application/pdf"

// AllowedExtensions holds the file extensions accepted for analysis.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedFilename reports whether the filename carries an allowed extension.
func AllowedFilename(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	_, ok := AllowedExtensions[NormalizeExt(name[i:])]
	return ok
}
