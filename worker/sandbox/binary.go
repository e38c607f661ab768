package sandbox

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// binaryExtensions is the extension allow-... actually deny-list: reads of
// files with these extensions are refused before any I/O happens.
var binaryExtensions = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".zip": true, ".tar": true, ".gz": true, ".exe": true, ".so": true,
	".dylib": true, ".dll": true, ".bin": true, ".ico": true, ".woff": true,
	".woff2": true, ".ttf": true, ".mp3": true, ".mp4": true, ".mov": true,
	".wasm": true, ".class": true, ".o": true, ".a": true,
}

func hasBinaryExtension(logicalPath string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(logicalPath))]
}

// looksBinary scans content for a null byte or a high proportion (>10%) of
// non-printable, non-whitespace bytes, used as a post-hoc refusal for files
// whose extension did not flag them.
func looksBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	sample := content
	const maxSample = 8192
	if len(sample) > maxSample {
		sample = sample[:maxSample]
	}
	var nonPrintable int
	for i := 0; i < len(sample); {
		if sample[i] == 0 {
			return true
		}
		r, size := utf8.DecodeRune(sample[i:])
		if r == utf8.RuneError && size == 1 {
			nonPrintable++
			i++
			continue
		}
		if !isPrintable(r) {
			nonPrintable++
		}
		i += size
	}
	return float64(nonPrintable)/float64(len(sample)) > 0.10
}

func isPrintable(r rune) bool {
	switch r {
	case '\n', '\r', '\t':
		return true
	}
	return r >= 0x20 && r != 0x7f
}
