package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Stem strips the directory and extension from a source path, normalized for
// use in output filenames.
func Stem(sourcePath string) string {
	name := filepath.Base(filepath.ToSlash(sourcePath))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	if name == "" {
		return "asset"
	}
	return name
}

// HashedAssetPath builds the logical output path of a hashed bundle file:
// assets/<stem>.<hash12><ext>.
func HashedAssetPath(stem, contentHash, ext string) string {
	return "assets/" + stem + "." + ShortHash(contentHash) + ext
}

// VariantAssetPath names an image variant, keeping the requested width
// visible: assets/<stem>-<width>w.<hash12><ext>.
func VariantAssetPath(stem string, width int, contentHash string, ext string) string {
	return HashedAssetPath(fmt.Sprintf("%s-%dw", stem, width), contentHash, ext)
}

// FontAssetPath names a packaged face binary under the fonts subtree.
func FontAssetPath(family string, style FontStyle, contentHash, ext string) string {
	stem := strings.ToLower(strings.ReplaceAll(family, " ", "-"))
	if style == StyleItalic {
		stem += "-italic"
	}
	return "assets/fonts/" + stem + "." + ShortHash(contentHash) + ext
}
