// Package resources maps scene objects to resource paths and ids.
package resources

import (
	"strconv"
	"strings"

	"github.com/mogaika/geometry_source/utils"
)

const (
	// separates container file from sub-object
	SubObjectSeparator = "~~"
	MaxPathLength      = 240
	LongPathPrefix     = "long_path/"
)

// Standardize converts an asset path into a url-safe resource path.
// The replacement order matters: dots first, then commas, then spaces.
func Standardize(fileName string, pathRoot string) string {
	p := fileName
	p = strings.ReplaceAll(p, ".", "_-_")
	p = strings.ReplaceAll(p, ",", "_--_")
	p = strings.ReplaceAll(p, " ", "___")
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ReplaceAll(p, "#", "~")
	if pathRoot != "" {
		p = strings.ReplaceAll(p, pathRoot, "")
	}
	if len(p) > MaxPathLength {
		q := LongPathPrefix + strconv.FormatUint(utils.StringHash64(p, 0), 16)
		utils.LogWarn("[resources] Shortening too-long path %q to %q", p, q)
		return q
	}
	return p
}

// Unstandardize approximately inverts Standardize and drops the
// sub-object part
func Unstandardize(fileName string, pathRoot string) string {
	p := fileName
	p = strings.ReplaceAll(p, "___", " ")
	p = strings.ReplaceAll(p, "_--_", ",")
	p = strings.ReplaceAll(p, "_-_", ".")
	if pathRoot != "" {
		if !strings.HasSuffix(pathRoot, "/") {
			pathRoot += "/"
		}
		p = pathRoot + strings.ReplaceAll(p, pathRoot, "")
	}
	if tilde := strings.Index(p, SubObjectSeparator); tilde >= 0 {
		p = p[:tilde]
	}
	return p
}
