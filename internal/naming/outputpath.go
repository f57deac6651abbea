package naming

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/backmassage/compatmux/internal/config"
)

// optimizedMarker in a file name marks output of older tool versions.
const optimizedMarker = ".optimized"

// Stem returns the file name of path without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputName is "<stem>.<mode>.<format>".
func OutputName(source string, mode config.Mode, format string) string {
	return Stem(source) + "." + string(mode) + "." + format
}

// ScriptName is "<stem>.optimizer.<mode>.<ext>".
func ScriptName(source string, mode config.Mode, ext string) string {
	return Stem(source) + ".optimizer." + string(mode) + "." + ext
}

// TempDirName is the name of the per-file directory holding intermediate
// files: the source stem.
func TempDirName(source string) string {
	return Stem(source)
}

// ChainFileName names the output of one conversion chain step reading
// stream of the file named in.
func ChainFileName(in string, stream int, codec, format string) string {
	return filepath.Base(in) + "_" + strconv.Itoa(stream) + "." + codec + "." + format
}

// MkvTempPath is where a finished mkv output is parked while mkvmerge
// rewrites it: "<stem>..mkv".
func MkvTempPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + "..mkv"
}

// IsGenerated reports whether the file name looks like something this
// program produced: an output of any mode (with or without a collision
// suffix) or an older ".optimized" file.
func IsGenerated(path string) bool {
	name := filepath.Base(path)
	if strings.Contains(name, optimizedMarker) {
		return true
	}
	stem := strings.TrimSuffix(Stem(name), ".")
	if i := strings.LastIndex(stem, " ("); i > 0 && strings.HasSuffix(stem, ")") {
		stem = stem[:i]
	}
	for _, m := range []config.Mode{config.ModeLite, config.ModeStandalone, config.ModeFull} {
		if strings.HasSuffix(stem, "."+string(m)) {
			return true
		}
	}
	return false
}
