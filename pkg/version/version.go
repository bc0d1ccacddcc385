package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Version is overridable via -ldflags "-X .../pkg/version.Version=v1.2.3";
// otherwise it falls back to the module version embedded by the toolchain.
var Version = "(dev)"

var (
	revision string
	modified bool
)

func init() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "(dev)" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
}

// GetMore returns a one-line version string, or a multi-line one with
// VCS details when verbose is set.
func GetMore(verbose bool) string {
	line := fmt.Sprintf("version %s %s %s/%s\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if !verbose {
		return line
	}

	var b strings.Builder
	b.WriteString(line)
	if revision != "" {
		rev := revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if modified {
			rev += " (dirty)"
		}
		fmt.Fprintf(&b, "\trevision %s\n", rev)
	}
	return b.String()
}
