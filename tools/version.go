package tools

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a normalized dotted-numeric tool version. The zero value means
// the version could not be determined and compares below everything.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Patch == 0
}

// Compare returns -1, 0 or 1 ordering v against o numerically.
func (v Version) Compare(o Version) int {
	pairs := [][2]int{{v.Major, o.Major}, {v.Minor, o.Minor}, {v.Patch, o.Patch}}
	for _, p := range pairs {
		if p[0] < p[1] {
			return -1
		}
		if p[0] > p[1] {
			return 1
		}
	}
	return 0
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ExtractVersion finds the first dotted number in a tool's version banner.
// Trailing build tags like 0.7.17-r1188 are ignored. Banners with no dotted
// number yield the zero Version.
func ExtractVersion(banner string) Version {
	m := versionPattern.FindStringSubmatch(banner)
	if m == nil {
		return Version{}
	}
	var v Version
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v
}

// FirstLineVersion scans only the banner's first line, for tools like
// samtools whose later output mentions library versions that would otherwise
// match first.
func FirstLineVersion(banner string) Version {
	line, _, _ := strings.Cut(banner, "\n")
	return ExtractVersion(line)
}

// LabeledVersion picks the number following a "Version:" label, the format
// bwa prints in its usage text.
func LabeledVersion(banner string) Version {
	for _, line := range strings.Split(banner, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Version:"); ok {
			return ExtractVersion(rest)
		}
	}
	return Version{}
}
