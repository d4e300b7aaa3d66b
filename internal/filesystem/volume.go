package filesystem

import (
	"path/filepath"
	"sort"
	"strings"
)

// unknownVolume labels paths outside every configured volume.
const unknownVolume = "unknown"

// VolumeResolver maps file paths to volume names for metric labels. The most
// specific configured root containing a path wins, so with "uploads" at
// /uploads and "work" at /uploads/work, spooled files are labelled "work".
type VolumeResolver struct {
	roots []volumeRoot // longest dir first
}

type volumeRoot struct {
	dir  string
	name string
}

// NewVolumeResolver creates a resolver from volume name to directory.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	roots := make([]volumeRoot, 0, len(volumes))
	for name, dir := range volumes {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		roots = append(roots, volumeRoot{dir: filepath.Clean(dir), name: name})
	}
	sort.Slice(roots, func(i, j int) bool {
		return len(roots[i].dir) > len(roots[j].dir)
	})
	return &VolumeResolver{roots: roots}
}

// Resolve returns the volume name for path, or "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return unknownVolume
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return unknownVolume
	}
	for _, r := range vr.roots {
		if within(abs, r.dir) {
			return r.name
		}
	}
	return unknownVolume
}

// within reports whether path is dir or lies beneath it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the resolver used when a policy has none.
// Call it once at startup.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

func resolveVolume(override *VolumeResolver, path string) string {
	if override != nil {
		return override.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}
