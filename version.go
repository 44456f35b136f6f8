package occbuild

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Version is the three-part release number of the project.
type Version struct {
	Major, Minor, Patch int
}

// DefaultVersion is the current occmodel release.
var DefaultVersion = Version{1, 1, 0}

// ParseVersion reads a dotted version such as "1.1.0".
func ParseVersion(s string) (Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("invalid version %q: only MAJOR.MINOR.PATCH is supported", s)
	}
	return Version{int(v.Major()), int(v.Minor()), int(v.Patch())}, nil
}

// String returns the dotted form, e.g. "1.1.0".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Tuple returns the version as a Python tuple literal, e.g. "(1,1,0)".
func (v Version) Tuple() string {
	return fmt.Sprintf("(%d,%d,%d)", v.Major, v.Minor, v.Patch)
}

// UnmarshalYAML accepts either a dotted string or a three element sequence.
func (v *Version) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		parsed, err := ParseVersion(node.Value)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	case yaml.SequenceNode:
		var parts []int
		if err := node.Decode(&parts); err != nil {
			return err
		}
		if len(parts) != 3 {
			return fmt.Errorf("version needs three components, got %d", len(parts))
		}
		*v = Version{parts[0], parts[1], parts[2]}
		return nil
	default:
		return fmt.Errorf("line %d: version must be a string or a sequence", node.Line)
	}
}

// MarshalYAML writes the dotted form.
func (v Version) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}
