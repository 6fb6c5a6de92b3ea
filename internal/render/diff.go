package render

import (
	"github.com/pmezard/go-difflib/difflib"

	"github.com/stensonb/cloud-agent/internal/sysconfig"
)

// Diff returns a unified diff between two renderings. It is empty when
// they are equal.
func Diff(a, b, fromName, toName string) string {
	if a == b {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	return text
}

// DiffConfigs renders both configurations as YAML and diffs them. A nil
// configuration renders as empty.
func DiffConfigs(prev, next *sysconfig.SystemConfig, fromName, toName string) (string, error) {
	a, err := yamlOrEmpty(prev)
	if err != nil {
		return "", err
	}
	b, err := yamlOrEmpty(next)
	if err != nil {
		return "", err
	}
	return Diff(a, b, fromName, toName), nil
}

func yamlOrEmpty(sc *sysconfig.SystemConfig) (string, error) {
	if sc == nil {
		return "", nil
	}
	return String(sc, FormatYAML)
}
