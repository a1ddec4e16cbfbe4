package sourcemap

import "strings"

// Capabilities is a set of flags attached to a mapping segment describing
// which feature requests are valid at the mapped location.
type Capabilities uint16

// Mapping capabilities.
const (
	CapHover Capabilities = 1 << iota
	CapReferences
	CapDefinition
	CapRename
	CapCompletion
	CapDiagnostic
	CapSemanticTokens
	CapReferencesCodeLens
	CapDisplayWithLink

	// CapNone as a mask matches every segment.
	CapNone Capabilities = 0

	CapAll = CapHover | CapReferences | CapDefinition | CapRename | CapCompletion |
		CapDiagnostic | CapSemanticTokens | CapReferencesCodeLens | CapDisplayWithLink
)

var capabilityNames = []struct {
	cap  Capabilities
	name string
}{
	{CapHover, "hover"},
	{CapReferences, "references"},
	{CapDefinition, "definition"},
	{CapRename, "rename"},
	{CapCompletion, "completion"},
	{CapDiagnostic, "diagnostic"},
	{CapSemanticTokens, "semanticTokens"},
	{CapReferencesCodeLens, "referencesCodeLens"},
	{CapDisplayWithLink, "displayWithLink"},
}

// Has reports whether every flag in mask is set.
func (c Capabilities) Has(mask Capabilities) bool {
	return c&mask == mask
}

// String returns the flag names joined by "|".
func (c Capabilities) String() string {
	if c == CapNone {
		return "none"
	}
	var names []string
	for _, cn := range capabilityNames {
		if c&cn.cap != 0 {
			names = append(names, cn.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseCapabilities parses flag names as produced by String.
// Unknown names are reported with ok == false.
func ParseCapabilities(s string) (caps Capabilities, ok bool) {
	if s == "" || s == "none" {
		return CapNone, true
	}
	for _, part := range strings.Split(s, "|") {
		found := false
		for _, cn := range capabilityNames {
			if cn.name == strings.TrimSpace(part) {
				caps |= cn.cap
				found = true
				break
			}
		}
		if !found {
			return caps, false
		}
	}
	return caps, true
}
