package party

import "strconv"

// Search attribute keys written at party creation.
const (
	AttrCode   = "code"
	AttrServer = "server"
	AttrCommit = "commit"
)

// Shared lobby property keys.
const (
	// PropReadyVersion is the leader-owned counter behind the ready
	// protocol. Bumping it invalidates every member's ready signal at once.
	PropReadyVersion = "ready_version"
)

// Well-known member property keys.
const (
	MemberPropReady         = "ready"
	MemberPropDisplayName   = "display_name"
	MemberPropCharacterSkin = "character_skin"
	MemberPropTrophies      = "trophies"
)

// notReadySentinel is written to the ready property when un-readying. It can
// never equal a ready key, which always contains '='.
const notReadySentinel = "nope"

// Member is one party participant as seen by this client.
type Member struct {
	// ID is the stable member identifier from the identity collaborator.
	ID string

	// Leader is true for exactly one member while a party exists.
	Leader bool

	// Local is true for the member representing this running client.
	Local bool

	// Properties mirrors the remote member record.
	Properties map[string]string
}

// ReadyVersion returns the member's stored ready token. It is compared
// against the current ready key, never parsed.
func (m *Member) ReadyVersion() string {
	return m.Properties[MemberPropReady]
}

// DisplayName returns the member's display name property.
func (m *Member) DisplayName() string {
	return m.Properties[MemberPropDisplayName]
}

// Trophies returns the member's trophy count property, or 0.
func (m *Member) Trophies() int {
	n, _ := strconv.Atoi(m.Properties[MemberPropTrophies])
	return n
}

// CharacterSkin returns the member's equipped character skin property.
func (m *Member) CharacterSkin() string {
	return m.Properties[MemberPropCharacterSkin]
}

// mergeProperties copies props into the member's property map and reports
// whether anything changed. Keys absent from props are left alone; this is a
// merge, not a replace.
func (m *Member) mergeProperties(props map[string]string) bool {
	if m.Properties == nil {
		m.Properties = make(map[string]string, len(props))
	}
	changed := false
	for k, v := range props {
		if old, ok := m.Properties[k]; !ok || old != v {
			m.Properties[k] = v
			changed = true
		}
	}
	return changed
}

// replaceProperties overwrites the member's property map with props and
// reports whether anything changed, including removed keys.
func (m *Member) replaceProperties(props map[string]string) bool {
	changed := len(m.Properties) != len(props)
	if !changed {
		for k, v := range props {
			if old, ok := m.Properties[k]; !ok || old != v {
				changed = true
				break
			}
		}
	}
	if changed {
		next := make(map[string]string, len(props))
		for k, v := range props {
			next[k] = v
		}
		m.Properties = next
	}
	return changed
}
