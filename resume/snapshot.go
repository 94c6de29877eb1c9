package resume

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ScopeState pairs one reactive scope's serialized value with the edge
// records that restore alongside it. The two always travel together under
// the scope's own identifier.
type ScopeState struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
	Subs  []string        `json:"subs,omitempty"`
}

// Snapshot is the persisted form of a container's reactive state.
type Snapshot struct {
	Digest string       `json:"digest"`
	Scopes []ScopeState `json:"scopes"`
}

// PersistScope verifies value, serializes it, and encodes the manager's
// edges. Edges whose references fall outside the serialization graph are
// dropped whole.
func (c *Container) PersistScope(id string, value any, m *Manager) (ScopeState, error) {
	if err := c.Verify(value, id); err != nil {
		return ScopeState{}, err
	}
	raw, err := json.Marshal(Unwrap(value))
	if err != nil {
		return ScopeState{}, fmt.Errorf("serializing scope %s: %w", id, err)
	}
	st := ScopeState{ID: id, Value: raw}
	if m != nil {
		for _, sub := range m.Edges() {
			if record, ok := c.EncodeEdge(sub); ok {
				st.Subs = append(st.Subs, record)
			}
		}
	}
	return st, nil
}

// Persist renders the scopes with a content digest for corruption detection
// on restore.
func (c *Container) Persist(scopes []ScopeState) ([]byte, error) {
	payload, err := json.Marshal(scopes)
	if err != nil {
		return nil, fmt.Errorf("serializing snapshot: %w", err)
	}
	snap := Snapshot{
		Digest: strconv.FormatUint(xxhash.Sum64(payload), 16),
		Scopes: scopes,
	}
	return json.Marshal(snap)
}

// Restore parses a persisted snapshot and re-checks its digest. A digest
// mismatch is a fatal load error for the container.
func (c *Container) Restore(data []byte) ([]ScopeState, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	payload, err := json.Marshal(snap.Scopes)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if digest := strconv.FormatUint(xxhash.Sum64(payload), 16); digest != snap.Digest {
		return nil, fmt.Errorf("snapshot digest mismatch: stored %s, computed %s", snap.Digest, digest)
	}
	return snap.Scopes, nil
}

// RestoreScope decodes one scope's value and re-registers its edges on m.
// Stale edges drop silently (and are counted); a malformed record fails the
// restore.
func (c *Container) RestoreScope(st ScopeState, m *Manager) (any, error) {
	var value any
	if len(st.Value) > 0 {
		if err := json.Unmarshal(st.Value, &value); err != nil {
			return nil, fmt.Errorf("restoring scope %s: %w", st.ID, err)
		}
	}
	for _, record := range st.Subs {
		sub, err := c.DecodeEdge(record)
		if err != nil {
			return nil, fmt.Errorf("restoring scope %s: %w", st.ID, err)
		}
		if sub == nil {
			continue
		}
		m.AddEdges(sub)
	}
	return value, nil
}
