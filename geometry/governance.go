package geometry

import (
	"github.com/mogaika/geometry_source/scene"
	"github.com/mogaika/geometry_source/utils"
)

// Governance is the streaming policy of the host. Its verdict only warns,
// extraction of a refused root goes ahead.
type Governance interface {
	// CanStream returns the reason a root may not be streamed, or nil
	CanStream(root *scene.GameObject) error
}

// SetGovernance installs the policy consulted by ExtractScene, nil removes it
func (s *Source) SetGovernance(g Governance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.governance = g
}

func rootPriority(g *scene.GameObject) int32 {
	if g.StreamableRoot != nil {
		return g.StreamableRoot.Priority
	}
	return 0
}

// streamableRoot reports whether a scene root passes the priority floor,
// and warns when the host policy refuses it
func (s *Source) streamableRoot(g *scene.GameObject) bool {
	if p := rootPriority(g); p < s.settings.Extraction.MinimumNodePriority {
		utils.LogDebug("[geometry] Skipping %q, priority %d is below %d", g.Name, p, s.settings.Extraction.MinimumNodePriority)
		return false
	}
	if s.governance != nil {
		if err := s.governance.CanStream(g); err != nil {
			utils.LogWarn("[geometry] Root %q can not stream: %v", g.Name, err)
		}
	}
	return true
}
