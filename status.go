package posview

import (
	"time"

	"github.com/hazyhaar/posview/classify"
	"github.com/hazyhaar/posview/reconcile"
	"github.com/hazyhaar/posview/viewmode"
)

// Status is a point-in-time view of a session.
type Status struct {
	SessionID string        `json:"session_id"`
	Mode      viewmode.Mode `json:"mode"`
	OnScreen  bool          `json:"on_screen"`
	Active    bool          `json:"active"`
	Waiting   bool          `json:"waiting_for_anchor"`
	GaveUp    bool          `json:"anchor_timed_out"`
	Tiers     []string      `json:"pref_tiers"`

	Last         viewmode.Outcome     `json:"last_pass"`
	LastPassAt   time.Time            `json:"last_pass_at,omitzero"`
	Passes       uint64               `json:"passes"`
	StalePatches uint64               `json:"stale_patches"`
	Errors       uint64               `json:"errors"`
	Reconcile    reconcile.Stats      `json:"reconcile"`
	Policy       classify.ThumbPolicy `json:"thumb_policy"`
}

// Status reports the session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		SessionID:    s.id,
		Mode:         s.mode,
		OnScreen:     s.onScreen,
		Active:       s.active,
		Waiting:      s.waiting,
		GaveUp:       s.gaveUp,
		Tiers:        s.prefs.Tiers(),
		Last:         s.last,
		LastPassAt:   s.lastPass,
		Passes:       s.passes,
		StalePatches: s.stalePatches,
		Errors:       s.errors,
		Reconcile:    s.rec.Stats(),
		Policy:       s.ctrl.Thresholds().ThumbPolicy,
	}
}
