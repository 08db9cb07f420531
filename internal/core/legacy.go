package core

// legacyImplicitRelease covers feeds exported before previous-value columns
// existed. Such a unit carries no previous reading and no explicit
// authorization, yet a current reading is out of spec and the terminal left
// a trace (authorization timestamp or doublecheck bulletin). Old reports
// treated that as a terminal release, and so do we.
//
// The rule cannot tell which metric went to review, and it will report a unit
// that was never reviewed as released if a bulletin was attached by mistake.
// Disable it with ReconcilerOptions.LegacyImplicitRelease.
func legacyImplicitRelease(u Unit, d Decision) bool {
	if u.HasPrevious() || u.Authorization != AuthPending {
		return false
	}
	if d.Status == StatusApproved {
		return false
	}
	return u.HasAuthorizationSignal()
}
