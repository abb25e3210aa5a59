package guard

import (
	"github.com/shopfront/client/internal/domain/session"
)

// Requirement is a route's declared session requirement.
type Requirement string

const (
	AnonymousOK Requirement = "anonymous-ok"
	UserOnly    Requirement = "user-only"
	AdminOnly   Requirement = "admin-only"
)

// Outcome is the guard's navigation decision. CheckingSession is the neutral
// outcome while session restoration is still pending; no redirect may be
// issued until the restore completes.
type Outcome string

const (
	Render            Outcome = "render"
	CheckingSession   Outcome = "checking-session"
	RedirectLogin     Outcome = "redirect-login"
	RedirectBlocked   Outcome = "redirect-blocked"
	RedirectHome      Outcome = "redirect-home"
	RedirectAdminHome Outcome = "redirect-admin-home"
)

// SessionState is the guard's view of the session store.
type SessionState struct {
	// Restored is false while the durable-storage read is still pending.
	Restored bool
	Session  *session.Session
}

// Decide applies the navigation decision table. It is pure: it issues no
// network calls and has no side effects.
//
//	session  blocked  requirement            outcome
//	absent   -        any protected          redirect to login
//	present  true     any                    redirect to blocked page
//	present  false    admin-only, not admin  redirect to home
//	present  false    user-only, admin       redirect to admin home
//	present  false    matches                render
func Decide(state SessionState, req Requirement) Outcome {
	if !state.Restored {
		return CheckingSession
	}

	sess := state.Session
	if sess == nil {
		if req == AnonymousOK {
			return Render
		}
		return RedirectLogin
	}

	if sess.Blocked {
		return RedirectBlocked
	}

	switch req {
	case AdminOnly:
		if !sess.IsAdmin() {
			return RedirectHome
		}
	case UserOnly:
		if sess.IsAdmin() {
			return RedirectAdminHome
		}
	}
	return Render
}
