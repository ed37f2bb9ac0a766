package guard_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bytefinance/internal/api"
	"bytefinance/internal/guard"
	"bytefinance/internal/session"
)

var (
	unresolved = session.State{}
	checking   = session.State{Loading: true}
	anonymous  = session.State{Ready: true}
	asUser     = session.State{Ready: true, Token: "tok", User: &api.User{ID: 1, Role: "user"}}
	asAdmin    = session.State{Ready: true, Token: "tok", User: &api.User{ID: 2, Role: "admin"}}
)

func TestClassify(t *testing.T) {
	t.Parallel()

	require.Equal(t, guard.Unknown, guard.Classify(unresolved))
	require.Equal(t, guard.Checking, guard.Classify(checking))
	require.Equal(t, guard.Unauthenticated, guard.Classify(anonymous))
	require.Equal(t, guard.AuthenticatedUser, guard.Classify(asUser))
	require.Equal(t, guard.AuthenticatedAdmin, guard.Classify(asAdmin))

	// A token without a resolved user is still unauthenticated.
	require.Equal(t, guard.Unauthenticated, guard.Classify(session.State{Ready: true, Token: "tok"}))
}

func TestDecide(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		required guard.Access
		state    session.State
		want     guard.Decision
	}{
		{"public always allowed", guard.AccessPublic, unresolved, guard.Allow},
		{"public allowed while checking", guard.AccessPublic, checking, guard.Allow},
		{"public allowed for admin", guard.AccessPublic, asAdmin, guard.Allow},

		{"user route waits on unresolved session", guard.AccessUser, unresolved, guard.Wait},
		{"user route waits while checking", guard.AccessUser, checking, guard.Wait},
		{"user route redirects anonymous to login", guard.AccessUser, anonymous, guard.RedirectLogin},
		{"user route redirects unresolved identity to login", guard.AccessUser, session.State{Ready: true, Token: "tok"}, guard.RedirectLogin},
		{"user route allows user", guard.AccessUser, asUser, guard.Allow},
		{"user route allows admin", guard.AccessUser, asAdmin, guard.Allow},

		{"admin route waits on unresolved session", guard.AccessAdmin, unresolved, guard.Wait},
		{"admin route redirects anonymous to login", guard.AccessAdmin, anonymous, guard.RedirectLogin},
		{"admin route bounces plain user home", guard.AccessAdmin, asUser, guard.RedirectHome},
		{"admin route allows admin", guard.AccessAdmin, asAdmin, guard.Allow},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, guard.Decide(tc.required, tc.state))
		})
	}
}

func TestDecisionString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "wait", guard.Wait.String())
	require.Equal(t, "allow", guard.Allow.String())
	require.Equal(t, "redirect-to-login", guard.RedirectLogin.String())
	require.Equal(t, "redirect-to-default", guard.RedirectHome.String())
}
