package domain

// LoginResult is the outcome of a successful authentication step. Either
// Token is set (final bearer token plus the grace marker) or MFARequired
// is true and MFALoginToken references the pending challenge.
type LoginResult struct {
	Token       string
	GraceMarker string
	User        Profile

	MFARequired   bool
	MFALoginToken string
}
