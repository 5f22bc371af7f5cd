// Package adminsdk is the Go client for the Fresh County admin auth
// service.
//
// Client is a stateless wrapper over the HTTP API. Session adds the
// state a frontend needs: it holds the current token and user, parks an
// in-flight MFA challenge between the two login round-trips, persists
// the token through a TokenStore, and notifies subscribers on change.
//
//	client := adminsdk.NewClient("https://admin.example.com")
//	session := adminsdk.NewSession(client, &adminsdk.FileTokenStore{Path: ".admin-token"})
//
//	err := session.Login(ctx, "admin@example.com", "admin123")
//	var mfa *adminsdk.MFARequiredError
//	if errors.As(err, &mfa) {
//	    err = session.CompleteMFA(ctx, promptForCode())
//	}
package adminsdk
