package adminsdk

import "fmt"

// APIError is a non-success envelope from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("adminauth: %s (status %d)", e.Message, e.StatusCode)
}

// MFARequiredError is returned from Login when the account has a second
// factor enabled. The caller should prompt for a code and complete the
// login with the carried challenge token.
type MFARequiredError struct {
	MFALoginToken string
}

func (e *MFARequiredError) Error() string {
	return "adminauth: second factor required"
}
