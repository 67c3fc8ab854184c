package memory

import "context"

// StaticVerifier checks invest passwords against a fixed table. It stands in
// for the user service that owns credentials; deployments plug their own
// implementation into the port.
type StaticVerifier struct {
	Passwords map[string]string
	// PermitAll skips the check for deployments without invest passwords.
	PermitAll bool
}

func (v StaticVerifier) VerifyInvestPassword(_ context.Context, userID, investPassword string) (bool, error) {
	if v.PermitAll {
		return true, nil
	}
	expected, ok := v.Passwords[userID]
	return ok && expected == investPassword, nil
}
