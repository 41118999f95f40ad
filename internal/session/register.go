package session

import (
	"regexp"
	"strings"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`\S+@\S+\.\S+`)
)

// ValidateRegistration checks the registration form before it is sent and
// returns the message per offending field, empty when the form is fine.
func ValidateRegistration(req apiclient.RegisterRequest, confirmPassword string) map[string]string {
	errs := map[string]string{}
	switch u := req.Username; {
	case strings.TrimSpace(u) == "":
		errs["username"] = "Username is required"
	case len(u) < 3:
		errs["username"] = "Username must be at least 3 characters"
	case len(u) > 50:
		errs["username"] = "Username must be at most 50 characters"
	case !usernamePattern.MatchString(u):
		errs["username"] = "Username can only contain letters, numbers, underscores, and hyphens"
	}

	switch {
	case strings.TrimSpace(req.Email) == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(req.Email):
		errs["email"] = "Email is invalid"
	}

	switch {
	case req.Password == "":
		errs["password"] = "Password is required"
	case len(req.Password) < 8:
		errs["password"] = "Password must be at least 8 characters"
	}
	if req.Password != confirmPassword {
		errs["confirmPassword"] = "Passwords do not match"
	}
	return errs
}
