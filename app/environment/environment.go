package environment

import (
	"errors"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidName          = errors.New("invalid environment name")
	ErrUnknownEnvironment   = errors.New("unknown environment")
	ErrIncompleteCredential = errors.New("incomplete environment credentials")
	ErrDuplicateEnvironment = errors.New("duplicate environment")
)

type Name string

const (
	Live        Name = "live"
	Test        Name = "test"
	Development Name = "development"
)

var namePattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// ParseName validates an environment name taken from configuration or a
// request. Names are case-insensitive and normalized to lower case.
func ParseName(raw string) (Name, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if !namePattern.MatchString(name) {
		return "", ErrInvalidName
	}
	return Name(name), nil
}

func (n Name) String() string {
	return string(n)
}

// Environment is the credential tuple used to sign invoices and verify
// callbacks for one deployment target.
type Environment struct {
	Name          Name
	APIBaseURL    string
	UserID        string
	EnvironmentID string
	Secret        string
}

func (e Environment) validate() error {
	if e.Name == "" ||
		strings.TrimSpace(e.APIBaseURL) == "" ||
		strings.TrimSpace(e.UserID) == "" ||
		strings.TrimSpace(e.EnvironmentID) == "" ||
		e.Secret == "" {
		return ErrIncompleteCredential
	}
	return nil
}

// String never includes the secret.
func (e Environment) String() string {
	return "environment(" + string(e.Name) + ")"
}

func (e Environment) LogFields() logrus.Fields {
	return logrus.Fields{
		"environment":    string(e.Name),
		"environment_id": e.EnvironmentID,
		"user_id":        e.UserID,
	}
}
