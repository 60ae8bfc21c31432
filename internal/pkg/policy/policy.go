// Package policy builds the casbin enforcer that guards the OTP listing
// endpoints when they are not open to everyone.
package policy

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

// RoleReader is the role granted read access to OTP listings.
const RoleReader = "otp_reader"

// Wildcard as a reader grants every authenticated user access.
const Wildcard = "*"

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (p.sub == "*" || g(r.sub, p.sub)) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// NewEnforcer returns an in-memory enforcer where every entry of readers
// (an email, compared lowercased, or Wildcard) may GET any object.
func NewEnforcer(readers []string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("policy: model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("policy: enforcer: %w", err)
	}

	if _, err := e.AddPolicy(RoleReader, "*", "GET"); err != nil {
		return nil, fmt.Errorf("policy: add policy: %w", err)
	}

	for _, reader := range readers {
		reader = strings.ToLower(strings.TrimSpace(reader))
		switch reader {
		case "":
			continue
		case Wildcard:
			if _, err := e.AddPolicy(Wildcard, "*", "GET"); err != nil {
				return nil, fmt.Errorf("policy: add wildcard: %w", err)
			}
		default:
			if _, err := e.AddGroupingPolicy(reader, RoleReader); err != nil {
				return nil, fmt.Errorf("policy: add reader %q: %w", reader, err)
			}
		}
	}

	return e, nil
}
