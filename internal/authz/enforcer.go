// Package authz decides which roles may perform which actions, using a casbin
// RBAC model and policy embedded in the binary.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/listenupapp/shelfmark/internal/domain"
	domainerrors "github.com/listenupapp/shelfmark/internal/errors"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Object is a protected resource family.
type Object string

// Objects.
const (
	ObjectCatalog Object = "catalog"
	ObjectSeed    Object = "seed"
	ObjectAdmin   Object = "admin"
	ObjectRatings Object = "ratings"
	ObjectProfile Object = "profile"
	ObjectSearch  Object = "search"
)

// Action is what is done to an Object.
type Action string

// Actions.
const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Enforcer evaluates the role policy.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer from the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// loadPolicy adds the p and g lines of a CSV policy.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Allowed reports whether role may perform act on obj. An empty role is anonymous.
func (e *Enforcer) Allowed(role domain.Role, obj Object, act Action) bool {
	if role == "" {
		role = domain.RoleAnonymous
	}
	ok, err := e.enforcer.Enforce(string(role), string(obj), string(act))
	return err == nil && ok
}

// Require returns a FORBIDDEN error unless role may perform act on obj.
func (e *Enforcer) Require(role domain.Role, obj Object, act Action) error {
	if !e.Allowed(role, obj, act) {
		return domainerrors.Forbidden("you do not have permission to perform this action")
	}
	return nil
}
