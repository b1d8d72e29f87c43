package collectible

import (
	"context"
	"fmt"
	"strings"

	"github.com/MixinNetwork/mixin/logger"
)

// Role is a set of capabilities, one bit per role.
type Role uint8

const (
	RoleAdmin Role = 1 << iota
	RoleCreator
)

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "admin":
		return RoleAdmin, nil
	case "creator":
		return RoleCreator, nil
	}
	return 0, fmt.Errorf("collectible: unknown role %q", s)
}

func (r Role) Has(role Role) bool {
	return role != 0 && r&role == role
}

func (r Role) String() string {
	var names []string
	if r.Has(RoleAdmin) {
		names = append(names, "admin")
	}
	if r.Has(RoleCreator) {
		names = append(names, "creator")
	}
	return strings.Join(names, ",")
}

func validRole(role Role) bool {
	return role == RoleAdmin || role == RoleCreator
}

func (eng *Engine) HasRole(role Role, account string) (bool, error) {
	roles, err := eng.store.ReadRole(account)
	if err != nil {
		return false, err
	}
	return roles.Has(role), nil
}

func (eng *Engine) requireRole(role Role, account string) error {
	ok, err := eng.HasRole(role, account)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s is not %s", ErrUnauthorized, account, role)
	}
	return nil
}

func (eng *Engine) GrantRole(ctx context.Context, call *Call, role Role, account string) error {
	return eng.updateRole(call, role, account, true)
}

func (eng *Engine) RevokeRole(ctx context.Context, call *Call, role Role, account string) error {
	return eng.updateRole(call, role, account, false)
}

func (eng *Engine) updateRole(call *Call, role Role, account string, grant bool) error {
	if err := eng.checkCall(call); err != nil {
		return err
	}
	if !validRole(role) {
		return fmt.Errorf("collectible: invalid role %d", role)
	}
	if err := ValidateAccount(account); err != nil {
		return err
	}
	if err := eng.requireRole(RoleAdmin, call.Sender); err != nil {
		return err
	}
	roles, err := eng.store.ReadRole(account)
	if err != nil {
		return err
	}
	if grant {
		roles |= role
	} else {
		roles &^= role
	}
	logger.Verbosef("Engine.updateRole(%s, %s, %t) by %s\n", account, role, grant, call.Sender)
	return eng.store.WriteRole(account, roles)
}

// AcquireCreatorSignature grants the creator role to any caller paying at
// least the creator signature fee. The whole payment is retained.
func (eng *Engine) AcquireCreatorSignature(ctx context.Context, call *Call) error {
	if err := eng.checkCall(call); err != nil {
		return err
	}
	if err := eng.requireUnpaused(); err != nil {
		return err
	}
	terms, err := eng.Terms()
	if err != nil {
		return err
	}
	if call.Value.LessThan(terms.CreatorSignatureFee) {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientPayment, call.Value, terms.CreatorSignatureFee)
	}
	roles, err := eng.store.ReadRole(call.Sender)
	if err != nil {
		return err
	}
	payment := eng.collect(call, "signature")
	return eng.settle(ctx, call, payment, func() error {
		return eng.store.WriteRole(call.Sender, roles|RoleCreator)
	})
}
