package marketplace

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
)

const (
	useCaseRegister        = "account.register"
	useCaseChangeRole      = "account.change_role"
	useCaseVerifyOwnership = "account.verify_ownership"
	useCaseViewUser        = "account.view"
)

// Register creates the caller's account. An identity registers once; a
// second attempt fails whatever the other fields say.
func (s *Service) Register(ctx context.Context, caller market.AccountID, profile market.Profile, role market.Role) (*market.User, error) {
	var out *market.User
	err := s.execute(ctx, useCaseRegister, "Register", func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		_, err := s.store.User(ctx, caller)
		switch {
		case err == nil:
			return nil, market.ErrAlreadyRegistered
		case !errors.Is(err, market.ErrUserNotFound):
			return nil, wrapStoreError(err)
		}

		seq, err := s.next(ctx)
		if err != nil {
			return nil, err
		}
		u, err := market.NewUser(caller, seq.User, profile, role)
		if err != nil {
			return nil, err
		}
		if err := s.commit(ctx, func(b market.Batch) { b.PutUser(u) }); err != nil {
			return nil, err
		}

		span.SetAttributes(attribute.String("account.role", role.String()))
		out = u
		return []domoutbox.Event{market.NewUserRegisteredEvent(u)}, nil
	}, attribute.String("account.id", string(caller)))
	return out, err
}

// ChangeRole switches the caller's role. Sub-profiles the new role needs are
// allocated; existing ones keep their history.
func (s *Service) ChangeRole(ctx context.Context, caller market.AccountID, role market.Role) (*market.User, error) {
	var out *market.User
	err := s.execute(ctx, useCaseChangeRole, "ChangeRole", func(ctx context.Context, span trace.Span) ([]domoutbox.Event, error) {
		u, err := s.user(ctx, caller)
		if err != nil {
			return nil, err
		}
		from := u.Role
		if err := u.ChangeRole(role); err != nil {
			return nil, err
		}
		if err := s.commit(ctx, func(b market.Batch) { b.PutUser(u) }); err != nil {
			return nil, err
		}

		span.SetAttributes(
			attribute.String("account.role_from", from.String()),
			attribute.String("account.role_to", role.String()),
		)
		out = u
		return []domoutbox.Event{market.NewRoleChangedEvent(caller, from, role)}, nil
	}, attribute.String("account.id", string(caller)))
	return out, err
}

// VerifyOwnership fails with ErrNotOwner unless product is in the caller's
// product list.
func (s *Service) VerifyOwnership(ctx context.Context, caller market.AccountID, product market.ProductID) error {
	return s.execute(ctx, useCaseVerifyOwnership, "VerifyOwnership", func(ctx context.Context, _ trace.Span) ([]domoutbox.Event, error) {
		u, err := s.user(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !u.OwnsProduct(product) {
			return nil, market.ErrNotOwner
		}
		return nil, nil
	}, attribute.String("account.id", string(caller)), attribute.Int64("product.id", int64(product)))
}

func (s *Service) ViewUser(ctx context.Context, id market.AccountID) (*market.User, error) {
	var out *market.User
	err := s.execute(ctx, useCaseViewUser, "ViewUser", func(ctx context.Context, _ trace.Span) ([]domoutbox.Event, error) {
		u, err := s.user(ctx, id)
		out = u
		return nil, err
	}, attribute.String("account.id", string(id)))
	return out, err
}
