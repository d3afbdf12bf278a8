// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"fmt"

	"github.com/angelamos/chefbot-api/internal/core"
	"github.com/angelamos/chefbot-api/internal/store"
)

const usersTable = "users"

type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) (*User, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	client *store.Client
}

func NewRepository(client *store.Client) Repository {
	return &repository{client: client}
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	var users []User
	filters := store.NewFilters().Eq("email", email)

	if err := r.client.Select(ctx, usersTable, filters, &users); err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}

	return &users[0], nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	var users []User
	filters := store.NewFilters().Eq("id", id)

	if err := r.client.Select(ctx, usersTable, filters, &users); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}

	return &users[0], nil
}

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	var created []User

	err := r.client.Insert(
		ctx,
		usersTable,
		u,
		"return=representation",
		&created,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if len(created) == 0 {
		// Some deployments omit the representation; fall back to the input.
		return u, nil
	}

	return &created[0], nil
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	fields map[string]any,
) error {
	filters := store.NewFilters().Eq("id", id)

	if err := r.client.Update(ctx, usersTable, filters, fields); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	filters := store.NewFilters().Eq("id", id)

	if err := r.client.Delete(ctx, usersTable, filters); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}
