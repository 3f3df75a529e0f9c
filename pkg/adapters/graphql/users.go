package graphql

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/validation"
)

func (c *Client) GetUser(ctx context.Context, id string) (domain.AdminUser, error) {
	var out domain.AdminUser
	err := c.call(ctx, "admingetUserById", queryAdminUser, map[string]any{"userId": id}, &out)
	return out, err
}

// CreateAdminUser validates in before sending it.
func (c *Client) CreateAdminUser(ctx context.Context, in domain.AdminUserInput) (domain.AdminUser, error) {
	if err := validation.Struct(in); err != nil {
		return domain.AdminUser{}, err
	}
	var out domain.AdminUser
	err := c.call(ctx, "admincreateUser", mutationAdminCreateUser, map[string]any{"input": in}, &out)
	return out, err
}

// UpdateAdminUser validates in before sending it.
func (c *Client) UpdateAdminUser(ctx context.Context, id string, in domain.AdminUserInput) (domain.AdminUser, error) {
	if err := validation.Struct(in); err != nil {
		return domain.AdminUser{}, err
	}
	var out domain.AdminUser
	err := c.call(ctx, "adminupdateUser", mutationAdminUpdateUser, map[string]any{"userId": id, "input": in}, &out)
	return out, err
}
