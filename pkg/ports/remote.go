package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
)

// CatalogAPI lists the facility types and service lines known to the remote service.
type CatalogAPI interface {
	FacilityTypes(ctx context.Context) ([]domain.CatalogEntry, error)
	ServiceLines(ctx context.Context) ([]domain.CatalogEntry, error)
}

// ScenarioAPI is the remote service questionnaires are published to.
// Failures are reported as *domain.RemoteError.
type ScenarioAPI interface {
	CatalogAPI

	// CreateScenario publishes a new template.
	CreateScenario(ctx context.Context, in domain.CreateScenarioInput) (domain.MutationResult, error)

	// UpdateScenario replaces the graph of an existing scenario.
	UpdateScenario(ctx context.Context, in domain.UpdateScenarioInput) (domain.MutationResult, error)

	// UpdateTemplate replaces the name, facilities and services of a scenario.
	UpdateTemplate(ctx context.Context, in domain.UpdateTemplateInput) (domain.UpdateTemplateResult, error)

	// GetScenario fetches a scenario. An empty version selects the latest one.
	GetScenario(ctx context.Context, id, version string) (domain.Scenario, error)
}

// UserAPI manages operator accounts on the remote service.
type UserAPI interface {
	GetUser(ctx context.Context, id string) (domain.AdminUser, error)
	CreateAdminUser(ctx context.Context, in domain.AdminUserInput) (domain.AdminUser, error)
	UpdateAdminUser(ctx context.Context, id string, in domain.AdminUserInput) (domain.AdminUser, error)
}

// TemplateSource is a read-only library of starter templates, returned in draft form.
type TemplateSource interface {
	// GetTemplate returns domain.ErrTemplateNotFound for unknown ids.
	GetTemplate(ctx context.Context, id string) (domain.Draft, error)
	ListTemplates(ctx context.Context) ([]domain.Draft, error)
}
