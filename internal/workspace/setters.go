package workspace

import (
	"context"

	"github.com/xelns/xelns-web/internal/entity"
)

// Each setter persists the collection, reloads the view and, through the
// store's change hook, schedules an auto-save during an admin session.

func (r *Runtime) SetProducts(ctx context.Context, v []entity.Product) error {
	return r.refreshed(ctx, r.store.SetProducts(ctx, v))
}

func (r *Runtime) SetProductBanners(ctx context.Context, v []entity.Banner) error {
	return r.refreshed(ctx, r.store.SetProductBanners(ctx, v))
}

func (r *Runtime) SetSolutionBanners(ctx context.Context, v []entity.Banner) error {
	return r.refreshed(ctx, r.store.SetSolutionBanners(ctx, v))
}

func (r *Runtime) SetAboutBanners(ctx context.Context, v []entity.Banner) error {
	return r.refreshed(ctx, r.store.SetAboutBanners(ctx, v))
}

func (r *Runtime) SetServiceBanners(ctx context.Context, v []entity.Banner) error {
	return r.refreshed(ctx, r.store.SetServiceBanners(ctx, v))
}

func (r *Runtime) SetContactBanners(ctx context.Context, v []entity.Banner) error {
	return r.refreshed(ctx, r.store.SetContactBanners(ctx, v))
}

func (r *Runtime) SetCasesBanners(ctx context.Context, v []entity.Banner) error {
	return r.refreshed(ctx, r.store.SetCasesBanners(ctx, v))
}

func (r *Runtime) SetCompanyInfo(ctx context.Context, v entity.CompanyInfo) error {
	return r.refreshed(ctx, r.store.SetCompanyInfo(ctx, v))
}

func (r *Runtime) SetSolutions(ctx context.Context, v []entity.Solution) error {
	return r.refreshed(ctx, r.store.SetSolutions(ctx, v))
}

func (r *Runtime) SetServices(ctx context.Context, v []entity.Service) error {
	return r.refreshed(ctx, r.store.SetServices(ctx, v))
}

func (r *Runtime) SetServiceDetails(ctx context.Context, v map[string]entity.ServiceDetail) error {
	return r.refreshed(ctx, r.store.SetServiceDetails(ctx, v))
}

func (r *Runtime) SetHomePage(ctx context.Context, v entity.HomePage) error {
	return r.refreshed(ctx, r.store.SetHomePage(ctx, v))
}

func (r *Runtime) SetAboutPage(ctx context.Context, v entity.AboutPage) error {
	return r.refreshed(ctx, r.store.SetAboutPage(ctx, v))
}

func (r *Runtime) SetServicePage(ctx context.Context, v entity.ServicePage) error {
	return r.refreshed(ctx, r.store.SetServicePage(ctx, v))
}

func (r *Runtime) SetCustomerCases(ctx context.Context, v []entity.CustomerCase) error {
	return r.refreshed(ctx, r.store.SetCustomerCases(ctx, v))
}
