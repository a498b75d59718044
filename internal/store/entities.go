package store

import (
	"context"

	"github.com/xelns/xelns-web/internal/entity"
)

// getEntity returns the stored collection or the value pick selects from the
// built-in defaults. Defaults are decoded only on a miss.
func getEntity[T any](ctx context.Context, s *Store, name entity.Name, pick func(entity.Defaults) T) T {
	if v, ok := lookup[T](ctx, s, name.StorageKey()); ok {
		return v
	}
	return pick(entity.LoadDefaults())
}

func (s *Store) Products(ctx context.Context) []entity.Product {
	return getEntity(ctx, s, entity.Products, func(d entity.Defaults) []entity.Product { return d.Products })
}

func (s *Store) SetProducts(ctx context.Context, v []entity.Product) error {
	return s.setEntity(ctx, entity.Products, v)
}

func (s *Store) ProductBanners(ctx context.Context) []entity.Banner {
	return getEntity(ctx, s, entity.ProductBanners, func(d entity.Defaults) []entity.Banner { return d.ProductBanners })
}

func (s *Store) SetProductBanners(ctx context.Context, v []entity.Banner) error {
	return s.setEntity(ctx, entity.ProductBanners, v)
}

func (s *Store) SolutionBanners(ctx context.Context) []entity.Banner {
	return getEntity(ctx, s, entity.SolutionBanners, func(d entity.Defaults) []entity.Banner { return d.SolutionBanners })
}

func (s *Store) SetSolutionBanners(ctx context.Context, v []entity.Banner) error {
	return s.setEntity(ctx, entity.SolutionBanners, v)
}

func (s *Store) AboutBanners(ctx context.Context) []entity.Banner {
	return getEntity(ctx, s, entity.AboutBanners, func(d entity.Defaults) []entity.Banner { return d.AboutBanners })
}

func (s *Store) SetAboutBanners(ctx context.Context, v []entity.Banner) error {
	return s.setEntity(ctx, entity.AboutBanners, v)
}

func (s *Store) ServiceBanners(ctx context.Context) []entity.Banner {
	return getEntity(ctx, s, entity.ServiceBanners, func(d entity.Defaults) []entity.Banner { return d.ServiceBanners })
}

func (s *Store) SetServiceBanners(ctx context.Context, v []entity.Banner) error {
	return s.setEntity(ctx, entity.ServiceBanners, v)
}

func (s *Store) ContactBanners(ctx context.Context) []entity.Banner {
	return getEntity(ctx, s, entity.ContactBanners, func(d entity.Defaults) []entity.Banner { return d.ContactBanners })
}

func (s *Store) SetContactBanners(ctx context.Context, v []entity.Banner) error {
	return s.setEntity(ctx, entity.ContactBanners, v)
}

func (s *Store) CasesBanners(ctx context.Context) []entity.Banner {
	return getEntity(ctx, s, entity.CasesBanners, func(d entity.Defaults) []entity.Banner { return d.CasesBanners })
}

func (s *Store) SetCasesBanners(ctx context.Context, v []entity.Banner) error {
	return s.setEntity(ctx, entity.CasesBanners, v)
}

func (s *Store) CompanyInfo(ctx context.Context) entity.CompanyInfo {
	return getEntity(ctx, s, entity.Company, func(d entity.Defaults) entity.CompanyInfo { return d.CompanyInfo })
}

func (s *Store) SetCompanyInfo(ctx context.Context, v entity.CompanyInfo) error {
	return s.setEntity(ctx, entity.Company, v)
}

func (s *Store) Solutions(ctx context.Context) []entity.Solution {
	return getEntity(ctx, s, entity.Solutions, func(d entity.Defaults) []entity.Solution { return d.Solutions })
}

func (s *Store) SetSolutions(ctx context.Context, v []entity.Solution) error {
	return s.setEntity(ctx, entity.Solutions, v)
}

func (s *Store) Services(ctx context.Context) []entity.Service {
	return getEntity(ctx, s, entity.Services, func(d entity.Defaults) []entity.Service { return d.Services })
}

func (s *Store) SetServices(ctx context.Context, v []entity.Service) error {
	return s.setEntity(ctx, entity.Services, v)
}

func (s *Store) ServiceDetails(ctx context.Context) map[string]entity.ServiceDetail {
	return getEntity(ctx, s, entity.ServiceDetails, func(d entity.Defaults) map[string]entity.ServiceDetail { return d.ServiceDetails })
}

func (s *Store) SetServiceDetails(ctx context.Context, v map[string]entity.ServiceDetail) error {
	return s.setEntity(ctx, entity.ServiceDetails, v)
}

func (s *Store) HomePage(ctx context.Context) entity.HomePage {
	return getEntity(ctx, s, entity.HomePageData, func(d entity.Defaults) entity.HomePage { return d.HomePage })
}

func (s *Store) SetHomePage(ctx context.Context, v entity.HomePage) error {
	return s.setEntity(ctx, entity.HomePageData, v)
}

func (s *Store) AboutPage(ctx context.Context) entity.AboutPage {
	return getEntity(ctx, s, entity.AboutData, func(d entity.Defaults) entity.AboutPage { return d.AboutPage })
}

func (s *Store) SetAboutPage(ctx context.Context, v entity.AboutPage) error {
	return s.setEntity(ctx, entity.AboutData, v)
}

func (s *Store) ServicePage(ctx context.Context) entity.ServicePage {
	return getEntity(ctx, s, entity.ServicePageData, func(d entity.Defaults) entity.ServicePage { return d.ServicePage })
}

func (s *Store) SetServicePage(ctx context.Context, v entity.ServicePage) error {
	return s.setEntity(ctx, entity.ServicePageData, v)
}

func (s *Store) CustomerCases(ctx context.Context) []entity.CustomerCase {
	return getEntity(ctx, s, entity.CustomerCases, func(d entity.Defaults) []entity.CustomerCase { return d.CustomerCases })
}

func (s *Store) SetCustomerCases(ctx context.Context, v []entity.CustomerCase) error {
	return s.setEntity(ctx, entity.CustomerCases, v)
}
