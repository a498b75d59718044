package workspace

import (
	"context"

	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/store"
)

// View is the cached, read-only copy of every collection that pages render
// from. It is replaced wholesale by Refresh.
type View struct {
	Products        []entity.Product
	ProductBanners  []entity.Banner
	SolutionBanners []entity.Banner
	AboutBanners    []entity.Banner
	ServiceBanners  []entity.Banner
	ContactBanners  []entity.Banner
	CasesBanners    []entity.Banner
	CompanyInfo     entity.CompanyInfo
	Solutions       []entity.Solution
	Services        []entity.Service
	ServiceDetails  map[string]entity.ServiceDetail
	HomePage        entity.HomePage
	AboutPage       entity.AboutPage
	ServicePage     entity.ServicePage
	CustomerCases   []entity.CustomerCase
	Messages        []entity.ContactMessage
}

func readView(ctx context.Context, s *store.Store) *View {
	return &View{
		Products:        s.Products(ctx),
		ProductBanners:  s.ProductBanners(ctx),
		SolutionBanners: s.SolutionBanners(ctx),
		AboutBanners:    s.AboutBanners(ctx),
		ServiceBanners:  s.ServiceBanners(ctx),
		ContactBanners:  s.ContactBanners(ctx),
		CasesBanners:    s.CasesBanners(ctx),
		CompanyInfo:     s.CompanyInfo(ctx),
		Solutions:       s.Solutions(ctx),
		Services:        s.Services(ctx),
		ServiceDetails:  s.ServiceDetails(ctx),
		HomePage:        s.HomePage(ctx),
		AboutPage:       s.AboutPage(ctx),
		ServicePage:     s.ServicePage(ctx),
		CustomerCases:   s.CustomerCases(ctx),
		Messages:        s.Messages(ctx),
	}
}
