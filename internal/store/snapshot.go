package store

import (
	"context"

	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/snapshot"
)

// ExportSnapshot reads every collection, the messages and the stored admin
// credential straight from the backend. Collections that were never written
// export their defaults. The credential is omitted until one is saved.
func (s *Store) ExportSnapshot(ctx context.Context) *snapshot.Snapshot {
	out := &snapshot.Snapshot{
		Products:        snapshot.Ptr(s.Products(ctx)),
		ProductBanners:  snapshot.Ptr(s.ProductBanners(ctx)),
		SolutionBanners: snapshot.Ptr(s.SolutionBanners(ctx)),
		AboutBanners:    snapshot.Ptr(s.AboutBanners(ctx)),
		ServiceBanners:  snapshot.Ptr(s.ServiceBanners(ctx)),
		ContactBanners:  snapshot.Ptr(s.ContactBanners(ctx)),
		CasesBanners:    snapshot.Ptr(s.CasesBanners(ctx)),
		CompanyInfo:     snapshot.Ptr(s.CompanyInfo(ctx)),
		Solutions:       snapshot.Ptr(s.Solutions(ctx)),
		Services:        snapshot.Ptr(s.Services(ctx)),
		ServiceDetails:  snapshot.Ptr(s.ServiceDetails(ctx)),
		HomePageData:    snapshot.Ptr(s.HomePage(ctx)),
		AboutData:       snapshot.Ptr(s.AboutPage(ctx)),
		ServicePageData: snapshot.Ptr(s.ServicePage(ctx)),
		CustomerCases:   snapshot.Ptr(s.CustomerCases(ctx)),
		Messages:        snapshot.Ptr(s.Messages(ctx)),
	}
	if pw, ok := lookup[string](ctx, s, entity.AdminPassword.StorageKey()); ok {
		out.AdminPassword = &pw
	}
	return out
}

// ImportSnapshot writes every collection present in snap to its slot and
// leaves the others untouched. It reports false for a nil snapshot or when a
// write fails; writes made before the failure are kept.
func (s *Store) ImportSnapshot(ctx context.Context, snap *snapshot.Snapshot) bool {
	if snap == nil {
		return false
	}
	for _, e := range snap.Entries() {
		if err := s.Set(ctx, e.Name.StorageKey(), e.Value); err != nil {
			s.logger.Error(ctx, err, "store: import aborted", "entity", string(e.Name))
			return false
		}
	}
	return true
}

// ImportJSON decodes raw and imports it. A malformed document is rejected
// before anything is written.
func (s *Store) ImportJSON(ctx context.Context, raw []byte) bool {
	snap, err := snapshot.Decode(raw)
	if err != nil {
		s.logger.Warn(ctx, "store: rejected malformed snapshot", "error", err.Error())
		return false
	}
	return s.ImportSnapshot(ctx, snap)
}

// ResetToDefaults overwrites every collection with its built-in default and
// clears the messages. The admin credential and session are kept.
func (s *Store) ResetToDefaults(ctx context.Context) error {
	d := entity.LoadDefaults()
	defaults := &snapshot.Snapshot{
		Products:        &d.Products,
		ProductBanners:  &d.ProductBanners,
		SolutionBanners: &d.SolutionBanners,
		AboutBanners:    &d.AboutBanners,
		ServiceBanners:  &d.ServiceBanners,
		ContactBanners:  &d.ContactBanners,
		CasesBanners:    &d.CasesBanners,
		CompanyInfo:     &d.CompanyInfo,
		Solutions:       &d.Solutions,
		Services:        &d.Services,
		ServiceDetails:  &d.ServiceDetails,
		HomePageData:    &d.HomePage,
		AboutData:       &d.AboutPage,
		ServicePageData: &d.ServicePage,
		CustomerCases:   &d.CustomerCases,
		Messages:        snapshot.Ptr([]entity.ContactMessage{}),
	}
	for _, e := range defaults.Entries() {
		if err := s.Set(ctx, e.Name.StorageKey(), e.Value); err != nil {
			return err
		}
	}
	return nil
}

// LastPublishedID returns the stamp of the last applied published snapshot,
// or "" if none was applied.
func (s *Store) LastPublishedID(ctx context.Context) string {
	return Get(ctx, s, entity.PublishedIDKey, "")
}

func (s *Store) SetLastPublishedID(ctx context.Context, id string) error {
	return s.Set(ctx, entity.PublishedIDKey, id)
}
