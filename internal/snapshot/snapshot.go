// Package snapshot is the wire and file form of the aggregate content state.
//
// A Snapshot carries one optional field per content collection. A nil field
// means "absent": importing leaves that collection untouched. The codec does
// no I/O of its own.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/xerrors"
)

// StampField is the reserved field carrying the Publish Stamp.
const StampField = "__publishedId"

// StampLayout formats a Publish Stamp as an ISO-8601 UTC timestamp with
// millisecond precision.
const StampLayout = "2006-01-02T15:04:05.000Z"

var ErrMalformed = errors.New("snapshot: malformed document")

type Snapshot struct {
	Products        *[]entity.Product                `json:"products,omitempty"`
	ProductBanners  *[]entity.Banner                 `json:"productBanners,omitempty"`
	SolutionBanners *[]entity.Banner                 `json:"solutionBanners,omitempty"`
	AboutBanners    *[]entity.Banner                 `json:"aboutBanners,omitempty"`
	ServiceBanners  *[]entity.Banner                 `json:"serviceBanners,omitempty"`
	ContactBanners  *[]entity.Banner                 `json:"contactBanners,omitempty"`
	CasesBanners    *[]entity.Banner                 `json:"casesBanners,omitempty"`
	CompanyInfo     *entity.CompanyInfo              `json:"companyInfo,omitempty"`
	Solutions       *[]entity.Solution               `json:"solutions,omitempty"`
	Services        *[]entity.Service                `json:"services,omitempty"`
	ServiceDetails  *map[string]entity.ServiceDetail `json:"serviceDetails,omitempty"`
	HomePageData    *entity.HomePage                 `json:"homePageData,omitempty"`
	AboutData       *entity.AboutPage                `json:"aboutData,omitempty"`
	ServicePageData *entity.ServicePage              `json:"servicePageData,omitempty"`
	CustomerCases   *[]entity.CustomerCase           `json:"customerCases,omitempty"`

	Messages      *[]entity.ContactMessage `json:"messages,omitempty"`
	AdminPassword *string                  `json:"adminPassword,omitempty"`

	PublishedID string `json:"__publishedId,omitempty"`
}

// Entry is one present collection of a snapshot.
type Entry struct {
	Name  entity.Name
	Value any
}

// NewStamp formats t as a Publish Stamp.
func NewStamp(t time.Time) string { return t.UTC().Format(StampLayout) }

// Decode parses raw into a Snapshot. The document must be a JSON object and
// every known field must match its collection's shape; a single mismatch
// rejects the whole document. Unknown fields are ignored and null counts as
// absent.
func Decode(raw []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, xerrors.WithStack(ErrMalformed)
	}
	var s Snapshot
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, xerrors.Wrapf(ErrMalformed, "decode: %v", err)
	}
	return &s, nil
}

// Encode renders s in its compact wire form.
func Encode(s *Snapshot) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, xerrors.Wrap(err, "encode snapshot")
	}
	return b, nil
}

// EncodeIndent renders s with two-space indentation for files meant to be read
// by people.
func EncodeIndent(s *Snapshot) ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, xerrors.Wrap(err, "encode snapshot")
	}
	return b, nil
}

// Sanitize returns a copy holding only the publishable collections and the
// stamp. Messages and the admin credential never survive.
func (s *Snapshot) Sanitize() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}
	out := *s
	out.Messages = nil
	out.AdminPassword = nil
	return &out
}

// Empty reports whether no collection is present.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Entries()) == 0
}

// Entries lists the present collections in a stable order: publishable ones
// first, then messages and the admin credential.
func (s *Snapshot) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, 0, len(entity.Publishable)+2)
	add := func(n entity.Name, present bool, v any) {
		if present {
			out = append(out, Entry{Name: n, Value: v})
		}
	}
	add(entity.Products, s.Products != nil, deref(s.Products))
	add(entity.ProductBanners, s.ProductBanners != nil, deref(s.ProductBanners))
	add(entity.SolutionBanners, s.SolutionBanners != nil, deref(s.SolutionBanners))
	add(entity.AboutBanners, s.AboutBanners != nil, deref(s.AboutBanners))
	add(entity.ServiceBanners, s.ServiceBanners != nil, deref(s.ServiceBanners))
	add(entity.ContactBanners, s.ContactBanners != nil, deref(s.ContactBanners))
	add(entity.CasesBanners, s.CasesBanners != nil, deref(s.CasesBanners))
	add(entity.Company, s.CompanyInfo != nil, deref(s.CompanyInfo))
	add(entity.Solutions, s.Solutions != nil, deref(s.Solutions))
	add(entity.Services, s.Services != nil, deref(s.Services))
	add(entity.ServiceDetails, s.ServiceDetails != nil, deref(s.ServiceDetails))
	add(entity.HomePageData, s.HomePageData != nil, deref(s.HomePageData))
	add(entity.AboutData, s.AboutData != nil, deref(s.AboutData))
	add(entity.ServicePageData, s.ServicePageData != nil, deref(s.ServicePageData))
	add(entity.CustomerCases, s.CustomerCases != nil, deref(s.CustomerCases))
	add(entity.Messages, s.Messages != nil, deref(s.Messages))
	add(entity.AdminPassword, s.AdminPassword != nil, deref(s.AdminPassword))
	return out
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Ptr is a small helper for building snapshots in code.
func Ptr[T any](v T) *T { return &v }
