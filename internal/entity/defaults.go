package entity

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultAdminPassword is accepted until the operator saves a password of their own.
const DefaultAdminPassword = "xelns-admin"

//go:embed defaults.json
var defaultsJSON []byte

// Defaults holds the built-in value of every publishable collection.
type Defaults struct {
	Products        []Product                `json:"products"`
	ProductBanners  []Banner                 `json:"productBanners"`
	SolutionBanners []Banner                 `json:"solutionBanners"`
	AboutBanners    []Banner                 `json:"aboutBanners"`
	ServiceBanners  []Banner                 `json:"serviceBanners"`
	ContactBanners  []Banner                 `json:"contactBanners"`
	CasesBanners    []Banner                 `json:"casesBanners"`
	CompanyInfo     CompanyInfo              `json:"companyInfo"`
	Solutions       []Solution               `json:"solutions"`
	Services        []Service                `json:"services"`
	ServiceDetails  map[string]ServiceDetail `json:"serviceDetails"`
	HomePage        HomePage                 `json:"homePageData"`
	AboutPage       AboutPage                `json:"aboutData"`
	ServicePage     ServicePage              `json:"servicePageData"`
	CustomerCases   []CustomerCase           `json:"customerCases"`
}

// LoadDefaults decodes a fresh copy of the built-in content. Callers may
// mutate the result freely.
func LoadDefaults() Defaults {
	var d Defaults
	if err := json.Unmarshal(defaultsJSON, &d); err != nil {
		// embedded at build time, a decode failure is a packaging bug
		panic(fmt.Errorf("entity: decode defaults: %w", err))
	}
	if d.CompanyInfo.Copyright == "" {
		d.CompanyInfo.Copyright = fmt.Sprintf("© %d %s. All rights reserved.", time.Now().Year(), d.CompanyInfo.Name)
	}
	return d
}
