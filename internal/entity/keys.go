package entity

// Name identifies a content collection. It doubles as the collection's
// field name in a state snapshot.
type Name string

const (
	Products        Name = "products"
	ProductBanners  Name = "productBanners"
	SolutionBanners Name = "solutionBanners"
	AboutBanners    Name = "aboutBanners"
	ServiceBanners  Name = "serviceBanners"
	ContactBanners  Name = "contactBanners"
	CasesBanners    Name = "casesBanners"
	Company         Name = "companyInfo"
	Solutions       Name = "solutions"
	Services        Name = "services"
	ServiceDetails  Name = "serviceDetails"
	HomePageData    Name = "homePageData"
	AboutData       Name = "aboutData"
	ServicePageData Name = "servicePageData"
	CustomerCases   Name = "customerCases"

	// operator-only, never published
	Messages      Name = "messages"
	AdminPassword Name = "adminPassword"
)

// KeyPrefix namespaces every storage slot owned by the site.
const KeyPrefix = "xelns_ultra_"

// Scalar slots outside the snapshot.
const (
	AdminSessionKey = KeyPrefix + "admin_session"
	PublishedIDKey  = KeyPrefix + "published_id"
)

// Publishable lists the collections allowed in a public bundle or the
// remote store, in snapshot order.
var Publishable = []Name{
	Products,
	ProductBanners,
	SolutionBanners,
	AboutBanners,
	ServiceBanners,
	ContactBanners,
	CasesBanners,
	Company,
	Solutions,
	Services,
	ServiceDetails,
	HomePageData,
	AboutData,
	ServicePageData,
	CustomerCases,
}

var storageKeys = map[Name]string{
	Products:        KeyPrefix + "products",
	ProductBanners:  KeyPrefix + "banners_product",
	SolutionBanners: KeyPrefix + "banners_solution",
	AboutBanners:    KeyPrefix + "banners_about",
	ServiceBanners:  KeyPrefix + "banners_service",
	ContactBanners:  KeyPrefix + "banners_contact",
	CasesBanners:    KeyPrefix + "banners_cases",
	Company:         KeyPrefix + "company_info",
	Solutions:       KeyPrefix + "solutions",
	Services:        KeyPrefix + "services",
	ServiceDetails:  KeyPrefix + "service_details",
	HomePageData:    KeyPrefix + "home_data",
	AboutData:       KeyPrefix + "about_data",
	ServicePageData: KeyPrefix + "service_page_data",
	CustomerCases:   KeyPrefix + "customer_cases",
	Messages:        KeyPrefix + "messages",
	AdminPassword:   KeyPrefix + "admin_pwd",
}

// StorageKey returns the slot the collection is persisted under, or "" for
// an unknown name.
func (n Name) StorageKey() string { return storageKeys[n] }

// IsPublishable reports whether n may appear in a public bundle.
func (n Name) IsPublishable() bool {
	for _, p := range Publishable {
		if p == n {
			return true
		}
	}
	return false
}

// PublishKeyMap maps every publishable snapshot field to its storage key.
func PublishKeyMap() map[string]string {
	out := make(map[string]string, len(Publishable))
	for _, n := range Publishable {
		out[string(n)] = n.StorageKey()
	}
	return out
}
