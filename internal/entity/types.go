package entity

type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Images      []string `json:"images,omitempty"`
	Features    []string `json:"features"`
	Details     string   `json:"details,omitempty"`
}

type Service struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IconName    string `json:"iconName"`
}

type Solution struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Desc      string `json:"desc"`
	IconName  string `json:"iconName"`
	Content   string `json:"content"`
	Image     string `json:"image,omitempty"`
	Pinned    bool   `json:"pinned,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

type CustomerCase struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Desc       string `json:"desc"`
	Image      string `json:"image"`
	Content    string `json:"content"`
	ButtonText string `json:"buttonText,omitempty"`
	ButtonURL  string `json:"buttonUrl,omitempty"`
	Pinned     bool   `json:"pinned,omitempty"`
	CreatedAt  int64  `json:"createdAt,omitempty"`
}

type Banner struct {
	ID       string `json:"id"`
	Image    string `json:"image"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
}

// ServiceTabType selects how a service detail tab is rendered.
type ServiceTabType string

const (
	TabVideoList    ServiceTabType = "video_list"
	TabFAQList      ServiceTabType = "faq_list"
	TabDownloadList ServiceTabType = "download_list"
	TabRichText     ServiceTabType = "rich_text"
)

type ServiceDetailItem struct {
	Title   string `json:"title"`
	Desc    string `json:"desc,omitempty"`
	URL     string `json:"url,omitempty"`
	Date    string `json:"date,omitempty"`
	Size    string `json:"size,omitempty"`
	Content string `json:"content,omitempty"`
}

type ServiceTab struct {
	ID      string              `json:"id"`
	Label   string              `json:"label"`
	Type    ServiceTabType      `json:"type"`
	Items   []ServiceDetailItem `json:"items,omitempty"`
	Content string              `json:"content,omitempty"`
}

type ServiceDetail struct {
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle"`
	Tabs     []ServiceTab `json:"tabs"`
}

type HomePage struct {
	HeroTitle    string `json:"heroTitle"`
	HeroSubtitle string `json:"heroSubtitle"`
	HeroImage    string `json:"heroImage"`
	IntroTitle   string `json:"introTitle"`
	IntroText    string `json:"introText"`
	FactoryImage string `json:"factoryImage"`
}

type Stat struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Advantage struct {
	Title string `json:"title"`
	En    string `json:"en"`
	Desc  string `json:"desc"`
}

type GalleryImage struct {
	Image    string `json:"image"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
}

type CultureItem struct {
	KeyChar string `json:"keyChar,omitempty"`
	Title   string `json:"title"`
	Desc    string `json:"desc"`
}

type AboutPage struct {
	MissionTitle       string         `json:"missionTitle"`
	MissionSubtitle    string         `json:"missionSubtitle"`
	MissionText        string         `json:"missionText"`
	ProfileImage       string         `json:"profileImage"`
	Stats              []Stat         `json:"stats"`
	Advantages         []Advantage    `json:"advantages"`
	GalleryImages      []GalleryImage `json:"galleryImages"`
	CultureTitle       string         `json:"cultureTitle,omitempty"`
	CultureDescription string         `json:"cultureDescription,omitempty"`
	CultureItems       []CultureItem  `json:"cultureItems,omitempty"`
}

type ProcessStep struct {
	Step  int    `json:"step"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

type MaintenanceItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type ServicePage struct {
	ProcessTitle          string            `json:"processTitle"`
	ProcessSteps          []ProcessStep     `json:"processSteps"`
	MaintenanceTitle      string            `json:"maintenanceTitle"`
	MaintenanceItems      []MaintenanceItem `json:"maintenanceItems"`
	MaintenanceImage      string            `json:"maintenanceImage"`
	MaintenanceImageTitle string            `json:"maintenanceImageTitle"`
}

// CompanyInfo is the site-wide company profile shown in the header, footer and contact pages.
type CompanyInfo struct {
	Name             string   `json:"name"`
	NameEn           string   `json:"nameEn"`
	Address          string   `json:"address"`
	Tel              string   `json:"tel"`
	Mobile           string   `json:"mobile"`
	Email            string   `json:"email"`
	Website          string   `json:"website"`
	QQ               []string `json:"qq"`
	WechatQR         string   `json:"wechatQr"`
	Logo             string   `json:"logo"`
	MapImage         string   `json:"mapImage"`
	FooterIntro      string   `json:"footerIntro"`
	Copyright        string   `json:"copyright"`
	NameFontFamilyEn string   `json:"nameFontFamilyEn"`
	NameFontSizeEn   float64  `json:"nameFontSizeEn"`
	NameFontFamilyCn string   `json:"nameFontFamilyCn"`
	NameFontSizeCn   float64  `json:"nameFontSizeCn"`
	AboutContent     string   `json:"aboutContent"`
}

// ContactMessage is a visitor submission from the public contact form.
// Only the admin marks messages read or deletes them.
type ContactMessage struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Content string `json:"content"`
	Date    string `json:"date"`
	Read    bool   `json:"read"`
}
