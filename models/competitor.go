package models

import (
	"time"

	"gorm.io/datatypes"
)

// ThreatLevel ist die grobe Einstufung eines Konkurrenten.
type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "low"
	ThreatMedium ThreatLevel = "medium"
	ThreatHigh   ThreatLevel = "high"
)

// Competitor repräsentiert einen entdeckten Konkurrenten. Jeder Datensatz
// gehört zu genau einer Analyse und wird nach dem Anlegen nicht mehr
// verändert.
type Competitor struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AnalysisID uint `json:"analysis_id" gorm:"index;not null"`

	// Identität aus der Places-Suche
	PlaceID string `json:"place_id" gorm:"index"`
	Name    string `json:"name" gorm:"not null"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`

	GoogleRating *float64 `json:"google_rating,omitempty"`
	ReviewCount  *int     `json:"review_count,omitempty"`

	// SEO-Messwerte der Konkurrenz-Website, best effort
	SeoScore        *int           `json:"seo_score,omitempty"`
	MetaTitle       *string        `json:"meta_title,omitempty"`
	MetaDescription *string        `json:"meta_description,omitempty"`
	Headings        datatypes.JSON `json:"headings,omitempty" gorm:"type:jsonb"`
	WordCount       *int           `json:"word_count,omitempty"`
	TopKeywords     datatypes.JSON `json:"top_keywords,omitempty" gorm:"type:jsonb"`

	// Anreicherung, best effort
	EmployeeEstimate *int           `json:"employee_estimate,omitempty"`
	FundingInfo      string         `json:"funding_info,omitempty"`
	TechStack        datatypes.JSON `json:"tech_stack,omitempty" gorm:"type:jsonb"`
	RecentNews       datatypes.JSON `json:"recent_news,omitempty" gorm:"type:jsonb"`

	// Deterministisch aus den obigen Feldern abgeleitet
	CompetitiveScore int         `json:"competitive_score"`
	ThreatLevel      ThreatLevel `json:"threat_level" gorm:"index"`
}

// TableName gibt explizit den Tabellennamen an.
func (Competitor) TableName() string {
	return "competitors"
}
