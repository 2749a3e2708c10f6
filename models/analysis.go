package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnalysisStatus bildet den Lebenszyklus einer Analyse ab.
// Übergänge sind strikt vorwärts gerichtet, siehe CanTransition.
type AnalysisStatus string

const (
	StatusPending    AnalysisStatus = "pending"
	StatusCollecting AnalysisStatus = "collecting"
	StatusAnalyzing  AnalysisStatus = "analyzing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// validTransitions enthält alle erlaubten Statusübergänge.
var validTransitions = map[AnalysisStatus][]AnalysisStatus{
	StatusPending:    {StatusCollecting},
	StatusCollecting: {StatusAnalyzing, StatusFailed},
	StatusAnalyzing:  {StatusCompleted, StatusFailed},
	// completed und failed sind terminal.
	StatusCompleted: {},
	StatusFailed:    {},
}

// CanTransition prüft, ob der Übergang from -> to erlaubt ist.
func (s AnalysisStatus) CanTransition(to AnalysisStatus) bool {
	for _, next := range validTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal meldet, ob der Status ein Endzustand ist.
func (s AnalysisStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Analysis repräsentiert eine vom Nutzer eingereichte Geschäftsanalyse
// inklusive aller abgeleiteten und generierten Daten.
type Analysis struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OwnerID uint `json:"owner_id" gorm:"index"`

	// Eingabefelder, nach dem Anlegen unveränderlich
	BusinessName string `json:"business_name" gorm:"not null"`
	WebsiteURL   string `json:"website_url,omitempty"`
	Location     string `json:"location" gorm:"not null"`
	Industry     string `json:"industry,omitempty"`

	Status        AnalysisStatus `json:"status" gorm:"index;default:'pending'"`
	FailureReason string         `json:"failure_reason,omitempty"`

	// SEO-Messwerte der eigenen Website (null bis zur Collecting-Stage)
	SeoScore        *int           `json:"seo_score,omitempty"`
	MetaTitle       *string        `json:"meta_title,omitempty"`
	MetaDescription *string        `json:"meta_description,omitempty"`
	Headings        datatypes.JSON `json:"headings,omitempty" gorm:"type:jsonb"`
	WordCount       *int           `json:"word_count,omitempty"`
	TopKeywords     datatypes.JSON `json:"top_keywords,omitempty" gorm:"type:jsonb"`
	SeoIssues       datatypes.JSON `json:"seo_issues,omitempty" gorm:"type:jsonb"`

	// Online-Präsenz
	HasMapListing   *bool          `json:"has_map_listing,omitempty"`
	GoogleRating    *float64       `json:"google_rating,omitempty"`
	ReviewCount     *int           `json:"review_count,omitempty"`
	SocialProfiles  datatypes.JSON `json:"social_profiles,omitempty" gorm:"type:jsonb"`
	PrimaryCategory *string        `json:"primary_category,omitempty"`

	// Strukturierte AI-Analyse
	OverallAnalysis string         `json:"overall_analysis,omitempty" gorm:"type:text"`
	Strengths       datatypes.JSON `json:"strengths,omitempty" gorm:"type:jsonb"`
	Weaknesses      datatypes.JSON `json:"weaknesses,omitempty" gorm:"type:jsonb"`
	Opportunities   datatypes.JSON `json:"opportunities,omitempty" gorm:"type:jsonb"`
	Recommendations datatypes.JSON `json:"recommendations,omitempty" gorm:"type:jsonb"`

	// Generierter Content
	BlogPost string         `json:"blog_post,omitempty" gorm:"type:text"`
	AdCopy   datatypes.JSON `json:"ad_copy,omitempty" gorm:"type:jsonb"`

	// Wird ausschließlich beim Übergang nach completed gesetzt.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Analysis) TableName() string {
	return "analyses"
}
