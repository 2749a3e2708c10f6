package models

// SwotItem ist ein einzelner Punkt der Stärken/Schwächen/Chancen-Listen.
type SwotItem struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// Recommendation ist eine Handlungsempfehlung aus der AI-Analyse.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	ActionPlan  string `json:"action_plan"`
}

// InsightReport bündelt die strukturierte AI-Analyse.
type InsightReport struct {
	OverallAnalysis  string           `json:"overall_analysis"`
	Strengths        []SwotItem       `json:"strengths"`
	Weaknesses       []SwotItem       `json:"weaknesses"`
	Opportunities    []SwotItem       `json:"opportunities"`
	Recommendations  []Recommendation `json:"recommendations"`
	DetectedIndustry string           `json:"detected_industry,omitempty"`
}

// AdVariant ist eine generierte Anzeigen-Variante.
type AdVariant struct {
	Headline     string `json:"headline"`
	Description  string `json:"description"`
	CallToAction string `json:"callToAction"`
	Platform     string `json:"platform"`
}
