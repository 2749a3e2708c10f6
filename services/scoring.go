package services

import (
	"math"

	"bizradar/models"
)

// CompetitiveScore berechnet den Konkurrenz-Score als reine Funktion der
// vier Eingaben. Fehlende Werte tragen 0 Punkte bei. Die Konstanten sind
// bewusst eine auditierbare Heuristik, kein statistisches Modell.
func CompetitiveScore(seoScore *int, rating *float64, reviewCount *int, hasWebsite bool) int {
	score := 50.0 // Basis

	if seoScore != nil {
		score += math.Min(float64(*seoScore)/2, 25)
	}
	if rating != nil {
		score += (*rating - 3) * 10
	}
	if reviewCount != nil {
		score += math.Min(float64(*reviewCount)/10, 15)
	}
	if hasWebsite {
		score += 5
	}

	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

// ThreatLevelFor leitet die Bedrohungsstufe als Schwellwert vom Score ab.
func ThreatLevelFor(score int) models.ThreatLevel {
	switch {
	case score >= 75:
		return models.ThreatHigh
	case score >= 50:
		return models.ThreatMedium
	default:
		return models.ThreatLow
	}
}
