// Package scoring implements the relevance scoring used by the matcher.
//
// Two scorers live here: the keyword scorer driving the bulk notification
// pass (substring matching over title + company, bounded [0,1]), and the
// richer profile scorer behind the interactive recommendations endpoint.
package scoring

import (
	"strings"
	"time"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
)

// Weights holds the tunable constants of the keyword scorer. The values are
// product decisions, not derived invariants, so they are configuration rather
// than hard-coded.
type Weights struct {
	Title     float64 // bonus weight for keywords found in the title
	Company   float64 // bonus weight for keywords found in the company name
	Recency   float64 // bonus weight for postings younger than 24h
	Threshold float64 // minimum relevance for a pair to qualify
}

// DefaultWeights returns the production defaults.
func DefaultWeights() Weights {
	return Weights{
		Title:     0.3,
		Company:   0.1,
		Recency:   0.1,
		Threshold: 0.10,
	}
}

const recencyWindow = 24 * time.Hour

// Score evaluates job against subscription keywords and returns the matched
// keywords plus a relevance in [0,1].
//
// Matching text is title + company, lowercased; a keyword matches when it
// appears as a case-insensitive substring. The base score matched/total is
// raised by title, company and recency bonuses and clamped to 1.0.
//
// Pure and deterministic: identical (job, keywords, now) inputs always yield
// the identical result, which is what makes repeated full-feed scans
// idempotent. now is passed in rather than read from the clock so a whole
// pass scores against one instant.
func (w Weights) Score(job model.JobPosting, keywords []string, now time.Time) ([]string, float64) {
	if len(keywords) == 0 {
		return nil, 0
	}

	title := strings.ToLower(job.Title)
	company := strings.ToLower(job.Company)
	text := title + " " + company

	var matched []string
	var titleHits, companyHits int
	for _, kw := range keywords {
		k := strings.ToLower(kw)
		if k == "" || !strings.Contains(text, k) {
			continue
		}
		matched = append(matched, k)
		if strings.Contains(title, k) {
			titleHits++
		}
		if strings.Contains(company, k) {
			companyHits++
		}
	}
	if len(matched) == 0 {
		return nil, 0
	}

	relevance := float64(len(matched)) / float64(len(keywords))
	relevance += w.Title * float64(titleHits) / float64(len(matched))
	relevance += w.Company * float64(companyHits) / float64(len(matched))

	if age := now.Sub(job.CreatedAt); age >= 0 && age < recencyWindow {
		relevance += w.Recency * (recencyWindow - age).Hours() / recencyWindow.Hours()
	}

	if relevance > 1 {
		relevance = 1
	}
	if relevance < 0 {
		relevance = 0
	}
	return matched, relevance
}

// Qualifies reports whether a scored pair clears the notification threshold:
// at least one matched keyword and relevance >= Threshold.
func (w Weights) Qualifies(matched []string, relevance float64) bool {
	return len(matched) > 0 && relevance >= w.Threshold
}
