package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
)

// Field weights: the maximum points a single keyword can earn per field
// before the relevance multiplier is applied.
const (
	fieldWeightTitle        = 40.0
	fieldWeightRequirements = 30.0
	fieldWeightDescription  = 20.0
	fieldWeightCompany      = 10.0

	maxMultiplier = 2.0 // relevance multiplier cap per field

	maxFuzzy   = 1.0 // fuzzy partial-match bonus cap
	fuzzyScale = 5.0 // points per unit of fuzzy bonus

	synonymCredit = 0.5 // fraction of the field weight a synonym hit earns

	breadthPerKeyword = 5.0
	maxBreadthBonus   = 20.0
)

// synonyms is a closed, hand-maintained expansion table. A keyword also
// counts (at reduced credit) when one of its synonyms appears in a field.
// This is deliberately not an NLP model.
var synonyms = map[string][]string{
	"python":     {"django", "fastapi", "flask"},
	"javascript": {"typescript", "node", "react"},
	"go":         {"golang"},
	"docker":     {"containerization", "kubernetes"},
	"sql":        {"postgresql", "mysql"},
	"aws":        {"amazon web services", "ec2", "s3"},
	"ml":         {"machine learning", "deep learning"},
}

// Detail is the full scoring explanation for one job, as returned by the
// recommendations endpoint.
type Detail struct {
	Score           float64            `json:"score"` // 0–100
	MatchedKeywords []string           `json:"matchedKeywords"`
	Reasons         []string           `json:"reasons"`
	Breakdown       map[string]float64 `json:"breakdown"` // keyword → raw points
}

// ProfileScorer ranks jobs for the interactive recommendations path. Unlike
// the keyword scorer it looks at four weighted fields and rewards exact
// word-boundary matches, repetition and early position. Missing fields
// (description, requirements) simply contribute zero.
type ProfileScorer struct{}

// NewProfileScorer returns a ProfileScorer.
func NewProfileScorer() *ProfileScorer { return &ProfileScorer{} }

type scoredField struct {
	name   string
	text   string
	weight float64
}

// Score evaluates job against keywords and returns a 0–100 score with a
// per-keyword breakdown and human-readable reasons. Deterministic.
func (p *ProfileScorer) Score(job model.JobPosting, keywords []string) Detail {
	detail := Detail{Breakdown: make(map[string]float64)}
	kws := model.NormalizeKeywords(keywords)
	if len(kws) == 0 {
		return detail
	}

	fields := []scoredField{
		{"title", strings.ToLower(job.Title), fieldWeightTitle},
		{"requirements", strings.ToLower(job.Requirements), fieldWeightRequirements},
		{"description", strings.ToLower(job.Description), fieldWeightDescription},
		{"company", strings.ToLower(job.Company), fieldWeightCompany},
	}

	var total float64
	for _, kw := range kws {
		points, reasons := scoreKeyword(fields, kw)
		if points <= 0 {
			continue
		}
		total += points
		detail.Breakdown[kw] = math.Round(points*100) / 100
		detail.MatchedKeywords = append(detail.MatchedKeywords, kw)
		detail.Reasons = append(detail.Reasons, reasons...)
	}

	if len(detail.MatchedKeywords) == 0 {
		return detail
	}

	// Normalise against the theoretical per-keyword budget of 100 points,
	// then reward breadth of matched keywords with a capped bonus.
	normalized := total / (float64(len(kws)) * 100) * 100
	breadth := math.Min(maxBreadthBonus, breadthPerKeyword*float64(len(detail.MatchedKeywords)))
	detail.Score = math.Round(math.Min(100, normalized+breadth)*100) / 100
	sort.Strings(detail.Reasons)
	return detail
}

// scoreKeyword computes the raw points one keyword earns across all fields.
func scoreKeyword(fields []scoredField, kw string) (float64, []string) {
	var points float64
	var reasons []string
	direct := false

	for _, f := range fields {
		if f.text == "" {
			continue
		}
		if m := relevanceMultiplier(f.text, kw); m > 0 {
			points += f.weight * m
			reasons = append(reasons, fmt.Sprintf("%q found in %s", kw, f.name))
			direct = true
			continue
		}
		if syn := synonymHit(f.text, kw); syn != "" {
			points += f.weight * synonymCredit
			reasons = append(reasons, fmt.Sprintf("%q matched via synonym %q in %s", kw, syn, f.name))
		}
	}

	// Fuzzy credit only when no field contained the keyword outright.
	if !direct {
		best := 0.0
		for _, f := range fields {
			if fz := fuzzyMatch(f.text, kw); fz > best {
				best = fz
			}
		}
		if best > 0 {
			points += math.Min(best, maxFuzzy) * fuzzyScale
			reasons = append(reasons, fmt.Sprintf("%q partially matched", kw))
		}
	}
	return points, reasons
}

// relevanceMultiplier returns 0 when kw is absent from text, otherwise a
// multiplier in (0, maxMultiplier] built from:
//   - 1.0 base for a substring hit
//   - +0.5 when the hit sits on word boundaries (exact word)
//   - up to +0.4 for repeated occurrences, diminishing
//   - up to +0.3 for an early first occurrence
func relevanceMultiplier(text, kw string) float64 {
	idx := strings.Index(text, kw)
	if idx < 0 {
		return 0
	}

	m := 1.0
	if hasWordBoundaryMatch(text, kw) {
		m += 0.5
	}
	if count := strings.Count(text, kw); count > 1 {
		m += 0.2 * math.Min(float64(count-1), 2)
	}
	m += 0.3 * (1 - float64(idx)/float64(len(text)))

	return math.Min(m, maxMultiplier)
}

// hasWordBoundaryMatch reports whether kw occurs in text delimited by
// non-alphanumeric runes (or the ends of the string) on both sides.
func hasWordBoundaryMatch(text, kw string) bool {
	for from := 0; ; {
		idx := strings.Index(text[from:], kw)
		if idx < 0 {
			return false
		}
		idx += from
		before := idx == 0 || isBoundary(rune(text[idx-1]))
		afterPos := idx + len(kw)
		after := afterPos >= len(text) || isBoundary(rune(text[afterPos]))
		if before && after {
			return true
		}
		from = idx + 1
	}
}

func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// synonymHit returns the first synonym of kw present in text on a word
// boundary, or "".
func synonymHit(text, kw string) string {
	for _, syn := range synonyms[kw] {
		if hasWordBoundaryMatch(text, syn) {
			return syn
		}
	}
	return ""
}

// fuzzyMatch returns a bounded [0,1] credit when a long-enough prefix of kw
// appears in text, e.g. "kubernete" for "kubernetes". Keywords shorter than
// five runes get no fuzzy credit, too noisy.
func fuzzyMatch(text, kw string) float64 {
	if text == "" || len(kw) < 5 {
		return 0
	}
	minLen := len(kw) * 3 / 5
	if minLen < 4 {
		minLen = 4
	}
	for n := len(kw) - 1; n >= minLen; n-- {
		if strings.Contains(text, kw[:n]) {
			return float64(n) / float64(len(kw))
		}
	}
	return 0
}
