package scoring_test

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/start-upps/birjobBackend-sub001/internal/model"
	"github.com/start-upps/birjobBackend-sub001/internal/scoring"
)

// now is fixed so every test scores against the same instant.
var now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

// oldJob returns a posting well outside the recency window.
func oldJob(title, company string) model.JobPosting {
	return model.JobPosting{
		ID:        "j1",
		Title:     title,
		Company:   company,
		Source:    "adzuna",
		CreatedAt: now.Add(-72 * time.Hour),
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ── Basic matching ─────────────────────────────────────────────────────────

func TestScore_TitleMatchesClampToOne(t *testing.T) {
	w := scoring.DefaultWeights()
	job := oldJob("Senior Python Developer", "Acme")

	matched, relevance := w.Score(job, []string{"python", "senior"}, now)

	if !reflect.DeepEqual(matched, []string{"python", "senior"}) {
		t.Errorf("matched = %v, want [python senior]", matched)
	}
	// Base 1.0 plus full title bonus exceeds 1.0 and must clamp.
	if relevance != 1.0 {
		t.Errorf("relevance = %v, want 1.0", relevance)
	}
}

func TestScore_NoMatch(t *testing.T) {
	w := scoring.DefaultWeights()
	job := oldJob("Data Entry Clerk", "Acme")

	matched, relevance := w.Score(job, []string{"python"}, now)

	if matched != nil {
		t.Errorf("matched = %v, want nil", matched)
	}
	if relevance != 0 {
		t.Errorf("relevance = %v, want 0", relevance)
	}
	if w.Qualifies(matched, relevance) {
		t.Error("pair with no matched keywords must not qualify")
	}
}

func TestScore_CaseInsensitive(t *testing.T) {
	w := scoring.DefaultWeights()
	job := oldJob("Python Developer", "ACME")

	matched, _ := w.Score(job, []string{"PYTHON", "acme"}, now)
	if len(matched) != 2 {
		t.Fatalf("matched = %v, want 2 keywords", matched)
	}
}

func TestScore_EmptyKeywords(t *testing.T) {
	w := scoring.DefaultWeights()
	matched, relevance := w.Score(oldJob("Anything", "Acme"), nil, now)
	if matched != nil || relevance != 0 {
		t.Errorf("Score with no keywords = (%v, %v), want (nil, 0)", matched, relevance)
	}
}

// ── Threshold boundary ─────────────────────────────────────────────────────

// boundaryKeywords builds n keywords where exactly one matches, and the one
// that matches spans the title/company join so no field bonus applies: the
// relevance is the pure base matched/total.
func boundaryKeywords(n int) []string {
	kws := []string{"beta gamma"} // spans "…beta" + " " + "gamma…"
	for len(kws) < n {
		kws = append(kws, "zzznomatch"+string(rune('a'+len(kws))))
	}
	return kws
}

func TestQualifies_ThresholdBoundary(t *testing.T) {
	w := scoring.DefaultWeights()
	job := oldJob("alpha beta", "gamma delta")

	// 1 of 10 → relevance exactly 0.10 → accepted.
	matched, relevance := w.Score(job, boundaryKeywords(10), now)
	if !almostEqual(relevance, 0.10) {
		t.Fatalf("relevance = %v, want 0.10", relevance)
	}
	if !w.Qualifies(matched, relevance) {
		t.Error("relevance 0.10 must qualify")
	}

	// 1 of 11 → relevance ≈ 0.0909 → rejected.
	matched, relevance = w.Score(job, boundaryKeywords(11), now)
	if !almostEqual(relevance, 1.0/11.0) {
		t.Fatalf("relevance = %v, want 1/11", relevance)
	}
	if w.Qualifies(matched, relevance) {
		t.Error("relevance below threshold must not qualify")
	}
}

func TestScore_ClampedForAllN(t *testing.T) {
	w := scoring.DefaultWeights()
	job := model.JobPosting{
		Title:     "Senior Senior Senior Engineer",
		Company:   "Senior Systems",
		CreatedAt: now.Add(-1 * time.Hour), // recency bonus active too
	}
	for n := 1; n <= 20; n++ {
		kws := make([]string, n)
		for i := range kws {
			kws[i] = "senior"
		}
		// Duplicated keywords are normalised upstream, but the scorer must
		// still clamp whatever it is handed.
		_, relevance := w.Score(job, kws, now)
		if relevance < 0 || relevance > 1 {
			t.Errorf("n=%d: relevance %v outside [0,1]", n, relevance)
		}
	}
}

// ── Bonuses ────────────────────────────────────────────────────────────────

func TestScore_CompanyBonus(t *testing.T) {
	w := scoring.DefaultWeights()
	job := oldJob("Backend Engineer", "Python Labs")

	// 1 of 2 matched, in company only: base 0.5 + company 0.1.
	_, relevance := w.Score(job, []string{"python", "zzznomatch"}, now)
	if !almostEqual(relevance, 0.6) {
		t.Errorf("relevance = %v, want 0.6", relevance)
	}
}

func TestScore_RecencyBonus(t *testing.T) {
	w := scoring.DefaultWeights()
	fresh := model.JobPosting{Title: "Backend Engineer", Company: "Python Labs", CreatedAt: now.Add(-12 * time.Hour)}
	stale := oldJob("Backend Engineer", "Python Labs")
	kws := []string{"python", "zzznomatch"}

	_, freshRel := w.Score(fresh, kws, now)
	_, staleRel := w.Score(stale, kws, now)

	// 12h old → half the recency weight on top of the stale score.
	if !almostEqual(freshRel-staleRel, 0.05) {
		t.Errorf("recency bonus = %v, want 0.05", freshRel-staleRel)
	}
}

func TestScore_FutureCreatedAtGetsNoBonus(t *testing.T) {
	w := scoring.DefaultWeights()
	future := model.JobPosting{Title: "Backend Engineer", Company: "Python Labs", CreatedAt: now.Add(2 * time.Hour)}
	stale := oldJob("Backend Engineer", "Python Labs")
	kws := []string{"python", "zzznomatch"}

	_, futureRel := w.Score(future, kws, now)
	_, staleRel := w.Score(stale, kws, now)
	if !almostEqual(futureRel, staleRel) {
		t.Errorf("future posting scored %v, want %v (no recency bonus)", futureRel, staleRel)
	}
}

// ── Determinism ────────────────────────────────────────────────────────────

func TestScore_Deterministic(t *testing.T) {
	w := scoring.DefaultWeights()
	job := model.JobPosting{Title: "Senior Go Developer", Company: "Acme", CreatedAt: now.Add(-3 * time.Hour)}
	kws := []string{"go", "senior", "kubernetes"}

	firstMatched, firstRel := w.Score(job, kws, now)
	for i := 0; i < 100; i++ {
		matched, relevance := w.Score(job, kws, now)
		if !reflect.DeepEqual(matched, firstMatched) || relevance != firstRel {
			t.Fatalf("call %d: (%v, %v) != (%v, %v)", i, matched, relevance, firstMatched, firstRel)
		}
	}
}
