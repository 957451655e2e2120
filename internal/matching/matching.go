// Package matching computes the set of translators eligible for a
// booking. The policy is injectable; the lifecycle controller only sees
// the Engine interface and must tolerate an empty candidate set.
package matching

import (
	"context"
	"sort"

	"github.com/tolkbridge/dispatch/internal/db/models"
)

// Candidate is a translator judged eligible for a booking, with ranking
// metadata. Read-only to the lifecycle controller.
type Candidate struct {
	TranslatorID uint `json:"translator_id"`
	Certified    bool `json:"certified"`
	Rank         int  `json:"rank"`
}

// Engine produces candidates for a booking. Implementations must be free
// of side effects on the booking itself.
type Engine interface {
	FindCandidates(ctx context.Context, job *models.Job) ([]Candidate, error)
}

// TranslatorSource supplies the translator availability data the policy
// filters over. Implemented by repos.UserRepository.
type TranslatorSource interface {
	ListAvailableTranslators(ctx context.Context) ([]models.User, error)
}

// LanguagePolicy is the default matching policy: available translators
// whose language pair matches the booking, honoring the certification
// requirement, certified translators ranked first.
type LanguagePolicy struct {
	translators TranslatorSource
}

// NewLanguagePolicy creates the default language-pair matching policy
func NewLanguagePolicy(src TranslatorSource) *LanguagePolicy {
	return &LanguagePolicy{translators: src}
}

// FindCandidates implements Engine
func (p *LanguagePolicy) FindCandidates(ctx context.Context, job *models.Job) ([]Candidate, error) {
	translators, err := p.translators.ListAvailableTranslators(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, t := range translators {
		if !Eligible(&t, job) {
			continue
		}
		candidates = append(candidates, Candidate{
			TranslatorID: t.ID,
			Certified:    t.Certified,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Certified != candidates[j].Certified {
			return candidates[i].Certified
		}
		return candidates[i].TranslatorID < candidates[j].TranslatorID
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates, nil
}

// Eligible reports whether a single translator matches a booking's
// requirements. Exposed so read-side queries (potential jobs per
// translator) apply the same rules as the offer fan-out.
func Eligible(t *models.User, job *models.Job) bool {
	if t.Role != models.UserRoleTranslator || !t.Available {
		return false
	}
	if t.LanguageFrom != job.LanguageFrom || t.LanguageTo != job.LanguageTo {
		return false
	}
	if job.CertifiedRequired && !t.Certified {
		return false
	}
	return true
}
