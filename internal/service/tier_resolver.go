package service

import "github.com/noah-isme/career-services-api/internal/models"

func limit(v int) *int { return &v }

// tierLimits is the monthly cap per feature. A nil entry is unlimited.
var tierLimits = map[models.Tier]models.Limits{
	models.TierFree: {
		models.FeatureApplications:        limit(20),
		models.FeatureChatbotQueries:      limit(10),
		models.FeatureResumeOptimizations: limit(0),
		models.FeatureConsultantHours:     limit(0),
		models.FeatureMockInterviews:      limit(0),
		models.FeatureCourses:             limit(1),
	},
	models.TierPro: {
		models.FeatureApplications:        limit(100),
		models.FeatureChatbotQueries:      limit(250),
		models.FeatureResumeOptimizations: limit(10),
		models.FeatureConsultantHours:     limit(4),
		models.FeatureMockInterviews:      limit(0),
		models.FeatureCourses:             limit(3),
	},
	models.TierProPlus: {
		models.FeatureApplications:        nil,
		models.FeatureChatbotQueries:      nil,
		models.FeatureResumeOptimizations: limit(50),
		models.FeatureConsultantHours:     limit(12),
		models.FeatureMockInterviews:      limit(4),
		models.FeatureCourses:             nil,
	},
}

// ResolveTier derives the tier of a profile. A trainee gets the higher of its
// assigned plan and whatever it bought through checkout.
func ResolveTier(p *models.Profile) models.Tier {
	if p == nil {
		return models.TierFree
	}
	if p.IsProPlus || (p.IsTrainee && p.TraineePlan == models.TraineePlanProPlus) {
		return models.TierProPlus
	}
	if p.IsPro || (p.IsTrainee && p.TraineePlan == models.TraineePlanPro) {
		return models.TierPro
	}
	return models.TierFree
}

// LimitsFor returns a fresh copy of the complete limit table for the profile's tier.
func LimitsFor(p *models.Profile) models.Limits {
	source := tierLimits[ResolveTier(p)]
	out := make(models.Limits, len(source))
	for feature, v := range source {
		if v == nil {
			out[feature] = nil
			continue
		}
		out[feature] = limit(*v)
	}
	return out
}

// featureLimit returns the cap of one feature for a profile.
func featureLimit(p *models.Profile, feature models.Feature) *int {
	v, ok := tierLimits[ResolveTier(p)][feature]
	if !ok || v == nil {
		return nil
	}
	return limit(*v)
}
