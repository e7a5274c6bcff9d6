package models

import "time"

// Tier is the derived subscription level of a profile.
type Tier string

const (
	TierFree    Tier = "FREE"
	TierPro     Tier = "PRO"
	TierProPlus Tier = "PROPLUS"
)

// Rank orders tiers so gates can compare them.
func (t Tier) Rank() int {
	switch t {
	case TierProPlus:
		return 2
	case TierPro:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether t grants everything min grants.
func (t Tier) AtLeast(min Tier) bool {
	return t.Rank() >= min.Rank()
}

// TraineePlan is the plan assigned to a cohort-managed account.
type TraineePlan string

const (
	TraineePlanNone    TraineePlan = ""
	TraineePlanPro     TraineePlan = "pro"
	TraineePlanProPlus TraineePlan = "proplus"
)

// Feature names a metered capability.
type Feature string

const (
	FeatureApplications        Feature = "applications"
	FeatureChatbotQueries      Feature = "chatbot_queries"
	FeatureResumeOptimizations Feature = "resume_optimizations"
	FeatureConsultantHours     Feature = "consultant_hours"
	FeatureMockInterviews      Feature = "mock_interviews"
	FeatureCourses             Feature = "courses"
)

// Features lists every metered feature in display order.
var Features = []Feature{
	FeatureApplications,
	FeatureChatbotQueries,
	FeatureResumeOptimizations,
	FeatureConsultantHours,
	FeatureMockInterviews,
	FeatureCourses,
}

// Valid reports whether f is a known feature.
func (f Feature) Valid() bool {
	for _, known := range Features {
		if f == known {
			return true
		}
	}
	return false
}

// Profile holds tier flags and the usage counters of the current period.
type Profile struct {
	ID                    string      `db:"id" json:"id"`
	UserID                string      `db:"user_id" json:"user_id"`
	IsPro                 bool        `db:"is_pro" json:"is_pro"`
	IsProPlus             bool        `db:"is_proplus" json:"is_proplus"`
	IsTrainee             bool        `db:"is_trainee" json:"is_trainee"`
	TraineePlan           TraineePlan `db:"trainee_plan" json:"trainee_plan,omitempty"`
	TraineeCourse         string      `db:"trainee_course" json:"trainee_course,omitempty"`
	DedicatedConsultantID *string     `db:"dedicated_consultant_id" json:"dedicated_consultant_id,omitempty"`
	Referrals             int         `db:"referrals" json:"referrals"`

	Applications        int     `db:"applications_this_month" json:"applications_this_month"`
	ChatbotQueries      int     `db:"chatbot_queries_this_month" json:"chatbot_queries_this_month"`
	ResumeOptimizations int     `db:"resume_optimizations_this_month" json:"resume_optimizations_this_month"`
	ConsultantHours     float64 `db:"consultant_hours_this_month" json:"consultant_hours_this_month"`
	MockInterviews      int     `db:"mock_interviews_this_month" json:"mock_interviews_this_month"`
	Courses             int     `db:"courses_this_month" json:"courses_this_month"`

	PeriodStart time.Time `db:"period_start" json:"period_start"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Used returns the counter for f in the current period.
func (p *Profile) Used(f Feature) float64 {
	switch f {
	case FeatureApplications:
		return float64(p.Applications)
	case FeatureChatbotQueries:
		return float64(p.ChatbotQueries)
	case FeatureResumeOptimizations:
		return float64(p.ResumeOptimizations)
	case FeatureConsultantHours:
		return p.ConsultantHours
	case FeatureMockInterviews:
		return float64(p.MockInterviews)
	case FeatureCourses:
		return float64(p.Courses)
	}
	return 0
}

// Limits maps each feature to its cap. A nil entry means unlimited.
type Limits map[Feature]*int

// FeatureUsage summarises one feature for the current period.
type FeatureUsage struct {
	Feature   Feature  `json:"feature"`
	Used      float64  `json:"used"`
	Limit     *int     `json:"limit"`
	Remaining *float64 `json:"remaining"`
	Percent   float64  `json:"percent"`
	Unlimited bool     `json:"unlimited"`
}

// QuotaSummary is the per-user view of every metered feature.
type QuotaSummary struct {
	UserID      string         `json:"user_id"`
	Tier        Tier           `json:"tier"`
	PeriodStart time.Time      `json:"period_start"`
	Features    []FeatureUsage `json:"features"`
}

// ConsumeRequest meters an arbitrary amount of a feature.
type ConsumeRequest struct {
	Amount float64 `json:"amount" validate:"omitempty,gt=0,lte=24"`
}
