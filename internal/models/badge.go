package models

import "time"

// BadgeMetric names a measurable fact about a user.
type BadgeMetric string

const (
	MetricApplicationsCount  BadgeMetric = "applications_count"
	MetricCertifiedCourses   BadgeMetric = "certified_courses"
	MetricMockInterviewsDone BadgeMetric = "mock_interviews_done"
	MetricReferrals          BadgeMetric = "referrals"
)

// BadgeCriterion is a single comparison against a metric.
type BadgeCriterion struct {
	Metric BadgeMetric `json:"metric"`
	Op     string      `json:"op"`
	Value  float64     `json:"value"`
}

// Badge is an award with a stored criterion.
type Badge struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Criteria    []byte    `db:"criteria" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserBadge records that a user earned a badge.
type UserBadge struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	BadgeID   string    `db:"badge_id" json:"badge_id"`
	AwardedAt time.Time `db:"awarded_at" json:"awarded_at"`
}

// BadgeMetrics is the snapshot criteria are evaluated against.
type BadgeMetrics map[BadgeMetric]float64

// AwardResult lists badges newly granted by an evaluation run.
type AwardResult struct {
	UserID  string   `json:"user_id"`
	Awarded []string `json:"awarded"`
}
