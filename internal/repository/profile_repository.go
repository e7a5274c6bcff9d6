package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

const profileColumns = `id, user_id, is_pro, is_proplus, is_trainee, trainee_plan, trainee_course, dedicated_consultant_id, referrals,
        applications_this_month, chatbot_queries_this_month, resume_optimizations_this_month, consultant_hours_this_month,
        mock_interviews_this_month, courses_this_month, period_start, created_at, updated_at`

var featureColumns = map[models.Feature]string{
	models.FeatureApplications:        "applications_this_month",
	models.FeatureChatbotQueries:      "chatbot_queries_this_month",
	models.FeatureResumeOptimizations: "resume_optimizations_this_month",
	models.FeatureConsultantHours:     "consultant_hours_this_month",
	models.FeatureMockInterviews:      "mock_interviews_this_month",
	models.FeatureCourses:             "courses_this_month",
}

func featureColumn(feature models.Feature) (string, error) {
	column, ok := featureColumns[feature]
	if !ok {
		return "", fmt.Errorf("unknown feature %q", feature)
	}
	return column, nil
}

// ProfileRepository persists profiles and their usage counters.
// Counter mutations are single UPDATE statements so concurrent requests never lose updates.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID returns the profile owned by userID.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a profile with zeroed counters.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return insertProfile(ctx, r.db, profile)
}

func insertProfile(ctx context.Context, exec sqlx.ExtContext, profile *models.Profile) error {
	now := time.Now().UTC()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.PeriodStart.IsZero() {
		profile.PeriodStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now
	const query = `INSERT INTO profiles (id, user_id, is_pro, is_proplus, is_trainee, trainee_plan, trainee_course, dedicated_consultant_id,
        referrals, period_start, created_at, updated_at)
        VALUES (:id, :user_id, :is_pro, :is_proplus, :is_trainee, :trainee_plan, :trainee_course, :dedicated_consultant_id,
        :referrals, :period_start, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, profile); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Increment adds amount to the feature counter unconditionally.
func (r *ProfileRepository) Increment(ctx context.Context, userID string, feature models.Feature, amount float64) error {
	column, err := featureColumn(feature)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE profiles SET %[1]s = %[1]s + $2, updated_at = NOW() WHERE user_id = $1`, column)
	res, err := r.db.ExecContext(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("increment %s: %w", feature, err)
	}
	return expectAffected(res)
}

// Consume adds amount only while the counter stays within limit. It reports
// whether the row was updated. A nil limit means unlimited.
func (r *ProfileRepository) Consume(ctx context.Context, userID string, feature models.Feature, amount float64, limit *int) (bool, error) {
	column, err := featureColumn(feature)
	if err != nil {
		return false, err
	}
	var res sql.Result
	if limit == nil {
		query := fmt.Sprintf(`UPDATE profiles SET %[1]s = %[1]s + $2, updated_at = NOW() WHERE user_id = $1`, column)
		res, err = r.db.ExecContext(ctx, query, userID, amount)
	} else {
		query := fmt.Sprintf(`UPDATE profiles SET %[1]s = %[1]s + $2, updated_at = NOW() WHERE user_id = $1 AND %[1]s + $2 <= $3`, column)
		res, err = r.db.ExecContext(ctx, query, userID, amount, *limit)
	}
	if err != nil {
		return false, fmt.Errorf("consume %s: %w", feature, err)
	}
	return affectedOne(res, "consume "+string(feature))
}

// Decrement subtracts amount from the feature counter, never going below zero.
func (r *ProfileRepository) Decrement(ctx context.Context, userID string, feature models.Feature, amount float64) error {
	column, err := featureColumn(feature)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE profiles SET %[1]s = GREATEST(%[1]s - $2, 0), updated_at = NOW() WHERE user_id = $1`, column)
	res, err := r.db.ExecContext(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("decrement %s: %w", feature, err)
	}
	return expectAffected(res)
}

// ResetAll zeroes the counters of every profile still in an earlier period and
// stamps the new period. Repeating it for the same period touches no rows.
func (r *ProfileRepository) ResetAll(ctx context.Context, periodStart time.Time) (int64, error) {
	const query = `UPDATE profiles SET applications_this_month = 0, chatbot_queries_this_month = 0,
        resume_optimizations_this_month = 0, consultant_hours_this_month = 0, mock_interviews_this_month = 0,
        courses_this_month = 0, period_start = $1, updated_at = NOW()
        WHERE period_start < $1`
	res, err := r.db.ExecContext(ctx, query, periodStart)
	if err != nil {
		return 0, fmt.Errorf("reset usage counters: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset usage counters rows: %w", err)
	}
	return affected, nil
}

// UpdateTraineePlan changes the plan of a trainee profile.
func (r *ProfileRepository) UpdateTraineePlan(ctx context.Context, userID string, plan models.TraineePlan) error {
	const query = `UPDATE profiles SET trainee_plan = $2, updated_at = NOW() WHERE user_id = $1 AND is_trainee = TRUE`
	res, err := r.db.ExecContext(ctx, query, userID, plan)
	if err != nil {
		return fmt.Errorf("update trainee plan: %w", err)
	}
	return expectAffected(res)
}

// ListAnnualReviewCandidates returns Pro Plus profiles whose subscription ends in
// [yearStart, yearEnd) and that have no annual review recorded for year.
func (r *ProfileRepository) ListAnnualReviewCandidates(ctx context.Context, year int, yearStart, yearEnd time.Time) ([]models.Profile, error) {
	query := `SELECT ` + prefixed("p", profileColumns) + ` FROM profiles p
        JOIN subscriptions s ON s.user_id = p.user_id
        WHERE (p.is_proplus = TRUE OR (p.is_trainee = TRUE AND p.trainee_plan = $1))
          AND s.end_date >= $2 AND s.end_date < $3
          AND NOT EXISTS (SELECT 1 FROM annual_reviews ar WHERE ar.user_id = p.user_id AND ar.year = $4)
        ORDER BY p.created_at`
	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, query, models.TraineePlanProPlus, yearStart, yearEnd, year); err != nil {
		return nil, fmt.Errorf("list annual review candidates: %w", err)
	}
	return profiles, nil
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
