package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/clock"
)

type fakeBadges struct {
	badges []models.Badge
	held   map[string]bool
}

func (f *fakeBadges) List(ctx context.Context) ([]models.Badge, error) {
	return f.badges, nil
}

func (f *fakeBadges) Award(ctx context.Context, userID, badgeID string, at time.Time) (bool, error) {
	key := userID + "/" + badgeID
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

type fixedStats struct {
	applications, certified, mocks int
}

func (s fixedStats) CountApplications(ctx context.Context, userID string) (int, error) {
	return s.applications, nil
}

func (s fixedStats) CountCertified(ctx context.Context, userID string) (int, error) {
	return s.certified, nil
}

func (s fixedStats) CountMockInterviewsDone(ctx context.Context, userID string) (int, error) {
	return s.mocks, nil
}

func TestParseCriteria(t *testing.T) {
	single, err := ParseCriteria([]byte(`{"metric":"applications_count","op":">=","value":10}`))
	require.NoError(t, err)
	assert.Equal(t, []models.BadgeCriterion{{Metric: models.MetricApplicationsCount, Op: ">=", Value: 10}}, single)

	list, err := ParseCriteria([]byte(` [{"metric":"referrals","op":">","value":0},{"metric":"certified_courses","op":"==","value":1}]`))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	for _, raw := range []string{"", "[]", "{not json", "os.Exit(1)"} {
		_, err := ParseCriteria([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestEvaluateCriterion(t *testing.T) {
	snapshot := models.BadgeMetrics{models.MetricApplicationsCount: 10}
	cases := []struct {
		op   string
		want bool
	}{
		{">=", true}, {">", false}, {"==", true}, {"<=", true}, {"<", false},
	}
	for _, tc := range cases {
		got, err := EvaluateCriterion(models.BadgeCriterion{Metric: models.MetricApplicationsCount, Op: tc.op, Value: 10}, snapshot)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.op)
	}

	_, err := EvaluateCriterion(models.BadgeCriterion{Metric: "karma", Op: ">=", Value: 1}, snapshot)
	assert.Error(t, err)
	_, err = EvaluateCriterion(models.BadgeCriterion{Metric: models.MetricApplicationsCount, Op: "!=", Value: 1}, snapshot)
	assert.Error(t, err)
}

func TestAwardGrantsMatchingBadgesOnce(t *testing.T) {
	profiles := newFakeProfiles(&models.Profile{UserID: "u1", Referrals: 2})
	badges := &fakeBadges{
		held: make(map[string]bool),
		badges: []models.Badge{
			{ID: "b1", Name: "Go Getter", Criteria: []byte(`{"metric":"applications_count","op":">=","value":10}`)},
			{ID: "b2", Name: "Networker", Criteria: []byte(`[{"metric":"referrals","op":">=","value":1},{"metric":"mock_interviews_done","op":">=","value":1}]`)},
			{ID: "b3", Name: "Graduate", Criteria: []byte(`{"metric":"certified_courses","op":">=","value":1}`)},
			{ID: "b4", Name: "Broken", Criteria: []byte(`{"metric":"karma","op":">=","value":0}`)},
			{ID: "b5", Name: "Garbage", Criteria: []byte(`rm -rf /`)},
		},
	}
	notifications := &fakeNotifications{}
	svc := NewBadgeService(badges, fixedStats{applications: 12, mocks: 1}, newQuotaService(profiles, clock.NewFixed(testNow)),
		NewNotificationService(notifications, nil, nil, nil), clock.NewFixed(testNow), nil)

	result, err := svc.Award(context.Background(), "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Go Getter", "Networker"}, result.Awarded)
	assert.Len(t, notifications.messagesFor("u1"), 2)

	again, err := svc.Award(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, again.Awarded)
}

func TestStatsSourcesDelegates(t *testing.T) {
	jobs := newFakeJobs()
	jobs.apps = []models.JobApplication{{UserID: "u1"}, {UserID: "u1"}, {UserID: "u2"}}
	appointments := newFakeAppointments()
	require.NoError(t, appointments.Create(context.Background(), &models.Appointment{CandidateID: "u1", IsMockInterview: true, Status: models.AppointmentDone}))

	sources := StatsSources{Applications: jobs, Enrollments: fixedStats{certified: 3}, Appointments: appointments}
	apps, err := sources.CountApplications(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, apps)
	certified, err := sources.CountCertified(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, certified)
	mocks, err := sources.CountMockInterviewsDone(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, mocks)
}
