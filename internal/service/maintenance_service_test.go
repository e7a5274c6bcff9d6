package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/clock"
	"github.com/noah-isme/career-services-api/pkg/mailer"
)

type fakeReviews struct {
	booked map[string]models.Appointment
}

func (f *fakeReviews) Schedule(ctx context.Context, userID string, year int, appt *models.Appointment) (bool, error) {
	key := fmt.Sprintf("%s/%d", userID, year)
	if _, ok := f.booked[key]; ok {
		return false, nil
	}
	appt.ID = "review-" + key
	f.booked[key] = *appt
	return true, nil
}

func newMaintenanceFixture(profiles ...*models.Profile) (*MaintenanceService, *appointmentFixture, *fakeReviews) {
	f := newAppointmentFixture(profiles...)
	reviews := &fakeReviews{booked: make(map[string]models.Appointment)}
	notifications := NewNotificationService(f.notifications, f.queue, nil, nil)
	svc := NewMaintenanceService(newQuotaService(f.profiles, f.clock), f.svc, f.appointments, f.profiles, reviews, notifications, nil, f.clock, nil)
	return svc, f, reviews
}

func TestResetMonthlyQuotasZeroesCounters(t *testing.T) {
	svc, f, _ := newMaintenanceFixture(&models.Profile{UserID: "cand", Applications: 7, ConsultantHours: 1.5})

	require.NoError(t, svc.ResetMonthlyQuotas(context.Background()))
	profile := f.profiles.get("cand")
	assert.Zero(t, profile.Applications)
	assert.Zero(t, profile.ConsultantHours)
	assert.Equal(t, clock.StartOfMonth(testNow), profile.PeriodStart)
}

func TestScanSLAViolationsAlertsConsultants(t *testing.T) {
	svc, f, _ := newMaintenanceFixture()
	staff, email := "staff", "staff@example.com"
	due := testNow.Add(-time.Hour)
	later := testNow.Add(time.Hour)
	f.appointments.violations = []models.AppointmentDetail{
		{Appointment: models.Appointment{ID: "a1", ConsultantID: &staff, SLADue: &due}, CandidateName: "Cand", ConsultantEmail: &email},
		{Appointment: models.Appointment{ID: "a2", SLADue: &due}, CandidateName: "Orphan"},
		{Appointment: models.Appointment{ID: "a3", ConsultantID: &staff, SLADue: &due, SLAComplied: true}},
		{Appointment: models.Appointment{ID: "a4", ConsultantID: &staff, SLADue: &later}},
	}

	alerted, err := svc.ScanSLAViolations(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, alerted)
	assert.Equal(t, []string{"Appointment a1 with Cand is overdue."}, f.notifications.messagesFor("staff"))
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, "SLA Violation", f.queue.jobs[0].Payload.(mailer.Message).Subject)

	alerted, err = svc.ScanSLAViolations(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, alerted)
	assert.Len(t, f.notifications.messagesFor("staff"), 2)
}

func TestScanSLAViolationsContinuesWhenNotificationFails(t *testing.T) {
	svc, f, _ := newMaintenanceFixture()
	f.notifications.createErr = fmt.Errorf("db down")
	staff := "staff"
	due := testNow.Add(-time.Minute)
	f.appointments.violations = []models.AppointmentDetail{
		{Appointment: models.Appointment{ID: "a1", ConsultantID: &staff, SLADue: &due}},
		{Appointment: models.Appointment{ID: "a2", ConsultantID: &staff, SLADue: &due}},
	}

	alerted, err := svc.ScanSLAViolations(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, alerted)
}

func TestTriggerAnnualReviewsIsIdempotent(t *testing.T) {
	consultant := "dedicated"
	svc, f, reviews := newMaintenanceFixture()
	f.profiles.candidates = []models.Profile{
		{ID: "p1", UserID: "cand", IsProPlus: true, DedicatedConsultantID: &consultant},
		{ID: "p2", UserID: "plus", IsProPlus: true},
	}

	created, err := svc.TriggerAnnualReviews(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	review := reviews.booked["cand/2025"]
	assert.Equal(t, time.Date(2025, time.March, 17, 10, 0, 0, 0, time.UTC), review.ScheduledAt)
	assert.Equal(t, models.AppointmentOneOnOne, review.Type)
	assert.Equal(t, annualReviewNotes, review.Notes)
	assert.Nil(t, review.SLADue)
	require.NotNil(t, review.ConsultantID)
	assert.Equal(t, "dedicated", *review.ConsultantID)
	require.NotNil(t, reviews.booked["plus/2025"].ConsultantID)
	assert.Equal(t, "staff", *reviews.booked["plus/2025"].ConsultantID)
	assert.NotEmpty(t, review.ApplicationID)

	created, err = svc.TriggerAnnualReviews(context.Background(), testNow.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, reviews.booked, 2)
	assert.Zero(t, f.slots.used(review.ScheduledAt))
}

func TestTriggerAnnualReviewsLogsRunOnceAndHoldsNothing(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newAppointmentFixture()
	reviews := &fakeReviews{booked: make(map[string]models.Appointment)}
	notifications := NewNotificationService(f.notifications, f.queue, nil, nil)
	svc := NewMaintenanceService(newQuotaService(f.profiles, f.clock), f.svc, f.appointments, f.profiles, reviews, notifications, nil, f.clock, zap.New(core))
	f.profiles.candidates = []models.Profile{{ID: "p1", UserID: "cand", IsProPlus: true}}

	created, err := svc.TriggerAnnualReviews(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	entries := logs.FilterMessage("annual reviews scheduled").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 1, entries[0].ContextMap()["count"])

	review := reviews.booked["cand/2025"]
	assert.Nil(t, review.SlotDate)
	assert.False(t, review.MockUnitHeld)
}
