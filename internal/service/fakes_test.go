package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/internal/repository"
	"github.com/noah-isme/career-services-api/pkg/clock"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
	"github.com/noah-isme/career-services-api/pkg/jobs"
)

var testNow = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func addUsage(p *models.Profile, feature models.Feature, amount float64) {
	switch feature {
	case models.FeatureApplications:
		p.Applications += int(amount)
	case models.FeatureChatbotQueries:
		p.ChatbotQueries += int(amount)
	case models.FeatureResumeOptimizations:
		p.ResumeOptimizations += int(amount)
	case models.FeatureConsultantHours:
		p.ConsultantHours += amount
	case models.FeatureMockInterviews:
		p.MockInterviews += int(amount)
	case models.FeatureCourses:
		p.Courses += int(amount)
	}
}

type fakeProfiles struct {
	mu         sync.Mutex
	byUser     map[string]*models.Profile
	candidates []models.Profile
	findErr    error
	consumeErr error
}

func newFakeProfiles(profiles ...*models.Profile) *fakeProfiles {
	f := &fakeProfiles{byUser: make(map[string]*models.Profile)}
	for _, p := range profiles {
		if p.ID == "" {
			p.ID = "profile-" + p.UserID
		}
		f.byUser[p.UserID] = p
	}
	return f
}

func (f *fakeProfiles) get(userID string) *models.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *f.byUser[userID]
	return &copy
}

func (f *fakeProfiles) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *p
	return &copy, nil
}

func (f *fakeProfiles) Increment(ctx context.Context, userID string, feature models.Feature, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	if !ok {
		return sql.ErrNoRows
	}
	addUsage(p, feature, amount)
	return nil
}

func (f *fakeProfiles) Consume(ctx context.Context, userID string, feature models.Feature, amount float64, limit *int) (bool, error) {
	if f.consumeErr != nil {
		return false, f.consumeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	if !ok {
		return false, nil
	}
	if limit != nil && p.Used(feature)+amount > float64(*limit) {
		return false, nil
	}
	addUsage(p, feature, amount)
	return true, nil
}

func (f *fakeProfiles) Decrement(ctx context.Context, userID string, feature models.Feature, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	if !ok {
		return sql.ErrNoRows
	}
	delta := amount
	if used := p.Used(feature); used < delta {
		delta = used
	}
	addUsage(p, feature, -delta)
	return nil
}

func (f *fakeProfiles) ResetAll(ctx context.Context, periodStart time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var affected int64
	for _, p := range f.byUser {
		if !p.PeriodStart.Before(periodStart) {
			continue
		}
		p.Applications, p.ChatbotQueries, p.ResumeOptimizations, p.MockInterviews, p.Courses = 0, 0, 0, 0, 0
		p.ConsultantHours = 0
		p.PeriodStart = periodStart
		affected++
	}
	return affected, nil
}

func (f *fakeProfiles) UpdateTierFlags(ctx context.Context, userID string, isPro, isProPlus bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	if !ok {
		return sql.ErrNoRows
	}
	p.IsPro, p.IsProPlus = isPro, isProPlus
	return nil
}

func (f *fakeProfiles) UpdateTraineePlan(ctx context.Context, userID string, plan models.TraineePlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUser[userID]
	if !ok || !p.IsTrainee {
		return sql.ErrNoRows
	}
	p.TraineePlan = plan
	return nil
}

func (f *fakeProfiles) ListAnnualReviewCandidates(ctx context.Context, year int, yearStart, yearEnd time.Time) ([]models.Profile, error) {
	return f.candidates, nil
}

type fakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
	gets  int
}

func newFakeCache() *fakeCache { return &fakeCache{items: make(map[string][]byte)} }

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	raw, ok := f.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[key] = raw
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.items, key)
	}
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.items {
		if strings.HasPrefix(key, prefix) {
			delete(f.items, key)
		}
	}
	return nil
}

type fakeSlots struct {
	mu    sync.Mutex
	slots map[string]*models.InterviewSlot
}

func newFakeSlots() *fakeSlots { return &fakeSlots{slots: make(map[string]*models.InterviewSlot)} }

func slotKey(date time.Time) string { return date.UTC().Format("2006-01-02") }

func (f *fakeSlots) put(date time.Time, max, used int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[slotKey(date)] = &models.InterviewSlot{SlotDate: clock.StartOfDay(date), MaxSlots: max, UsedSlots: used}
}

func (f *fakeSlots) used(date time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot, ok := f.slots[slotKey(date)]; ok {
		return slot.UsedSlots
	}
	return 0
}

func (f *fakeSlots) GetOrCreate(ctx context.Context, date time.Time, defaultMax int) (*models.InterviewSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotKey(date)]
	if !ok {
		slot = &models.InterviewSlot{SlotDate: date, MaxSlots: defaultMax}
		f.slots[slotKey(date)] = slot
	}
	copy := *slot
	return &copy, nil
}

func (f *fakeSlots) Reserve(ctx context.Context, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotKey(date)]
	if !ok || slot.UsedSlots >= slot.MaxSlots {
		return false, nil
	}
	slot.UsedSlots++
	return true, nil
}

func (f *fakeSlots) Release(ctx context.Context, date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot, ok := f.slots[slotKey(date)]; ok && slot.UsedSlots > 0 {
		slot.UsedSlots--
	}
	return nil
}

func (f *fakeSlots) SetCapacity(ctx context.Context, date time.Time, max int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotKey(date)]
	if !ok || slot.UsedSlots > max {
		return false, nil
	}
	slot.MaxSlots = max
	return true, nil
}

type fakeAppointments struct {
	mu          sync.Mutex
	items       map[string]*models.Appointment
	seq         int
	createErr   error
	postponeErr error
	violations  []models.AppointmentDetail
	lastFilter  models.AppointmentFilter
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{items: make(map[string]*models.Appointment)}
}

func (f *fakeAppointments) Create(ctx context.Context, appt *models.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if appt.ID == "" {
		appt.ID = fmt.Sprintf("appt-%d", f.seq)
	}
	copy := *appt
	f.items[appt.ID] = &copy
	return nil
}

func (f *fakeAppointments) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *appt
	return &copy, nil
}

func (f *fakeAppointments) Postpone(ctx context.Context, id string, fromStatus models.AppointmentStatus, next models.Reschedule) (bool, error) {
	if f.postponeErr != nil {
		return false, f.postponeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.items[id]
	if !ok || appt.Status != fromStatus {
		return false, nil
	}
	appt.Status, appt.ScheduledAt, appt.SLADue, appt.Notes = models.AppointmentPostponed, next.ScheduledAt, next.SLADue, next.Notes
	appt.SlotDate, appt.MockUnitHeld = next.SlotDate, next.MockUnitHeld
	return true, nil
}

func (f *fakeAppointments) MarkDone(ctx context.Context, id string, fromStatus models.AppointmentStatus, notes string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.items[id]
	if !ok || appt.Status != fromStatus {
		return false, nil
	}
	appt.Status, appt.Notes = models.AppointmentDone, notes
	return true, nil
}

func (f *fakeAppointments) MarkSLAComplied(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	appt.SLAComplied = true
	return nil
}

func (f *fakeAppointments) List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	var out []models.AppointmentDetail
	for _, appt := range f.items {
		if filter.Type != "" && appt.Type != filter.Type {
			continue
		}
		out = append(out, models.AppointmentDetail{Appointment: *appt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeAppointments) ListSLAViolations(ctx context.Context, now time.Time) ([]models.AppointmentDetail, error) {
	var out []models.AppointmentDetail
	for _, v := range f.violations {
		if v.SLADue != nil && v.SLADue.Before(now) && !v.SLAComplied {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeAppointments) CountMockInterviewsDone(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, appt := range f.items {
		if appt.CandidateID == userID && appt.IsMockInterview && appt.Status == models.AppointmentDone {
			total++
		}
	}
	return total, nil
}

type fakeUsers struct {
	byID      map[string]*models.User
	staff     *models.User
	createErr error
	created   []*models.User
	profiles  []*models.Profile
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: make(map[string]*models.User)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *u
	return &copy, nil
}

func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) FirstStaff(ctx context.Context) (*models.User, error) {
	if f.staff == nil {
		return nil, sql.ErrNoRows
	}
	return f.staff, nil
}

func (f *fakeUsers) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.byID {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	user.ID = fmt.Sprintf("user-%d", len(f.byID)+1)
	profile.ID = "profile-" + user.ID
	profile.UserID = user.ID
	f.byID[user.ID] = user
	f.created = append(f.created, user)
	f.profiles = append(f.profiles, profile)
	return nil
}

func (f *fakeUsers) ListTrainees(ctx context.Context) ([]models.Trainee, error) {
	var out []models.Trainee
	for i, u := range f.created {
		p := f.profiles[i]
		out = append(out, models.Trainee{UserID: u.ID, Username: u.Username, ProfileID: p.ID, Plan: p.TraineePlan})
	}
	return out, nil
}

type fakeJobs struct {
	jobs       map[string]*models.Job
	apps       []models.JobApplication
	saved      map[string]map[string]bool
	candidates *fakeUsers
	createErr  error
	listed     []models.JobFilter
}

func newFakeJobs(jobs ...*models.Job) *fakeJobs {
	f := &fakeJobs{jobs: make(map[string]*models.Job), saved: make(map[string]map[string]bool)}
	for _, j := range jobs {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *fakeJobs) FindByID(ctx context.Context, id string) (*models.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return j, nil
}

func (f *fakeJobs) HasApplied(ctx context.Context, userID, jobID string) (bool, error) {
	for _, app := range f.apps {
		if app.UserID == userID && app.JobID != nil && *app.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJobs) CreateApplication(ctx context.Context, app *models.JobApplication) error {
	if f.createErr != nil {
		return f.createErr
	}
	app.ID = fmt.Sprintf("app-%d", len(f.apps)+1)
	f.apps = append(f.apps, *app)
	return nil
}

func (f *fakeJobs) FirstApplication(ctx context.Context, userID string) (*models.JobApplication, error) {
	for _, app := range f.apps {
		if app.UserID == userID {
			copy := app
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeJobs) CountApplications(ctx context.Context, userID string) (int, error) {
	total := 0
	for _, app := range f.apps {
		if app.UserID == userID {
			total++
		}
	}
	return total, nil
}

func (f *fakeJobs) listing(viewerID string, j *models.Job) models.JobListing {
	applied, _ := f.HasApplied(context.Background(), viewerID, j.ID)
	return models.JobListing{Job: *j, Saved: f.saved[viewerID][j.ID], Applied: applied}
}

func (f *fakeJobs) List(ctx context.Context, filter models.JobFilter) ([]models.JobListing, int, error) {
	f.listed = append(f.listed, filter)
	var out []models.JobListing
	for _, j := range f.jobs {
		if !j.Active || (j.IsExclusive && !filter.IncludeExclusive) {
			continue
		}
		if filter.SavedOnly && !f.saved[filter.ViewerID][j.ID] {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(j.Title+" "+j.Company+" "+j.Location), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, f.listing(filter.ViewerID, j))
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, len(out), nil
}

func (f *fakeJobs) FindListing(ctx context.Context, viewerID, jobID string) (*models.JobListing, error) {
	j, ok := f.jobs[jobID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	listing := f.listing(viewerID, j)
	return &listing, nil
}

func (f *fakeJobs) SaveJob(ctx context.Context, userID, jobID string) error {
	if f.saved[userID] == nil {
		f.saved[userID] = make(map[string]bool)
	}
	f.saved[userID][jobID] = true
	return nil
}

func (f *fakeJobs) UnsaveJob(ctx context.Context, userID, jobID string) error {
	delete(f.saved[userID], jobID)
	return nil
}

func (f *fakeJobs) view(app models.JobApplication) models.ApplicationView {
	out := models.ApplicationView{JobApplication: app}
	if app.JobID != nil {
		if j, ok := f.jobs[*app.JobID]; ok {
			title, company := j.Title, j.Company
			out.JobTitle, out.Company = &title, &company
		}
	}
	if f.candidates != nil {
		if u, ok := f.candidates.byID[app.UserID]; ok {
			out.CandidateName, out.CandidateEmail = u.FullName, u.Email
		}
	}
	return out
}

func (f *fakeJobs) FindApplication(ctx context.Context, id string) (*models.ApplicationView, error) {
	for _, app := range f.apps {
		if app.ID == id {
			v := f.view(app)
			return &v, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeJobs) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationView, int, error) {
	var out []models.ApplicationView
	for i := len(f.apps) - 1; i >= 0; i-- {
		app := f.apps[i]
		if filter.UserID != "" && app.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		out = append(out, f.view(app))
	}
	return out, len(out), nil
}

func (f *fakeJobs) UpdateApplicationStatus(ctx context.Context, id, fromStatus, status string) (bool, error) {
	for i := range f.apps {
		if f.apps[i].ID == id && f.apps[i].Status == fromStatus {
			f.apps[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

type fakeActivity struct {
	events       []models.CalendarEvent
	interactions []models.Interaction
	eventErr     error
}

func (f *fakeActivity) CreateCalendarEvent(ctx context.Context, event *models.CalendarEvent) error {
	if f.eventErr != nil {
		return f.eventErr
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeActivity) CreateInteraction(ctx context.Context, interaction *models.Interaction) error {
	f.interactions = append(f.interactions, *interaction)
	return nil
}

type fakeNotifications struct {
	mu        sync.Mutex
	items     []models.Notification
	createErr error
}

func (f *fakeNotifications) Create(ctx context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = fmt.Sprintf("n-%d", len(f.items)+1)
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotifications) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.items {
		if n.UserID == userID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(ctx context.Context, userID, id string) error {
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].UserID == userID {
			f.items[i].IsRead = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeNotifications) CountUnread(ctx context.Context, userID string) (int, error) {
	total := 0
	for _, n := range f.items {
		if n.UserID == userID && !n.IsRead {
			total++
		}
	}
	return total, nil
}

func (f *fakeNotifications) messagesFor(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, n := range f.items {
		if n.UserID == userID {
			out = append(out, n.Message)
		}
	}
	return out
}

type fakeQueue struct {
	jobs []jobs.Job
	err  error
}

func (f *fakeQueue) Enqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func newQuotaService(profiles *fakeProfiles, clk clock.Clock) *QuotaService {
	return NewQuotaService(profiles, nil, nil, clk, nil)
}
