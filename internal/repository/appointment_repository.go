package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

const appointmentColumns = `id, application_id, candidate_id, consultant_id, appointment_type, status, scheduled_at, sla_due,
        sla_complied, is_mock_interview, video_link, notes, slot_date, mock_unit_held, created_at, updated_at`

const appointmentDetailSelect = `SELECT a.id, a.application_id, a.candidate_id, a.consultant_id, a.appointment_type, a.status,
        a.scheduled_at, a.sla_due, a.sla_complied, a.is_mock_interview, a.video_link, a.notes,
        a.slot_date, a.mock_unit_held, a.created_at, a.updated_at,
        cu.full_name AS candidate_name, cu.email AS candidate_email,
        su.full_name AS consultant_name, su.email AS consultant_email
        FROM appointments a
        JOIN users cu ON cu.id = a.candidate_id
        LEFT JOIN users su ON su.id = a.consultant_id`

// AppointmentRepository persists appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create inserts a new appointment.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	return insertAppointment(ctx, r.db, appt)
}

func insertAppointment(ctx context.Context, exec sqlx.ExtContext, appt *models.Appointment) error {
	now := time.Now().UTC()
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = models.AppointmentScheduled
	}
	appt.CreatedAt = now
	appt.UpdatedAt = now
	const query = `INSERT INTO appointments (id, application_id, candidate_id, consultant_id, appointment_type, status, scheduled_at,
        sla_due, sla_complied, is_mock_interview, video_link, notes, slot_date, mock_unit_held, created_at, updated_at)
        VALUES (:id, :application_id, :candidate_id, :consultant_id, :appointment_type, :status, :scheduled_at,
        :sla_due, :sla_complied, :is_mock_interview, :video_link, :notes, :slot_date, :mock_unit_held, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, appt); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// FindByID returns an appointment by ID.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// Postpone moves the appointment only when it is still in fromStatus, so two
// concurrent transitions cannot both apply. The held slot day and mock unit
// are rewritten together with the new time.
func (r *AppointmentRepository) Postpone(ctx context.Context, id string, fromStatus models.AppointmentStatus, next models.Reschedule) (bool, error) {
	const query = `UPDATE appointments SET status = $3, scheduled_at = $4, sla_due = $5, notes = $6, slot_date = $7,
        mock_unit_held = $8, updated_at = NOW() WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, fromStatus, models.AppointmentPostponed,
		next.ScheduledAt, next.SLADue, next.Notes, next.SlotDate, next.MockUnitHeld)
	if err != nil {
		return false, fmt.Errorf("postpone appointment: %w", err)
	}
	return affectedOne(res, "postpone appointment")
}

// MarkDone closes the appointment when it is still in fromStatus.
func (r *AppointmentRepository) MarkDone(ctx context.Context, id string, fromStatus models.AppointmentStatus, notes string) (bool, error) {
	const query = `UPDATE appointments SET status = $3, notes = $4, updated_at = NOW() WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, fromStatus, models.AppointmentDone, notes)
	if err != nil {
		return false, fmt.Errorf("mark appointment done: %w", err)
	}
	return affectedOne(res, "mark appointment done")
}

// MarkSLAComplied flags the SLA as met.
func (r *AppointmentRepository) MarkSLAComplied(ctx context.Context, id string) error {
	const query = `UPDATE appointments SET sla_complied = TRUE, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark sla complied: %w", err)
	}
	return expectAffected(res)
}

// List returns appointments matching filter with the total count.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("a.appointment_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.ConsultantID != "" {
		conditions = append(conditions, fmt.Sprintf("a.consultant_id = $%d", len(args)+1))
		args = append(args, filter.ConsultantID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("a.scheduled_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("a.scheduled_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(cu.full_name ILIKE $%[1]d OR cu.email ILIKE $%[1]d OR cu.username ILIKE $%[1]d OR a.notes ILIKE $%[1]d)", len(args)+1))
		args = append(args, "%"+search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	page, size := models.NormalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY a.scheduled_at DESC LIMIT %d OFFSET %d", appointmentDetailSelect, clause, size, offset)
	var items []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM appointments a JOIN users cu ON cu.id = a.candidate_id` + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	return items, total, nil
}

// ListSLAViolations returns appointments whose SLA lapsed before now without compliance.
func (r *AppointmentRepository) ListSLAViolations(ctx context.Context, now time.Time) ([]models.AppointmentDetail, error) {
	query := appointmentDetailSelect + ` WHERE a.sla_due < $1 AND a.sla_complied = FALSE ORDER BY a.sla_due`
	var items []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &items, query, now); err != nil {
		return nil, fmt.Errorf("list sla violations: %w", err)
	}
	return items, nil
}

// CountMockInterviewsDone counts finished mock interviews of a candidate.
func (r *AppointmentRepository) CountMockInterviewsDone(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM appointments WHERE candidate_id = $1 AND is_mock_interview = TRUE AND status = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID, models.AppointmentDone); err != nil {
		return 0, fmt.Errorf("count mock interviews: %w", err)
	}
	return total, nil
}
