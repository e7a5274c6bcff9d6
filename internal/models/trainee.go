package models

// CreateTraineeRequest registers a cohort-managed account.
type CreateTraineeRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=64"`
	Email    string      `json:"email" validate:"required,email"`
	FullName string      `json:"full_name" validate:"required,max=120"`
	Password string      `json:"password" validate:"required,min=8"`
	Plan     TraineePlan `json:"plan" validate:"required,oneof=pro proplus"`
	Course   string      `json:"course" validate:"max=120"`
}

// UpdateTraineePlanRequest switches a trainee between plans.
type UpdateTraineePlanRequest struct {
	Plan TraineePlan `json:"plan" validate:"required,oneof=pro proplus"`
}

// Trainee is the admin view of a trainee account.
type Trainee struct {
	UserID    string      `db:"user_id" json:"user_id"`
	Username  string      `db:"username" json:"username"`
	Email     string      `db:"email" json:"email"`
	FullName  string      `db:"full_name" json:"full_name"`
	ProfileID string      `db:"profile_id" json:"profile_id"`
	Plan      TraineePlan `db:"trainee_plan" json:"plan"`
	Course    string      `db:"trainee_course" json:"course"`
}
