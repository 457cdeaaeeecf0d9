/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry validator/v10 struct tags; handlers run the shared
  validator before touching domain logic. Amounts cross the wire as strings
  and are parsed as decimals - floats would silently lose money precision.

SEE ALSO:
  - handlers.go: Uses these types
  - fees/config.go: Bulk fee schedule import format
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/billing"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// RegisterStudentRequest is the registration input.
type RegisterStudentRequest struct {
	StudentID        string `json:"student_id" validate:"required"`
	CenterID         string `json:"center_id" validate:"required"`
	Name             string `json:"name" validate:"required"`
	ClassID          string `json:"class_id" validate:"required"`
	CourseType       string `json:"course_type" validate:"required,oneof=monthly yearly"`
	EnrollmentDate   string `json:"enrollment_date" validate:"required,datetime=2006-01-02"`
	AdmissionFeePaid bool   `json:"admission_fee_paid"`
}

// RecordPaymentRequest records a collection against a student.
type RecordPaymentRequest struct {
	Amount string `json:"amount" validate:"required"`
	Note   string `json:"note,omitempty"`
}

// SaveFeeScheduleRequest creates or updates one fee schedule.
type SaveFeeScheduleRequest struct {
	ClassID      string `json:"class_id" validate:"required"`
	CourseType   string `json:"course_type" validate:"required,oneof=monthly yearly"`
	AdmissionFee string `json:"admission_fee" validate:"required"`
	MonthlyFee   string `json:"monthly_fee,omitempty"`
	YearlyFee    string `json:"yearly_fee,omitempty"`
}

// RunAccrualRequest optionally pins the accrual period (catch-up runs).
// Empty period means the current month.
type RunAccrualRequest struct {
	Period string `json:"period,omitempty" validate:"omitempty,len=7"` // "2025-01"
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// StudentDTO is the student row as the API exposes it.
type StudentDTO struct {
	StudentID        string `json:"student_id"`
	CenterID         string `json:"center_id"`
	Name             string `json:"name"`
	ClassID          string `json:"class_id"`
	CourseType       string `json:"course_type"`
	EnrollmentDate   string `json:"enrollment_date"`
	AdmissionFeePaid bool   `json:"admission_fee_paid"`
	TotalFeeAmount   string `json:"total_fee_amount"`
	PaidAmount       string `json:"paid_amount"`
	PendingAmount    string `json:"pending_amount"`
	PaymentStatus    string `json:"payment_status"`
	IsActive         bool   `json:"is_active"`
}

// BreakdownEntryDTO is one computed month of fees.
type BreakdownEntryDTO struct {
	Month  int    `json:"month"`
	Year   int    `json:"year"`
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

// CalculationDTO is the fee calculator output.
type CalculationDTO struct {
	TotalDueAmount   string              `json:"total_due_amount"`
	AdmissionFee     string              `json:"admission_fee"`
	TotalMonthlyFees string              `json:"total_monthly_fees"`
	MonthlyBreakdown []BreakdownEntryDTO `json:"monthly_breakdown"`
}

// RegisterStudentResponse pairs the created student with its calculation.
type RegisterStudentResponse struct {
	Student     StudentDTO     `json:"student"`
	Calculation CalculationDTO `json:"calculation"`
}

// PaymentDTO is one recorded collection.
type PaymentDTO struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	CenterID  string `json:"center_id"`
	Amount    string `json:"amount"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

// RecordPaymentResponse pairs the payment with the updated balance.
type RecordPaymentResponse struct {
	Payment PaymentDTO `json:"payment"`
	Student StudentDTO `json:"student"`
}

// FeeScheduleDTO is one price card row.
type FeeScheduleDTO struct {
	ClassID      string `json:"class_id"`
	CourseType   string `json:"course_type"`
	AdmissionFee string `json:"admission_fee"`
	MonthlyFee   string `json:"monthly_fee,omitempty"`
	YearlyFee    string `json:"yearly_fee,omitempty"`
}

// AccrualResultDTO is the aggregate outcome of a run or preview.
type AccrualResultDTO struct {
	Period          string            `json:"period"`
	DryRun          bool              `json:"dry_run"`
	StudentsUpdated int               `json:"students_updated"`
	StudentsSkipped int               `json:"students_skipped"`
	TotalFeesAdded  string            `json:"total_fees_added"`
	Students        []StudentDeltaDTO `json:"students,omitempty"`
}

// StudentDeltaDTO is one student's share of a run or preview.
type StudentDeltaDTO struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	ClassID    string `json:"class_id"`
	Fee        string `json:"fee"`
	NewPending string `json:"new_pending"`
	Skipped    bool   `json:"skipped,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// AccrualRunDTO is one run-history record.
type AccrualRunDTO struct {
	ID              string `json:"id"`
	Period          string `json:"period"`
	StudentsUpdated int    `json:"students_updated"`
	StudentsSkipped int    `json:"students_skipped"`
	TotalFeesAdded  string `json:"total_fees_added"`
	StartedAt       string `json:"started_at"`
	CompletedAt     string `json:"completed_at,omitempty"`
	Error           string `json:"error,omitempty"`
}

// WalletDTO is a center's wallet balance.
type WalletDTO struct {
	CenterID string `json:"center_id"`
	Balance  string `json:"balance"`
}

// ErrorResponse is the standard error envelope. Code distinguishes failure
// classes registration callers depend on (fee_calculation_failed vs
// registration_failed).
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// money renders an amount with two decimal places at the API boundary.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toStudentDTO(s billing.StudentBalance) StudentDTO {
	return StudentDTO{
		StudentID:        string(s.StudentID),
		CenterID:         string(s.CenterID),
		Name:             s.Name,
		ClassID:          string(s.ClassID),
		CourseType:       string(s.CourseType),
		EnrollmentDate:   s.EnrollmentDate.Format("2006-01-02"),
		AdmissionFeePaid: s.AdmissionFeePaid,
		TotalFeeAmount:   money(s.TotalFeeAmount),
		PaidAmount:       money(s.PaidAmount),
		PendingAmount:    money(s.PendingAmount),
		PaymentStatus:    string(s.PaymentStatus),
		IsActive:         s.IsActive,
	}
}

func toCalculationDTO(c fees.Calculation) CalculationDTO {
	entries := make([]BreakdownEntryDTO, len(c.Breakdown))
	for i, e := range c.Breakdown {
		entries[i] = BreakdownEntryDTO{
			Month:  int(e.Month),
			Year:   e.Year,
			Amount: money(e.Amount),
			Reason: e.Reason,
		}
	}
	return CalculationDTO{
		TotalDueAmount:   money(c.TotalDueAmount),
		AdmissionFee:     money(c.AdmissionFee),
		TotalMonthlyFees: money(c.TotalMonthlyFees),
		MonthlyBreakdown: entries,
	}
}

func toPaymentDTO(p billing.Payment) PaymentDTO {
	return PaymentDTO{
		ID:        p.ID,
		StudentID: string(p.StudentID),
		CenterID:  string(p.CenterID),
		Amount:    money(p.Amount),
		Note:      p.Note,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toFeeScheduleDTO(s fees.ClassFeeSchedule) FeeScheduleDTO {
	dto := FeeScheduleDTO{
		ClassID:      string(s.ClassID),
		CourseType:   string(s.CourseType),
		AdmissionFee: money(s.AdmissionFee),
	}
	if s.CourseType == fees.CourseMonthly {
		dto.MonthlyFee = money(s.MonthlyFee)
	} else {
		dto.YearlyFee = money(s.YearlyFee)
	}
	return dto
}

func toAccrualResultDTO(r billing.RunResult, dryRun bool) AccrualResultDTO {
	dto := AccrualResultDTO{
		Period:          r.Period.String(),
		DryRun:          dryRun,
		StudentsUpdated: r.StudentsUpdated,
		StudentsSkipped: r.StudentsSkipped,
		TotalFeesAdded:  money(r.TotalFeesAdded),
	}
	for _, d := range r.Details {
		dto.Students = append(dto.Students, StudentDeltaDTO{
			StudentID:  string(d.StudentID),
			Name:       d.Name,
			ClassID:    string(d.ClassID),
			Fee:        money(d.Fee),
			NewPending: money(d.NewPending),
			Skipped:    d.Skipped,
			SkipReason: d.SkipReason,
		})
	}
	return dto
}

func toAccrualRunDTO(run billing.AccrualRun) AccrualRunDTO {
	dto := AccrualRunDTO{
		ID:              run.ID,
		Period:          run.Period.String(),
		StudentsUpdated: run.StudentsUpdated,
		StudentsSkipped: run.StudentsSkipped,
		TotalFeesAdded:  money(run.TotalFeesAdded),
		StartedAt:       run.StartedAt.Format(time.RFC3339),
		Error:           run.Error,
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return dto
}
