/*
handlers.go - HTTP API handlers for the tuition fee engine

PURPOSE:
  Exposes the fee calculator and accrual engine via REST. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Students:
    GET    /api/students                      List students
    POST   /api/students                      Register (calculates + persists fees atomically)
    GET    /api/students/{id}                 Student with balance fields
    GET    /api/students/{id}/postings        Accrual posting history
    GET    /api/students/{id}/payments        Payment history
    POST   /api/students/{id}/payments        Record a collection
    POST   /api/students/{id}/recalculate     Operator repair: re-run fee calculation

  Fee schedules:
    GET    /api/fees                          List price card
    POST   /api/fees                          Create/update one schedule
    POST   /api/fees/import                   Bulk JSON import

  Accrual:
    POST   /api/admin/accruals/run            Run the monthly batch (optional explicit period)
    GET    /api/admin/accruals/preview        Dry run
    GET    /api/admin/accruals/runs           Run history

  Wallets:
    GET    /api/centers/{id}/wallet           Center wallet balance

ERROR HANDLING:
  Errors are returned as JSON with an HTTP status and a machine-readable
  code. Registration distinguishes fee_calculation_failed (no student row
  was created) from registration_failed (persistence problem), so partial
  states can be detected and repaired via /recalculate.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/billing"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     billing.TxStore
	Registrar *billing.Registrar
	Payments  *billing.PaymentRecorder
	Engine    *billing.AccrualEngine

	validate *validator.Validate
}

// NewHandler wires a handler over the given store.
func NewHandler(store billing.TxStore) *Handler {
	return &Handler{
		Store:     store,
		Registrar: billing.NewRegistrar(store),
		Payments:  billing.NewPaymentRecorder(store),
		Engine:    billing.NewAccrualEngine(store),
		validate:  validator.New(),
	}
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns all students.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Store.ListStudents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", "", err)
		return
	}

	dtos := make([]StudentDTO, len(students))
	for i, s := range students {
		dtos[i] = toStudentDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStudent returns a single student with balance fields.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id := fees.StudentID(chi.URLParam(r, "id"))

	student, err := h.Store.GetStudent(r.Context(), id)
	if errors.Is(err, billing.ErrStudentNotFound) {
		writeError(w, http.StatusNotFound, "Student not found", "student_not_found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", "", err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(student))
}

// RegisterStudent enrolls a student: fees are calculated and the seeded row
// is persisted in one transaction, so a calculation failure creates nothing.
func (h *Handler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req RegisterStudentRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request", err)
		return
	}

	enrollmentDate, err := time.Parse("2006-01-02", req.EnrollmentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid enrollment_date format (use YYYY-MM-DD)", "invalid_request", err)
		return
	}

	student, calc, err := h.Registrar.Register(r.Context(), billing.Enrollment{
		StudentID:        fees.StudentID(req.StudentID),
		CenterID:         fees.CenterID(req.CenterID),
		Name:             req.Name,
		ClassID:          fees.ClassID(req.ClassID),
		CourseType:       fees.CourseType(req.CourseType),
		EnrollmentDate:   enrollmentDate,
		AdmissionFeePaid: req.AdmissionFeePaid,
	})
	if err != nil {
		if fees.IsFatalToRegistration(err) {
			// No student row exists; the caller must fix the input or the
			// price card before retrying.
			writeError(w, http.StatusUnprocessableEntity, err.Error(), "fee_calculation_failed", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to register student", "registration_failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterStudentResponse{
		Student:     toStudentDTO(student),
		Calculation: toCalculationDTO(calc),
	})
}

// RecalculateStudent re-runs the fee calculation for an existing student.
// Operator repair path for partial registrations.
func (h *Handler) RecalculateStudent(w http.ResponseWriter, r *http.Request) {
	id := fees.StudentID(chi.URLParam(r, "id"))

	student, calc, err := h.Registrar.Recalculate(r.Context(), id)
	if errors.Is(err, billing.ErrStudentNotFound) {
		writeError(w, http.StatusNotFound, "Student not found", "student_not_found", err)
		return
	}
	if err != nil {
		if fees.IsFatalToRegistration(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error(), "fee_calculation_failed", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to recalculate fees", "", err)
		return
	}

	writeJSON(w, http.StatusOK, RegisterStudentResponse{
		Student:     toStudentDTO(student),
		Calculation: toCalculationDTO(calc),
	})
}

// GetStudentPostings returns a student's accrual posting history.
func (h *Handler) GetStudentPostings(w http.ResponseWriter, r *http.Request) {
	id := fees.StudentID(chi.URLParam(r, "id"))

	postings, err := h.Store.PostingsForStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list postings", "", err)
		return
	}

	type postingDTO struct {
		ID        string `json:"id"`
		Period    string `json:"period"`
		Amount    string `json:"amount"`
		Reason    string `json:"reason,omitempty"`
		CreatedAt string `json:"created_at"`
	}
	dtos := make([]postingDTO, len(postings))
	for i, p := range postings {
		dtos[i] = postingDTO{
			ID:        p.ID,
			Period:    p.Period.String(),
			Amount:    money(p.Amount),
			Reason:    p.Reason,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// RecordPayment applies a collection to a student's balance and credits the
// center wallet.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id := fees.StudentID(chi.URLParam(r, "id"))

	var req RecordPaymentRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", "invalid_request", err)
		return
	}

	student, payment, err := h.Payments.RecordPayment(r.Context(), id, amount, req.Note)
	if errors.Is(err, billing.ErrStudentNotFound) {
		writeError(w, http.StatusNotFound, "Student not found", "student_not_found", err)
		return
	}
	if errors.Is(err, billing.ErrInvalidPaymentAmount) {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record payment", "", err)
		return
	}

	writeJSON(w, http.StatusCreated, RecordPaymentResponse{
		Payment: toPaymentDTO(payment),
		Student: toStudentDTO(student),
	})
}

// GetStudentPayments returns a student's payment history.
func (h *Handler) GetStudentPayments(w http.ResponseWriter, r *http.Request) {
	id := fees.StudentID(chi.URLParam(r, "id"))

	payments, err := h.Store.PaymentsForStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", "", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWallet returns a center's wallet balance.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	centerID := fees.CenterID(chi.URLParam(r, "id"))

	balance, err := h.Store.WalletBalance(r.Context(), centerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load wallet", "", err)
		return
	}
	writeJSON(w, http.StatusOK, WalletDTO{CenterID: string(centerID), Balance: money(balance)})
}

// =============================================================================
// FEE SCHEDULE HANDLERS
// =============================================================================

// ListFeeSchedules returns the full price card.
func (h *Handler) ListFeeSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Store.ListFeeSchedules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list fee schedules", "", err)
		return
	}

	dtos := make([]FeeScheduleDTO, len(schedules))
	for i, s := range schedules {
		dtos[i] = toFeeScheduleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveFeeSchedule creates or updates one schedule.
func (h *Handler) SaveFeeSchedule(w http.ResponseWriter, r *http.Request) {
	var req SaveFeeScheduleRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request", err)
		return
	}

	schedule, err := fees.ScheduleJSON{
		ClassID:      req.ClassID,
		CourseType:   req.CourseType,
		AdmissionFee: req.AdmissionFee,
		MonthlyFee:   req.MonthlyFee,
		YearlyFee:    req.YearlyFee,
	}.ToSchedule()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_schedule", err)
		return
	}

	if err := h.Store.SaveFeeSchedule(r.Context(), schedule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save fee schedule", "", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeeScheduleDTO(schedule))
}

// ImportFeeSchedules bulk-imports a JSON price card. All-or-nothing.
func (h *Handler) ImportFeeSchedules(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", "invalid_request", err)
		return
	}

	schedules, err := fees.ParseScheduleFile(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_schedule", err)
		return
	}

	err = h.Store.WithTx(r.Context(), func(tx billing.Store) error {
		for _, s := range schedules {
			if err := tx.SaveFeeSchedule(r.Context(), s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to import fee schedules", "", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{"imported": len(schedules)})
}

// =============================================================================
// ACCRUAL HANDLERS
// =============================================================================

// RunAccrual triggers the monthly batch. Safe to re-trigger: the posting
// ledger rejects duplicate periods per student.
func (h *Handler) RunAccrual(w http.ResponseWriter, r *http.Request) {
	var req RunAccrualRequest
	if r.ContentLength > 0 {
		if err := h.decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "invalid_request", err)
			return
		}
	}

	period, err := parsePeriod(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period format (use YYYY-MM)", "invalid_request", err)
		return
	}

	result, err := h.Engine.Run(r.Context(), period)
	if errors.Is(err, billing.ErrAccrualRunInProgress) {
		writeError(w, http.StatusConflict, "An accrual run is already in progress", "run_in_progress", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Accrual run failed", "accrual_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccrualResultDTO(result, false))
}

// PreviewAccrual computes the per-student deltas without committing.
func (h *Handler) PreviewAccrual(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period format (use YYYY-MM)", "invalid_request", err)
		return
	}

	result, err := h.Engine.Preview(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Accrual preview failed", "accrual_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccrualResultDTO(result, true))
}

// ListAccrualRuns returns run history, newest first.
func (h *Handler) ListAccrualRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accrual runs", "", err)
		return
	}

	dtos := make([]AccrualRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toAccrualRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// decode unmarshals and validates a request body.
func (h *Handler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return h.validate.Struct(v)
}

// parsePeriod parses "YYYY-MM"; empty input means the zero period (engine
// substitutes the current month).
func parsePeriod(s string) (billing.AccrualPeriod, error) {
	if s == "" {
		return billing.AccrualPeriod{}, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return billing.AccrualPeriod{}, err
	}
	return billing.PeriodOf(t), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil && message != err.Error() {
		resp.Error = message + ": " + err.Error()
	}
	writeJSON(w, status, resp)
}
