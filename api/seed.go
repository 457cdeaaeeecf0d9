/*
seed.go - Demo data loader

PURPOSE:
  Loads a small, self-consistent data set (price card + a handful of
  students) for local development and demos. Goes through the same
  registration path as the API, so seeded students have real calculated
  fees rather than hand-typed numbers.
*/
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/billing"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

var seedScheduleJSON = []byte(`{
  "schedules": [
    {"class_id": "class-8",  "course_type": "monthly", "admission_fee": "750",  "monthly_fee": "400"},
    {"class_id": "class-9",  "course_type": "monthly", "admission_fee": "1000", "monthly_fee": "450"},
    {"class_id": "class-10", "course_type": "monthly", "admission_fee": "1000", "monthly_fee": "500"},
    {"class_id": "class-10", "course_type": "yearly",  "admission_fee": "1000", "yearly_fee": "5500"}
  ]
}`)

type seedStudent struct {
	id               string
	name             string
	classID          string
	courseType       fees.CourseType
	enrolledDaysAgo  int
	admissionFeePaid bool
}

var seedStudents = []seedStudent{
	{"stu-001", "Anitha Rao", "class-10", fees.CourseMonthly, 95, false},
	{"stu-002", "Kiran Kumar", "class-10", fees.CourseMonthly, 40, true},
	{"stu-003", "Divya Sharma", "class-9", fees.CourseMonthly, 12, false},
	{"stu-004", "Ravi Teja", "class-10", fees.CourseYearly, 60, false},
	{"stu-005", "Meena Patel", "class-8", fees.CourseMonthly, 3, true},
}

// LoadSeedData installs the demo price card and registers the demo students.
// Idempotent in effect: re-seeding overwrites schedules and re-registers
// students with freshly calculated fees.
func (h *Handler) LoadSeedData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	schedules, err := fees.ParseScheduleFile(seedScheduleJSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to parse seed schedules", "", err)
		return
	}
	for _, s := range schedules {
		if err := h.Store.SaveFeeSchedule(ctx, s); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save seed schedule", "", err)
			return
		}
	}

	registered := 0
	for _, ss := range seedStudents {
		_, _, err := h.Registrar.Register(ctx, billing.Enrollment{
			StudentID:        fees.StudentID(ss.id),
			CenterID:         "center-demo",
			Name:             ss.name,
			ClassID:          fees.ClassID(ss.classID),
			CourseType:       ss.courseType,
			EnrollmentDate:   time.Now().UTC().AddDate(0, 0, -ss.enrolledDaysAgo),
			AdmissionFeePaid: ss.admissionFeePaid,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to seed student %s", ss.id), "", err)
			return
		}
		registered++
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"schedules": len(schedules),
		"students":  registered,
	})
}
