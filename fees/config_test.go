package fees_test

import (
	"testing"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

func TestParseScheduleFile_Valid(t *testing.T) {
	data := []byte(`{
		"schedules": [
			{"class_id": "class-10", "course_type": "monthly", "admission_fee": "1000", "monthly_fee": "500"},
			{"class_id": "class-10", "course_type": "yearly", "admission_fee": "1000", "yearly_fee": "5500"}
		]
	}`)

	schedules, err := fees.ParseScheduleFile(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(schedules))
	}
	if !schedules[0].MonthlyFee.Equal(amt("500")) {
		t.Errorf("expected monthly fee 500, got %v", schedules[0].MonthlyFee)
	}
	if !schedules[1].YearlyFee.Equal(amt("5500")) {
		t.Errorf("expected yearly fee 5500, got %v", schedules[1].YearlyFee)
	}
}

func TestParseScheduleFile_AllOrNothing(t *testing.T) {
	// One bad entry fails the whole file; partial price cards are worse
	// than no price card.
	data := []byte(`{
		"schedules": [
			{"class_id": "class-10", "course_type": "monthly", "admission_fee": "1000", "monthly_fee": "500"},
			{"class_id": "class-9", "course_type": "monthly", "admission_fee": "1000", "monthly_fee": "abc"}
		]
	}`)

	if _, err := fees.ParseScheduleFile(data); err == nil {
		t.Fatal("expected error for invalid monthly_fee")
	}
}

func TestParseScheduleFile_Empty(t *testing.T) {
	if _, err := fees.ParseScheduleFile([]byte(`{"schedules": []}`)); err == nil {
		t.Fatal("expected error for empty schedule file")
	}
}

func TestParseScheduleFile_NumericAmountRejected(t *testing.T) {
	// Amounts are strings on the wire; a JSON number is a schema error.
	data := []byte(`{
		"schedules": [
			{"class_id": "class-10", "course_type": "monthly", "admission_fee": 1000, "monthly_fee": "500"}
		]
	}`)

	if _, err := fees.ParseScheduleFile(data); err == nil {
		t.Fatal("expected error for numeric admission_fee")
	}
}

func TestScheduleJSON_MonthlyCourseRequiresMonthlyFee(t *testing.T) {
	_, err := fees.ScheduleJSON{
		ClassID:      "class-10",
		CourseType:   "monthly",
		AdmissionFee: "1000",
	}.ToSchedule()
	if err == nil {
		t.Fatal("expected error for monthly course without monthly fee")
	}
}

func TestScheduleJSON_YearlyCourseRequiresYearlyFee(t *testing.T) {
	_, err := fees.ScheduleJSON{
		ClassID:      "class-10",
		CourseType:   "yearly",
		AdmissionFee: "1000",
		MonthlyFee:   "500",
	}.ToSchedule()
	if err == nil {
		t.Fatal("expected error for yearly course without yearly fee")
	}
}
