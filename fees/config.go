/*
config.go - JSON fee schedule definitions

PURPOSE:
  Converts JSON fee schedule definitions into ClassFeeSchedule values. This
  enables fee configuration without code changes - center admins can upload
  a price card in JSON and the parser produces the proper Go structs.

WHY JSON?
  - Non-developers can maintain the price card
  - Easy integration with the admin UI bulk-import endpoint
  - Version control for fee revisions

JSON SCHEMA:
  {
    "schedules": [
      {
        "class_id": "class-10",
        "course_type": "monthly",
        "admission_fee": "1000",
        "monthly_fee": "500"
      },
      {
        "class_id": "class-10",
        "course_type": "yearly",
        "admission_fee": "1000",
        "yearly_fee": "5500"
      }
    ]
  }

  Amounts are JSON strings, parsed as decimals. Floats are rejected to avoid
  silent precision loss on money.

SEE ALSO:
  - schedule.go: ClassFeeSchedule validation
  - api/handlers.go: Bulk import endpoint using this parser
*/
package fees

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ScheduleFileJSON is the top-level bulk import document.
type ScheduleFileJSON struct {
	Schedules []ScheduleJSON `json:"schedules"`
}

// ScheduleJSON is the JSON representation of one fee schedule.
type ScheduleJSON struct {
	ClassID      string `json:"class_id"`
	CourseType   string `json:"course_type"`
	AdmissionFee string `json:"admission_fee"`
	MonthlyFee   string `json:"monthly_fee,omitempty"`
	YearlyFee    string `json:"yearly_fee,omitempty"`
}

// =============================================================================
// SCHEDULE PARSER
// =============================================================================

// ParseScheduleFile parses a bulk import document and validates every entry.
// Either all schedules parse and validate, or an error names the first bad one.
func ParseScheduleFile(data []byte) ([]ClassFeeSchedule, error) {
	var file ScheduleFileJSON
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schedule JSON: %w", err)
	}
	if len(file.Schedules) == 0 {
		return nil, fmt.Errorf("schedule file contains no schedules")
	}

	schedules := make([]ClassFeeSchedule, 0, len(file.Schedules))
	for i, sj := range file.Schedules {
		s, err := sj.ToSchedule()
		if err != nil {
			return nil, fmt.Errorf("schedule %d (%s/%s): %w", i, sj.ClassID, sj.CourseType, err)
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

// ToSchedule converts the JSON form into a validated ClassFeeSchedule.
func (sj ScheduleJSON) ToSchedule() (ClassFeeSchedule, error) {
	s := ClassFeeSchedule{
		ClassID:    ClassID(sj.ClassID),
		CourseType: CourseType(sj.CourseType),
	}

	var err error
	if s.AdmissionFee, err = parseAmount(sj.AdmissionFee, "admission_fee"); err != nil {
		return ClassFeeSchedule{}, err
	}
	if sj.MonthlyFee != "" {
		if s.MonthlyFee, err = parseAmount(sj.MonthlyFee, "monthly_fee"); err != nil {
			return ClassFeeSchedule{}, err
		}
	}
	if sj.YearlyFee != "" {
		if s.YearlyFee, err = parseAmount(sj.YearlyFee, "yearly_fee"); err != nil {
			return ClassFeeSchedule{}, err
		}
	}

	if err := s.Validate(); err != nil {
		return ClassFeeSchedule{}, err
	}
	return s, nil
}

func parseAmount(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return d, nil
}
