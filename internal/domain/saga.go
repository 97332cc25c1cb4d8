package domain

import "fmt"

// SagaStep is the last enrollment step committed for a course. Steps commit
// in declaration order and are never rolled back.
type SagaStep int

const (
	StepNone SagaStep = iota
	StepStudentAdded
	StepProgressCreated
	StepProfileUpdated
	StepNotified
)

func (s SagaStep) String() string {
	switch s {
	case StepStudentAdded:
		return "student_added"
	case StepProgressCreated:
		return "progress_created"
	case StepProfileUpdated:
		return "profile_updated"
	case StepNotified:
		return "notified"
	default:
		return "none"
	}
}

func (s SagaStep) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SagaStep) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none", "":
		*s = StepNone
	case "student_added":
		*s = StepStudentAdded
	case "progress_created":
		*s = StepProgressCreated
	case "profile_updated":
		*s = StepProfileUpdated
	case "notified":
		*s = StepNotified
	default:
		return fmt.Errorf("unknown saga step %q", text)
	}
	return nil
}

type CourseStatus string

const (
	CourseStatusEnrolled CourseStatus = "enrolled"
	CourseStatusFailed   CourseStatus = "failed"
	CourseStatusSkipped  CourseStatus = "skipped"
)

type CourseOutcome struct {
	CourseID   string       `json:"course_id"`
	CourseName string       `json:"course_name,omitempty"`
	ProgressID string       `json:"progress_id,omitempty"`
	LastStep   SagaStep     `json:"last_step"`
	Status     CourseStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
}

// Enrolled reports whether the durable steps (student, progress, profile)
// all committed. Notification is not required.
func (o CourseOutcome) Enrolled() bool {
	return o.LastStep >= StepProfileUpdated
}

// EnrollmentResult is the per-course log of one enrollment batch.
type EnrollmentResult struct {
	OrderID   string          `json:"order_id,omitempty"`
	UserID    string          `json:"user_id"`
	Courses   []CourseOutcome `json:"courses"`
	Completed bool            `json:"completed"`
	Duplicate bool            `json:"duplicate,omitempty"`
}

func (r *EnrollmentResult) EnrolledCourseIDs() []string {
	ids := make([]string, 0, len(r.Courses))
	for _, c := range r.Courses {
		if c.Enrolled() {
			ids = append(ids, c.CourseID)
		}
	}
	return ids
}

func (r *EnrollmentResult) FailedCourse() (CourseOutcome, bool) {
	for _, c := range r.Courses {
		if c.Status == CourseStatusFailed {
			return c, true
		}
	}
	return CourseOutcome{}, false
}
