package domain

import (
	"slices"
	"time"
)

type Course struct {
	CourseID         string   `json:"course_id" dynamodbav:"course_id"`
	CourseName       string   `json:"course_name" dynamodbav:"course_name"`
	Price            float64  `json:"price" dynamodbav:"price"` // major currency units
	InstructorID     string   `json:"instructor_id,omitempty" dynamodbav:"instructor_id,omitempty"`
	StudentsEnrolled []string `json:"students_enrolled,omitempty" dynamodbav:"students_enrolled,stringset,omitempty"`
}

func (c *Course) HasStudent(userID string) bool {
	return slices.Contains(c.StudentsEnrolled, userID)
}

type UserProfile struct {
	UserID         string   `json:"user_id" dynamodbav:"user_id"`
	Email          string   `json:"email" dynamodbav:"email"`
	FirstName      string   `json:"first_name" dynamodbav:"first_name"`
	LastName       string   `json:"last_name" dynamodbav:"last_name"`
	Courses        []string `json:"courses,omitempty" dynamodbav:"courses,stringset,omitempty"`
	CourseProgress []string `json:"course_progress,omitempty" dynamodbav:"course_progress,stringset,omitempty"`
}

func (u *UserProfile) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ProgressRecord tracks completed content units for one (course, user) pair.
type ProgressRecord struct {
	ProgressID      string    `json:"progress_id" dynamodbav:"progress_id"`
	CourseID        string    `json:"course_id" dynamodbav:"course_id"`
	UserID          string    `json:"user_id" dynamodbav:"user_id"`
	CompletedVideos []string  `json:"completed_videos" dynamodbav:"completed_videos"`
	CreatedAt       time.Time `json:"created_at" dynamodbav:"created_at"`
}

type PaymentStatus string

const (
	PaymentStatusProcessing     PaymentStatus = "processing"
	PaymentStatusCompleted      PaymentStatus = "completed"
	PaymentStatusPartialFailure PaymentStatus = "partial_failure"
)

// PaymentRecord marks a gateway order as consumed by the verify flow.
type PaymentRecord struct {
	OrderID   string        `json:"order_id" dynamodbav:"order_id"`
	PaymentID string        `json:"payment_id" dynamodbav:"payment_id"`
	UserID    string        `json:"user_id" dynamodbav:"user_id"`
	CourseIDs []string      `json:"course_ids" dynamodbav:"course_ids"`
	Status    PaymentStatus `json:"status" dynamodbav:"status"`
	CreatedAt time.Time     `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" dynamodbav:"updated_at"`
}
