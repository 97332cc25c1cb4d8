package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
)

// MemoryStore is a process-local store with the same semantics as
// DynamoStore. It backs STORE_BACKEND=memory and the service tests.
type MemoryStore struct {
	mu       sync.RWMutex
	courses  map[string]domain.Course
	users    map[string]domain.UserProfile
	progress map[string]domain.ProgressRecord
	payments map[string]domain.PaymentRecord
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courses:  make(map[string]domain.Course),
		users:    make(map[string]domain.UserProfile),
		progress: make(map[string]domain.ProgressRecord),
		payments: make(map[string]domain.PaymentRecord),
		now:      time.Now,
	}
}

func (m *MemoryStore) GetCourse(_ context.Context, courseID string) (*domain.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.courses[courseID]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	c.StudentsEnrolled = slices.Clone(c.StudentsEnrolled)
	return &c, nil
}

func (m *MemoryStore) PutCourse(_ context.Context, course *domain.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *course
	c.StudentsEnrolled = slices.Clone(course.StudentsEnrolled)
	m.courses[c.CourseID] = c
	return nil
}

// DeleteCourse removes a course, which lets tests make a later saga step
// fail after earlier ones committed.
func (m *MemoryStore) DeleteCourse(_ context.Context, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.courses, courseID)
	return nil
}

func (m *MemoryStore) AddStudent(_ context.Context, courseID, userID string) (*domain.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.courses[courseID]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	c.StudentsEnrolled = addToSet(c.StudentsEnrolled, userID)
	m.courses[courseID] = c

	out := c
	out.StudentsEnrolled = slices.Clone(c.StudentsEnrolled)
	return &out, nil
}

func (m *MemoryStore) GetUser(_ context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) PutUser(_ context.Context, user *domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[user.UserID] = *cloneUser(*user)
	return nil
}

func (m *MemoryStore) AddCourseToProfile(_ context.Context, userID, courseID, progressID string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Courses = addToSet(u.Courses, courseID)
	u.CourseProgress = addToSet(u.CourseProgress, progressID)
	m.users[userID] = u
	return cloneUser(u), nil
}

func (m *MemoryStore) CreateProgress(_ context.Context, courseID, userID string) (*domain.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := courseID + "#" + userID
	if p, ok := m.progress[key]; ok {
		return &p, nil
	}
	p := newProgress(courseID, userID, m.now())
	m.progress[key] = *p
	return p, nil
}

func (m *MemoryStore) GetProgress(_ context.Context, courseID, userID string) (*domain.ProgressRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.progress[courseID+"#"+userID]
	if !ok {
		return nil, ErrProgressNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ClaimPayment(_ context.Context, rec domain.PaymentRecord) (*domain.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.payments[rec.OrderID]; ok {
		return &existing, ErrPaymentAlreadyClaimed
	}
	now := m.now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.CourseIDs = slices.Clone(rec.CourseIDs)
	m.payments[rec.OrderID] = rec
	return &rec, nil
}

func (m *MemoryStore) UpdatePaymentStatus(_ context.Context, orderID string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.payments[orderID]
	if !ok {
		return ErrPaymentNotFound
	}
	rec.Status = status
	rec.UpdatedAt = m.now().UTC()
	m.payments[orderID] = rec
	return nil
}

func (m *MemoryStore) GetPayment(_ context.Context, orderID string) (*domain.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.payments[orderID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return &rec, nil
}

func addToSet(set []string, v string) []string {
	if slices.Contains(set, v) {
		return set
	}
	return append(set, v)
}

func cloneUser(u domain.UserProfile) *domain.UserProfile {
	u.Courses = slices.Clone(u.Courses)
	u.CourseProgress = slices.Clone(u.CourseProgress)
	return &u
}
