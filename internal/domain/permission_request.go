package domain

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// PermissionRequest is the audit record of one request to speak.
type PermissionRequest struct {
	ID          uuid.UUID
	StudentID   string
	StudentName string
	RequestedAt time.Time
	Status      RequestStatus
	HandledAt   *time.Time
	HandledBy   string
}

func NewPermissionRequest(studentID, studentName string, now time.Time) *PermissionRequest {
	return &PermissionRequest{
		ID:          uuid.New(),
		StudentID:   studentID,
		StudentName: studentName,
		RequestedAt: now,
		Status:      RequestPending,
	}
}

// Resolution closes the pending request of a student, if there is one.
type Resolution struct {
	StudentID string
	Status    RequestStatus
	HandledAt time.Time
	HandledBy string
}

// Resolve applies res to r when r is the pending request it targets.
func (r *PermissionRequest) Resolve(res *Resolution) bool {
	if r.Status != RequestPending || r.StudentID != res.StudentID {
		return false
	}
	r.Status = res.Status
	r.HandledAt = timePtr(res.HandledAt)
	r.HandledBy = res.HandledBy
	return true
}

func (r *PermissionRequest) Clone() *PermissionRequest {
	c := *r
	if r.HandledAt != nil {
		c.HandledAt = timePtr(*r.HandledAt)
	}
	return &c
}
