package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrAssessmentNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "assessment")
}

type ErrAssessmentAccessForbidden struct {
	error
}

func NewErrAssessmentAccessForbidden(id uuid.UUID, username string) *ErrAssessmentAccessForbidden {
	return &ErrAssessmentAccessForbidden{fmt.Errorf("forbidden to access assessment %s by user %s", id, username)}
}

func NewErrAssessmentCreationForbidden(owner, username string) *ErrAssessmentAccessForbidden {
	return &ErrAssessmentAccessForbidden{fmt.Errorf("user %s is not allowed to create assessments for %s", username, owner)}
}

type ErrAssessmentAlreadyFinalized struct {
	error
}

func NewErrAssessmentAlreadyFinalized(id uuid.UUID, status string) *ErrAssessmentAlreadyFinalized {
	return &ErrAssessmentAlreadyFinalized{fmt.Errorf("assessment %s is already %s", id, status)}
}

type ErrAssessmentDuplicateID struct {
	error
}

func NewErrAssessmentDuplicateID(id uuid.UUID) *ErrAssessmentDuplicateID {
	return &ErrAssessmentDuplicateID{fmt.Errorf("assessment %s already exists", id)}
}

type ErrInvalidResult struct {
	error
}

func NewErrInvalidResult(format string, args ...any) *ErrInvalidResult {
	return &ErrInvalidResult{fmt.Errorf(format, args...)}
}

type ErrUnsupportedReportFormat struct {
	error
}

func NewErrUnsupportedReportFormat(format string) *ErrUnsupportedReportFormat {
	return &ErrUnsupportedReportFormat{fmt.Errorf("unsupported report format: %s", format)}
}
