package service

import (
	"errors"
	"net/http"
)

// serviceError carries the HTTP status the error handler reports for it.
type serviceError struct {
	status int
	msg    string
}

func (e *serviceError) Error() string   { return e.msg }
func (e *serviceError) StatusCode() int { return e.status }

var (
	ErrSessionNotFound    = &serviceError{http.StatusNotFound, "session not found"}
	ErrNodeNotFound       = &serviceError{http.StatusNotFound, "concept node not found"}
	ErrEdgeNotFound       = &serviceError{http.StatusNotFound, "concept edge not found"}
	ErrSummaryNotFound    = &serviceError{http.StatusNotFound, "summary not found"}
	ErrForbidden          = &serviceError{http.StatusForbidden, "only the session creator can do this"}
	ErrNotParticipant     = &serviceError{http.StatusForbidden, "you are not a participant of this session"}
	ErrSessionEnded       = &serviceError{http.StatusConflict, "session has already ended"}
	ErrSessionActive      = &serviceError{http.StatusConflict, "session is still active"}
	ErrSummaryExists      = &serviceError{http.StatusConflict, "session already has a summary"}
	ErrInvalidEdge        = &serviceError{http.StatusBadRequest, "edge endpoints must be two nodes of the same session"}
	ErrEmptyMessage       = &serviceError{http.StatusBadRequest, "message is empty"}
	ErrPersonaUnavailable = &serviceError{http.StatusServiceUnavailable, "the AI participant could not answer right now"}
)

// warningOf turns a non-fatal error into the warning text of a response.
func warningOf(err error) *string {
	if err == nil {
		return nil
	}
	var se *serviceError
	msg := err.Error()
	if errors.As(err, &se) {
		msg = se.msg
	}
	return &msg
}
