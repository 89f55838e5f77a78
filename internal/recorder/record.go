// Package recorder keeps the in-memory log of captured HTTP exchanges.
package recorder

import (
	"net/http"
	"time"
)

// State is the lifecycle state of a record.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// RequestRecord describes an outbound request as dispatched.
type RequestRecord struct {
	URL           string
	Method        string
	Header        http.Header
	Body          []byte // nil when the body could not be captured without consuming it
	BodyTruncated bool
	CreatedAt     time.Time
}

// ResponseRecord describes a received response.
type ResponseRecord struct {
	StatusCode     int
	Status         string
	Proto          string
	Header         http.Header
	Body           []byte
	BodyTruncated  bool         // capture stopped at the body limit
	BodyIncomplete bool         // caller closed the body early or a read failed
	BodyError      *ErrorRecord // the failed read, if any
	ReceivedAt     time.Time
}

// Error domains for ErrorRecord.Domain.
const (
	DomainContext   = "context"
	DomainNet       = "net"
	DomainErrno     = "errno"
	DomainTransport = "transport"
)

// Error codes used outside DomainErrno.
const (
	CodeUnknown  = 0
	CodeCanceled = 1
	CodeTimeout  = 2
)

// ErrorRecord describes a failed exchange.
type ErrorRecord struct {
	Description string
	Domain      string
	Code        int
}

// Record is one captured exchange. It holds at most one of Response or Err.
type Record struct {
	ID       string
	Request  RequestRecord
	Response *ResponseRecord
	Err      *ErrorRecord
	Duration *time.Duration
}

// State reports whether the exchange is still in flight.
func (r *Record) State() State {
	switch {
	case r.Response != nil:
		return StateCompleted
	case r.Err != nil:
		return StateFailed
	default:
		return StatePending
	}
}

// Outcome is the terminal result of an exchange. Build it with
// ResponseOutcome or ErrorOutcome.
type Outcome struct {
	response *ResponseRecord
	err      *ErrorRecord
	at       time.Time
}

// ResponseOutcome completes an exchange with a response.
func ResponseOutcome(resp ResponseRecord) Outcome {
	return Outcome{response: &resp}
}

// ErrorOutcome completes an exchange with an error.
func ErrorOutcome(e ErrorRecord) Outcome {
	return Outcome{err: &e}
}

func (o Outcome) valid() bool {
	return (o.response == nil) != (o.err == nil)
}

// Body targets name which side of an exchange a body belongs to.
const (
	TargetRequest  = "request"
	TargetResponse = "response"
)

// Body returns the captured body and headers for target. ok is false for an
// unknown target or for a response that has not arrived.
func (r *Record) Body(target string) (body []byte, header http.Header, ok bool) {
	switch target {
	case TargetRequest:
		return r.Request.Body, r.Request.Header, true
	case TargetResponse:
		if r.Response == nil {
			return nil, nil, false
		}
		return r.Response.Body, r.Response.Header, true
	default:
		return nil, nil, false
	}
}
