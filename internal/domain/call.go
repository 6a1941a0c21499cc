package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// CallState is the observable state of one request/response exchange
type CallState int

const (
	CallPending CallState = iota
	CallSucceeded
	CallFailed
)

func (s CallState) String() string {
	switch s {
	case CallPending:
		return "pending"
	case CallSucceeded:
		return "succeeded"
	case CallFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Call tracks a single asynchronous backend call for the view layer.
// It moves from pending to exactly one terminal state.
type Call struct {
	ID         string
	Label      string
	State      CallState
	StartedAt  time.Time
	FinishedAt time.Time
	Result     *UploadResult
	Err        error
}

// NewCall starts a pending call
func NewCall(label string) *Call {
	return &Call{
		ID:        ulid.Make().String(),
		Label:     label,
		State:     CallPending,
		StartedAt: time.Now(),
	}
}

// Succeed records the result. It returns false if the call already finished.
func (c *Call) Succeed(result *UploadResult) bool {
	if c.State != CallPending {
		return false
	}
	c.State = CallSucceeded
	c.Result = result
	c.FinishedAt = time.Now()
	return true
}

// Fail records the error. The result stays nil so a failed call never carries a partial report.
func (c *Call) Fail(err error) bool {
	if c.State != CallPending {
		return false
	}
	c.State = CallFailed
	c.Err = err
	c.Result = nil
	c.FinishedAt = time.Now()
	return true
}

// Finish moves the call to succeeded or failed depending on err
func (c *Call) Finish(result *UploadResult, err error) bool {
	if err != nil {
		return c.Fail(err)
	}
	return c.Succeed(result)
}

// Duration returns how long the call took, or how long it has been pending
func (c *Call) Duration() time.Duration {
	if c.FinishedAt.IsZero() {
		return time.Since(c.StartedAt)
	}
	return c.FinishedAt.Sub(c.StartedAt)
}

// Display returns the text the result area shows for this call
func (c *Call) Display() string {
	switch c.State {
	case CallSucceeded:
		return c.Result.Pretty()
	case CallFailed:
		return "Error: " + c.Err.Error()
	default:
		return ""
	}
}
