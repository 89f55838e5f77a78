package interceptor

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/usestring/httpinspect/internal/recorder"
)

// Classify converts a transport error into an ErrorRecord. The description is
// always err.Error(); only the domain and code are derived.
func Classify(err error) recorder.ErrorRecord {
	rec := recorder.ErrorRecord{
		Description: err.Error(),
		Domain:      recorder.DomainTransport,
		Code:        recorder.CodeUnknown,
	}

	var errno syscall.Errno
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		rec.Domain = recorder.DomainContext
		rec.Code = recorder.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		rec.Domain = recorder.DomainContext
		rec.Code = recorder.CodeTimeout
	case errors.As(err, &errno):
		rec.Domain = recorder.DomainErrno
		rec.Code = int(errno)
	case errors.As(err, &netErr):
		rec.Domain = recorder.DomainNet
		if netErr.Timeout() {
			rec.Code = recorder.CodeTimeout
		}
	}
	return rec
}
