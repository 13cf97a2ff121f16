package response

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Err struct {
	StatusCode int    `json:"-"`
	Msg        string `json:"error"`

	// internal holds the wrapped cause of a 500; it is logged, never rendered.
	internal error
}

func (e *Err) Error() string {
	return e.Msg
}

func ErrBadRequest(err error) *Err {
	return &Err{
		StatusCode: http.StatusBadRequest,
		Msg:        err.Error(),
	}
}

func ErrUnauthorized(msg string) *Err {
	return &Err{
		StatusCode: http.StatusUnauthorized,
		Msg:        msg,
	}
}

func ErrWrongCredentials(err error) *Err {
	return &Err{
		StatusCode: http.StatusUnauthorized,
		Msg:        err.Error(),
	}
}

func ErrPermissionDenied(err error) *Err {
	return &Err{
		StatusCode: http.StatusForbidden,
		Msg:        err.Error(),
	}
}

func ErrNotFound(resource, key string, value interface{}) *Err {
	return &Err{
		StatusCode: http.StatusNotFound,
		Msg:        fmt.Sprintf("%v not found by %v (%v)", resource, key, value),
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		StatusCode: http.StatusInternalServerError,
		Msg:        "something went wrong",
		internal:   err,
	}
}

// RenderErr writes the error response. Internals behind a 500 are logged and
// never leak to the caller.
func RenderErr(ctx *gin.Context, err *Err) {
	if err.StatusCode == http.StatusInternalServerError {
		zap.L().Error("internal server error", zap.Error(err.internal))
	}

	ctx.AbortWithStatusJSON(err.StatusCode, err)
}

// DuplicateScan is the 400 body for a re-scanned ticket; it surfaces who
// already checked in and when, since staff commonly re-scan exit queues.
type DuplicateScan struct {
	Error             string    `json:"error"`
	PreviousTimestamp time.Time `json:"previous_timestamp"`
	ParticipantName   string    `json:"participant_name"`
}

func RenderDuplicateScan(ctx *gin.Context, previous time.Time, participantName string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, DuplicateScan{
		Error:             "ticket already scanned",
		PreviousTimestamp: previous,
		ParticipantName:   participantName,
	})
}
