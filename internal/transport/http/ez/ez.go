package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/domain"
	resp "carbon-tracker/internal/transport/http/response"
)

// EZ registers actions on a router group.
type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

type Binder string

const (
	BindJSON  Binder = "json"  // request body
	BindQuery Binder = "query" // ?a=b
	BindNone  Binder = "none"  // handler reads c.Param itself
)

// AErr carries an explicit envelope code.
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Action describes one endpoint: I is the bound input, O the envelope data.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool     // require a principal
	Roles   []string // optional role allow-list, implies Auth
	Handler func(c *gin.Context, p auth.Principal, in *I) (O, error)
}

// Principal returns the caller set by the auth middleware, or the zero value.
func Principal(c *gin.Context) auth.Principal {
	return auth.FromContext(c.Request.Context())
}

// Code maps an error to an envelope code and a client-facing message.
// Unknown errors are reported as 500 without leaking their text.
func Code(err error) (int, string) {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code == resp.CodeServerError {
			return ae.Code, resp.CodeMsgMap[resp.CodeServerError]
		}
		return ae.Code, ae.Error()
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedType):
		return resp.CodeBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		return resp.CodeUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return resp.CodeForbidden, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return resp.CodeNotFound, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return resp.CodeConflict, err.Error()
	}
	return resp.CodeServerError, resp.CodeMsgMap[resp.CodeServerError]
}

// Fail writes err as an error envelope. 500s are attached to the context so
// the access log records the cause.
func Fail(c *gin.Context, err error) {
	code, msg := Code(err)
	if code == resp.CodeServerError {
		_ = c.Error(err)
	}
	c.JSON(http.StatusOK, resp.Error(code, msg))
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		p := Principal(c)
		if a.Auth || len(a.Roles) > 0 {
			if err := p.RequireUser(); err != nil {
				Fail(c, err)
				return
			}
		}
		if len(a.Roles) > 0 {
			ok := false
			for _, r := range a.Roles {
				if p.Role == r {
					ok = true
					break
				}
			}
			if !ok {
				Fail(c, domain.ErrForbidden)
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		out, err := a.Handler(c, p, &in)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}
