package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carlostcba/GustadosPOS-sub000/pkg/errorbank"
)

type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *errorBody     `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type errorBody struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Builder assembles the JSON envelope every endpoint responds with.
type Builder struct {
	ctx    echo.Context
	status int
	data   any
	err    error
	meta   map[string]any
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// WithMeta appends auxiliary metadata to the response.
func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// Build finalises and emits the HTTP response. Errors are translated
// through errorbank so the status code follows the error kind unless an
// explicit status was set.
func (b *Builder) Build() error {
	if b.err == nil {
		return b.ctx.JSON(b.status, envelope{
			Success: true,
			Data:    b.data,
			Meta:    b.meta,
		})
	}

	appErr := errorbank.From(b.err)
	status := b.status
	if status < http.StatusBadRequest {
		status = appErr.StatusCode()
	}

	return b.ctx.JSON(status, envelope{
		Success: false,
		Error: &errorBody{
			Kind:    string(appErr.Kind()),
			Message: appErr.Message(),
			Details: appErr.Details(),
		},
		Meta: b.meta,
	})
}
