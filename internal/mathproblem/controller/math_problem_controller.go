package controller

import (
	"mime"
	"net/http"
	"sort"
	"strconv"
	"time"

	"mathtutor/internal/mathproblem/model"
	"mathtutor/internal/mathproblem/service"
	pkgerrors "mathtutor/pkg/errors"
	"mathtutor/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// MathProblemController exposes the math problem procedures over HTTP.
type MathProblemController struct {
	service    *service.MathProblemService
	procedures map[string]Procedure
}

// Option configures a MathProblemController.
type Option func(*controllerOptions)

type controllerOptions struct {
	now func() time.Time
}

// WithClock overrides the healthcheck timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *controllerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewMathProblemController creates a new MathProblemController.
func NewMathProblemController(svc *service.MathProblemService, opts ...Option) *MathProblemController {
	o := controllerOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &MathProblemController{
		service:    svc,
		procedures: buildProcedures(svc, o.now),
	}
}

// RegisterRoutes mounts the procedure endpoints and the SVG file download.
func (h *MathProblemController) RegisterRoutes(router gin.IRouter) {
	router.GET("/rpc/:procedure", h.Query)
	router.POST("/rpc/:procedure", h.Mutate)
	router.GET("/api/v1/math-problems/:id/svg", h.DownloadSVGFile)
}

// Procedures lists the registered procedure names, sorted.
func (h *MathProblemController) Procedures() []string {
	names := make([]string, 0, len(h.procedures))
	for name := range h.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Query handles GET /rpc/:procedure?input=<json>.
func (h *MathProblemController) Query(c *gin.Context) {
	h.dispatch(c, Query, []byte(c.Query("input")))
}

// Mutate handles POST /rpc/:procedure with a JSON body.
func (h *MathProblemController) Mutate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	h.dispatch(c, Mutation, body)
}

func (h *MathProblemController) dispatch(c *gin.Context, kind ProcedureKind, input []byte) {
	name := c.Param("procedure")
	procedure, ok := h.procedures[name]
	if !ok {
		response.NotFound(c, "No procedure found on path \""+name+"\"")
		return
	}
	if procedure.Kind != kind {
		response.MethodNotAllowed(c, "Procedure \""+name+"\" is a "+procedure.Kind.String())
		return
	}

	data, err := procedure.Handle(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, data)
}

// DownloadSVGFile serves a problem's SVG as an attachment.
func (h *MathProblemController) DownloadSVGFile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, pkgerrors.ValidationError("id", "must be a positive integer"))
		return
	}

	download, err := h.service.DownloadSVG(c.Request.Context(), model.ByIDInput{ID: id})
	if err != nil {
		response.Error(c, err)
		return
	}
	if download == nil {
		response.Error(c, pkgerrors.New(pkgerrors.MathProblemNotFound).WithDetail("id", id))
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": download.Filename}))
	c.Data(http.StatusOK, download.MimeType, []byte(download.Content))
}
