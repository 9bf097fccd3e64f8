package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"formsportal/internal/middleware"
	"formsportal/internal/model"
	"formsportal/internal/service"
	"formsportal/pkg/pagination"
	"formsportal/pkg/response"

	"github.com/gin-gonic/gin"
)

// FormHandler serves the request endpoints of every registered form. Each
// form gets its own set of routes, all backed by the same services.
type FormHandler struct {
	requests service.RequestService
	machine  service.StatusMachine
	export   service.ExportService
	auth     *middleware.Auth
	limiter  gin.HandlerFunc
	forms    []model.FormType
}

func NewFormHandler(
	requests service.RequestService,
	machine service.StatusMachine,
	export service.ExportService,
	auth *middleware.Auth,
	limiter gin.HandlerFunc,
	forms []model.FormType,
) *FormHandler {
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}
	return &FormHandler{
		requests: requests,
		machine:  machine,
		export:   export,
		auth:     auth,
		limiter:  limiter,
		forms:    forms,
	}
}

func (h *FormHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	api.GET("/forms", h.auth.RequireRole(), h.ListForms)

	for _, f := range h.forms {
		access := h.auth.RequireFormAccess(f.Key)
		api.GET("/"+f.Key+"/next-code", access, h.NextCode(f))
		api.POST("/"+f.Key, access, h.limiter, h.Create(f))
		api.GET("/"+f.Key, access, h.List(f))
		api.GET("/"+f.Key+"_items", access, h.Items(f))
		api.PUT("/update_"+f.Key, access, h.limiter, h.Update(f))
		api.GET("/"+f.Key+"/export", access, h.Export(f))
		api.GET("/"+f.Key+"/:code", access, h.Get(f))
		api.GET("/"+f.Key+"/:code/history", access, h.History(f))
	}
}

type formInfo struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Prefix     string   `json:"prefix"`
	CodeWidth  int      `json:"code_width"`
	Statuses   []string `json:"statuses"`
	ItemFields []string `json:"item_fields"`
}

// ListForms godoc
// @Summary      List form types
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Router       /api/forms [get]
func (h *FormHandler) ListForms(c *gin.Context) {
	out := make([]formInfo, 0, len(h.forms))
	for _, f := range h.forms {
		out = append(out, formInfo{
			Key:        f.Key,
			Name:       f.Name,
			Prefix:     f.Prefix,
			CodeWidth:  f.CodeWidth,
			Statuses:   f.Statuses(),
			ItemFields: f.ItemFields,
		})
	}
	c.JSON(http.StatusOK, out)
}

// NextCode previews the code the next submission will most likely get.
func (h *FormHandler) NextCode(form model.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := h.requests.NextCode(c.Request.Context(), form)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"nextCode": code})
	}
}

func (h *FormHandler) Create(form model.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := decodeBody(c.Request.Body)
		if err != nil {
			badRequest(c, "invalid JSON body")
			return
		}

		in := service.CreateRequestInput{Fields: body, Actor: actorFrom(c)}
		if raw, ok := body["items"].([]interface{}); ok {
			for _, item := range raw {
				fields, _ := item.(map[string]interface{})
				in.Items = append(in.Items, fields)
			}
		}
		if draft, ok := body["draft"].(bool); ok {
			in.Draft = draft
		}

		req, err := h.requests.Create(c.Request.Context(), form, in)
		if err != nil {
			writeError(c, err)
			return
		}
		msg := fmt.Sprintf("%s %s submitted", form.Name, req.FormCode)
		if in.Draft {
			msg = fmt.Sprintf("%s %s saved as draft", form.Name, req.FormCode)
		}
		c.JSON(http.StatusCreated, response.Message(msg, req))
	}
}

// List returns the form's requests newest first with their items. page and
// limit are optional; without them every row is returned.
func (h *FormHandler) List(form model.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseFilter(c)
		if !ok {
			return
		}
		rows, err := h.requests.List(c.Request.Context(), form, filter)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func (h *FormHandler) Items(form model.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, err := strconv.ParseInt(c.Query("request_id"), 10, 64)
		if err != nil || requestID <= 0 {
			badRequest(c, "request_id is required")
			return
		}
		items, err := h.requests.Items(c.Request.Context(), form, requestID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// Update applies a status transition. The body names the request by
// form_code (or id) and carries the target status plus its fields.
func (h *FormHandler) Update(form model.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := decodeBody(c.Request.Body)
		if err != nil {
			badRequest(c, "invalid JSON body")
			return
		}

		in := service.TransitionInput{Fields: map[string]string{}, Actor: actorFrom(c)}
		for k, v := range body {
			switch k {
			case "form_code", "code":
				in.Code = strings.TrimSpace(scalarString(v))
			case "id":
				in.ID, _ = strconv.ParseInt(scalarString(v), 10, 64)
			case "status":
				in.Status = scalarString(v)
			default:
				if s := scalarString(v); s != "" {
					in.Fields[k] = s
				}
			}
		}

		req, err := h.machine.Apply(c.Request.Context(), form, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, req)
	}
}

func (h *FormHandler) Get(form model.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := h.requests.Get(c.Request.Context(), form, c.Param("code"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, req)
	}
}

func (h *FormHandler) History(form model.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := h.requests.History(c.Request.Context(), form, c.Param("code"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, logs)
	}
}

func (h *FormHandler) Export(form model.FormType) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseFilter(c)
		if !ok {
			return
		}
		f, filename, err := h.export.Export(c.Request.Context(), form, filter)
		if err != nil {
			writeError(c, err)
			return
		}
		defer f.Close()

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
		c.Header("Content-Transfer-Encoding", "binary")
		if err := f.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
	}
}

func parseFilter(c *gin.Context) (model.RequestFilter, bool) {
	filter := model.RequestFilter{
		Status:      c.Query("status"),
		RequesterID: c.Query("requester_id"),
		Branch:      c.Query("branch"),
	}
	if v := c.Query("request_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "request_id must be a positive integer")
			return filter, false
		}
		filter.RequestID = id
	}
	if p, ok := pagination.ParseOptional(c); ok {
		filter.Limit, filter.Offset = p.Limit, p.Offset
	}
	return filter, true
}

// decodeBody reads a JSON object keeping numbers as json.Number so amounts
// keep their exact decimal text.
func decodeBody(r io.Reader) (map[string]interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	body := map[string]interface{}{}
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
