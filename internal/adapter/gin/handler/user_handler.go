package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"

	"user-crud-service/internal/usecase/user"
	pkgerrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Service
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Service, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// ListUsersQuery represents the query string of GET /users
type ListUsersQuery struct {
	Skip  int64 `form:"skip,default=0" binding:"min=0"`
	Limit int64 `form:"limit,default=100" binding:"min=1,max=1000"`
}

// SearchUsersQuery represents the query string of GET /users/search
type SearchUsersQuery struct {
	Q     string `form:"q" binding:"required,min=2"`
	Skip  int64  `form:"skip,default=0" binding:"min=0"`
	Limit int64  `form:"limit,default=100" binding:"min=1,max=1000"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var req user.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid create user request", zap.Error(err))
		h.badRequest(c, err)
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: c.Param("id")})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var q ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		log.Warn("invalid list users query", zap.Error(err))
		h.badRequest(c, err)
		return
	}

	resp, err := h.uc.ListUsers(c.Request.Context(), user.ListUsersRequest{Skip: q.Skip, Limit: q.Limit})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp.Users)
}

// SearchUsers handles GET /users/search
func (h *UserHandler) SearchUsers(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var q SearchUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		log.Warn("invalid search users query", zap.Error(err))
		h.badRequest(c, err)
		return
	}

	resp, err := h.uc.SearchUsers(c.Request.Context(), user.SearchUsersRequest{
		Query: q.Q,
		Skip:  q.Skip,
		Limit: q.Limit,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp.Users)
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var req user.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid update user request", zap.Error(err))
		h.badRequest(c, err)
		return
	}
	req.ID = c.Param("id")

	resp, err := h.uc.UpdateUser(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	resp, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: c.Param("id")})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleError converts usecase errors to appropriate HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	log := logger.WithContext(c.Request.Context(), h.log)

	var (
		validationErr  *pkgerrors.ValidationError
		invalidIDErr   *pkgerrors.InvalidIDError
		duplicateErr   *pkgerrors.DuplicateError
		notFoundErr    *pkgerrors.NotFoundError
		unavailableErr *pkgerrors.StoreUnavailableError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: validationDetail(validationErr)})
	case errors.As(err, &invalidIDErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid user id"})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "email already in use"})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: notFoundErr.Error()})
	case errors.As(err, &unavailableErr):
		log.Error("store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Detail: "service temporarily unavailable"})
	default:
		log.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: pkgerrors.ErrInternal.Error()})
	}
}

// badRequest reports a body or query string that could not be bound.
func (h *UserHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Detail: bindingDetail(c.Request.URL.Query(), err)})
}

func validationDetail(err *pkgerrors.ValidationError) string {
	if err.Field == "" {
		return err.Message
	}
	return err.Field + " " + err.Message
}

// bindingDetail describes gin binding failures without leaking decoder internals.
func bindingDetail(query url.Values, err error) string {
	var (
		validationErrs validator.ValidationErrors
		typeErr        *json.UnmarshalTypeError
		syntaxErr      *json.SyntaxError
		numErr         *strconv.NumError
	)

	switch {
	case errors.As(err, &validationErrs):
		messages := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			messages = append(messages, describeField(fe))
		}
		return strings.Join(messages, ", ")
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return "request body must be a JSON object"
		}
		return fmt.Sprintf("%s must be a %s", typeErr.Field, jsonTypeName(typeErr.Type))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "malformed JSON body"
	case errors.As(err, &numErr):
		param := paramWithValue(query, numErr.Num)
		if errors.Is(numErr.Err, strconv.ErrRange) {
			return param + " is out of range"
		}
		return param + " must be an integer"
	default:
		return "invalid request"
	}
}

// paramWithValue names the query parameter holding value. gin reports numeric
// parse failures without the parameter name.
func paramWithValue(query url.Values, value string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if slices.Contains(query[k], value) {
			return k
		}
	}
	return "query parameter"
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
