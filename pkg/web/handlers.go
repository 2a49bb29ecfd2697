package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/reqarchitect/validation/pkg/services"
)

type APIHandlers struct {
	validationService *services.Validation
	ruleService       *services.Rule
	exceptionService  *services.Exception
	validator         *validator.Validate
}

func NewAPIHandlers(
	validationService *services.Validation,
	ruleService *services.Rule,
	exceptionService *services.Exception,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		validationService: validationService,
		ruleService:       ruleService,
		exceptionService:  exceptionService,
		validator:         validator,
	}
}

// RunValidation triggers a new cycle for the caller's tenant. Every call
// creates a fresh cycle, so the response is 202 with the cycle record.
func (h *APIHandlers) RunValidation(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	req := RunValidationRequest{}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	cycle, err := h.validationService.Run(c.Context(), services.RunValidationRequest{
		TenantID:    principal.TenantID,
		TriggeredBy: principal.UserID,
		RuleSetID:   req.RuleSetID,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(cycle)
}

func (h *APIHandlers) GetIssues(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	skip, limit, err := parsePagination(c)
	if err != nil {
		return badRequest(c, "Invalid pagination parameters: "+err.Error())
	}

	result, err := h.validationService.Issues(c.Context(), principal.TenantID, skip, limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"issues":        result.Issues,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"skip":  skip,
			"limit": limit,
		},
	})
}

func (h *APIHandlers) ResolveIssue(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Issue ID is required")
	}

	issue, err := h.validationService.ResolveIssue(c.Context(), principal.TenantID, id, principal.UserID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(issue)
}

func (h *APIHandlers) GetScorecard(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	cycleID := c.Query("validation_cycle_id")

	scorecards, err := h.validationService.Scorecards(c.Context(), principal.TenantID, cycleID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"scorecards": scorecards,
	})
}

func (h *APIHandlers) GetTraceabilityMatrix(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	entries, err := h.validationService.Matrix(c.Context(), principal.TenantID,
		c.Query("source_layer"), c.Query("target_layer"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"entries": entries,
	})
}

func (h *APIHandlers) GetHistory(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	skip, limit, err := parsePagination(c)
	if err != nil {
		return badRequest(c, "Invalid pagination parameters: "+err.Error())
	}

	result, err := h.validationService.History(c.Context(), principal.TenantID, skip, limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"cycles":        result.Cycles,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"skip":  skip,
			"limit": limit,
		},
	})
}

func (h *APIHandlers) GetStatus(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	cycle, err := h.validationService.CycleStatus(c.Context(), principal.TenantID, c.Query("validation_cycle_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(cycle)
}

func (h *APIHandlers) GetRules(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	rules, err := h.ruleService.List(c.Context(), principal.TenantID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"rules": rules,
	})
}

func (h *APIHandlers) GetRule(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Rule ID is required")
	}

	rule, err := h.ruleService.Get(c.Context(), principal.TenantID, id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) CreateRule(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	var req CreateRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	rule, err := h.ruleService.Create(c.Context(), services.CreateRuleRequest{
		TenantID:    principal.TenantID,
		Name:        req.Name,
		Description: req.Description,
		RuleType:    req.RuleType,
		Scope:       req.Scope,
		RuleLogic:   req.RuleLogic,
		Severity:    req.Severity,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(rule)
}

// UpdateRule toggles a rule active or inactive. Rules are never deleted,
// so this is the only mutation after creation.
func (h *APIHandlers) UpdateRule(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Rule ID is required")
	}

	var req UpdateRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	rule, err := h.ruleService.SetActive(c.Context(), principal.TenantID, id, *req.IsActive)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) GetExceptions(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	exceptions, err := h.exceptionService.List(c.Context(), principal.TenantID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"exceptions": exceptions,
	})
}

func (h *APIHandlers) CreateException(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	var req CreateExceptionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	exception, err := h.exceptionService.Create(c.Context(), services.CreateExceptionRequest{
		TenantID:   principal.TenantID,
		CreatedBy:  principal.UserID,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Reason:     req.Reason,
		RuleID:     req.RuleID,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(exception)
}

func (h *APIHandlers) DeleteException(c fiber.Ctx) error {
	principal, ok := principalFrom(c)
	if !ok {
		return unauthorized(c, "authentication required")
	}

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Exception ID is required")
	}

	if err := h.exceptionService.Delete(c.Context(), principal.TenantID, id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.validationService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Validation API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Validation API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func parsePagination(c fiber.Ctx) (int, int, error) {
	skip := 0
	limit := 20

	if skipStr := c.Query("skip"); skipStr != "" {
		parsed, err := strconv.Atoi(skipStr)
		if err != nil {
			return 0, 0, err
		}

		skip = parsed
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, err
		}

		limit = parsed
	}

	return skip, limit, nil
}
