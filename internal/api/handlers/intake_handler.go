package handlers

import (
	"errors"

	"freight-insure/internal/dto"
	"freight-insure/internal/intake"
	"freight-insure/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type IntakeHandler struct {
	intakeService *service.IntakeService
	logger        *zap.Logger
}

func NewIntakeHandler(intakeService *service.IntakeService, logger *zap.Logger) *IntakeHandler {
	return &IntakeHandler{
		intakeService: intakeService,
		logger:        logger,
	}
}

// withSession attaches the resulting state to a failed action.
func withSession(s intake.Session, err error) error {
	if s.ID == "" {
		return err
	}
	return &dto.SessionError{Session: dto.NewSessionView(s), Err: err}
}

// CreateSession godoc
// @Summary Start an intake session
// @Description Creates a wizard session with the default form values
// @Tags intake
// @Produce json
// @Security Operator
// @Success 201 {object} dto.SessionView
// @Router /api/v1/intake [post]
func (h *IntakeHandler) CreateSession(c *fiber.Ctx) error {
	s := h.intakeService.Create(c.UserContext())
	return c.Status(fiber.StatusCreated).JSON(dto.NewSessionView(s))
}

// GetSession godoc
// @Summary Get an intake session
// @Tags intake
// @Produce json
// @Param id path string true "Session ID"
// @Security Operator
// @Success 200 {object} dto.SessionView
// @Failure 404 {object} api.AppError
// @Router /api/v1/intake/{id} [get]
func (h *IntakeHandler) GetSession(c *fiber.Ctx) error {
	s, err := h.intakeService.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSessionView(s))
}

// DiscardSession godoc
// @Summary Discard an intake session
// @Description Drops the session and all unsaved data, e.g. when the operator leaves the page
// @Tags intake
// @Param id path string true "Session ID"
// @Security Operator
// @Success 204
// @Failure 404 {object} api.AppError
// @Router /api/v1/intake/{id} [delete]
func (h *IntakeHandler) DiscardSession(c *fiber.Ctx) error {
	if err := h.intakeService.Discard(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GoToStep godoc
// @Summary Navigate to a step
// @Description Moves to any step without validation
// @Tags intake
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.StepRequest true "Step index (0..2)"
// @Security Operator
// @Success 200 {object} dto.SessionView
// @Failure 400 {object} api.AppError
// @Failure 404 {object} api.AppError
// @Router /api/v1/intake/{id}/step [put]
func (h *IntakeHandler) GoToStep(c *fiber.Ctx) error {
	var req dto.StepRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	s, err := h.intakeService.GoTo(c.Params("id"), *req.Index)
	if err != nil {
		return withSession(s, err)
	}
	return c.JSON(dto.NewSessionView(s))
}

// SelectIdentityBranch godoc
// @Summary Select the identity document
// @Description Switches between idCard and business; both identity slots and fields are reset
// @Tags intake
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.BranchRequest true "idCard or business"
// @Security Operator
// @Success 200 {object} dto.SessionView
// @Failure 400 {object} api.AppError
// @Router /api/v1/intake/{id}/branches/identity [put]
func (h *IntakeHandler) SelectIdentityBranch(c *fiber.Ctx) error {
	var req dto.BranchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	branch, err := intake.ParseIdentityBranch(req.Branch)
	if err != nil {
		return err
	}

	s, err := h.intakeService.SelectIdentityBranch(c.Params("id"), branch)
	if err != nil {
		return withSession(s, err)
	}
	return c.JSON(dto.NewSessionView(s))
}

// SelectVehicleBranch godoc
// @Summary Select the vehicle document
// @Description Switches between driving and certificate; both vehicle slots and fields are reset
// @Tags intake
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.BranchRequest true "driving or certificate"
// @Security Operator
// @Success 200 {object} dto.SessionView
// @Failure 400 {object} api.AppError
// @Router /api/v1/intake/{id}/branches/vehicle [put]
func (h *IntakeHandler) SelectVehicleBranch(c *fiber.Ctx) error {
	var req dto.BranchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	branch, err := intake.ParseVehicleBranch(req.Branch)
	if err != nil {
		return err
	}

	s, err := h.intakeService.SelectVehicleBranch(c.Params("id"), branch)
	if err != nil {
		return withSession(s, err)
	}
	return c.JSON(dto.NewSessionView(s))
}

// UploadDocument godoc
// @Summary Upload a document and recognize it
// @Description Stores the file, runs OCR and fills the fields of the active branch
// @Tags intake
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param kind path string true "idCard, business, driving or certificate"
// @Param file formData file true "Document image or PDF"
// @Security Operator
// @Success 200 {object} dto.SessionView
// @Failure 400 {object} api.AppError
// @Failure 409 {object} api.AppError
// @Failure 413 {object} api.AppError
// @Failure 415 {object} api.AppError
// @Failure 502 {object} api.AppError
// @Router /api/v1/intake/{id}/documents/{kind} [post]
func (h *IntakeHandler) UploadDocument(c *fiber.Ctx) error {
	kind, err := intake.ParseDocumentKind(c.Params("kind"))
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "File is required")
	}
	src, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to open file")
	}
	defer src.Close()

	s, err := h.intakeService.UploadDocument(c.UserContext(), c.Params("id"), kind, intake.FileSource{
		Name:        file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        src,
	})
	if err != nil {
		return withSession(s, err)
	}
	view := dto.NewSessionView(s)
	view.Notice = intake.NoticeRecognized
	return c.JSON(view)
}

// RemoveDocument godoc
// @Summary Remove an uploaded document
// @Description Clears the slot and the fields it fed
// @Tags intake
// @Produce json
// @Param id path string true "Session ID"
// @Param kind path string true "Document kind"
// @Security Operator
// @Success 200 {object} dto.SessionView
// @Failure 409 {object} api.AppError
// @Router /api/v1/intake/{id}/documents/{kind} [delete]
func (h *IntakeHandler) RemoveDocument(c *fiber.Ctx) error {
	kind, err := intake.ParseDocumentKind(c.Params("kind"))
	if err != nil {
		return err
	}

	s, err := h.intakeService.RemoveDocument(c.Params("id"), kind)
	if err != nil {
		return withSession(s, err)
	}
	return c.JSON(dto.NewSessionView(s))
}

// EditIdentity godoc
// @Summary Edit recognized identity fields
// @Description Only allowed once the active identity document is recognized
// @Tags intake
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.IdentityRequest true "Fields to change"
// @Security Operator
// @Success 200 {object} dto.SessionView
// @Failure 422 {object} api.AppError
// @Router /api/v1/intake/{id}/fields/identity [patch]
func (h *IntakeHandler) EditIdentity(c *fiber.Ctx) error {
	var req dto.IdentityRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	s, err := h.intakeService.EditIdentity(c.Params("id"), req.Merge)
	if err != nil {
		return withSession(s, err)
	}
	return c.JSON(dto.NewSessionView(s))
}

// EditVehicle godoc
// @Summary Edit recognized vehicle fields
// @Description Only allowed once the active vehicle document is recognized
// @Tags intake
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.VehicleRequest true "Fields to change"
// @Security Operator
// @Success 200 {object} dto.SessionView
// @Failure 422 {object} api.AppError
// @Router /api/v1/intake/{id}/fields/vehicle [patch]
func (h *IntakeHandler) EditVehicle(c *fiber.Ctx) error {
	var req dto.VehicleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	s, err := h.intakeService.EditVehicle(c.Params("id"), req.Merge)
	if err != nil {
		return withSession(s, err)
	}
	return c.JSON(dto.NewSessionView(s))
}

// SubmitStep godoc
// @Summary Confirm the current step
// @Description Validates the step and advances; on the vehicle step the order is created
// @Tags intake
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SubmitRequest true "Data for the current step"
// @Security Operator
// @Success 200 {object} dto.SubmitResponse
// @Failure 401 {object} api.AppError
// @Failure 409 {object} api.AppError
// @Failure 422 {object} api.AppError
// @Failure 502 {object} api.AppError
// @Router /api/v1/intake/{id}/submit [post]
func (h *IntakeHandler) SubmitStep(c *fiber.Ctx) error {
	var req dto.SubmitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	id := c.Params("id")
	var step intake.Step
	s, conf, err := h.intakeService.SubmitWith(c.UserContext(), id, func(current intake.Session) (intake.StepData, error) {
		step = current.CurrentStep
		data, err := req.ToStepData(current)
		if err != nil {
			return data, badRequest(err)
		}
		return data, nil
	})
	if err != nil {
		h.logger.Warn("Step submission failed",
			zap.String("session_id", id),
			zap.String("step", step.String()),
			zap.Error(err),
		)
		return withSession(s, err)
	}

	resp := dto.SubmitResponse{Session: dto.NewSessionView(s)}
	if conf != nil {
		resp.OrderID = conf.OrderID
	}
	return c.JSON(resp)
}

func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := dto.Validate(req); err != nil {
		return badRequest(err)
	}
	return nil
}

// badRequest turns request shape errors into a 400.
func badRequest(err error) error {
	if errors.Is(err, intake.ErrSessionFinished) {
		return err
	}
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}
