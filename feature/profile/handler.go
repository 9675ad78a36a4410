package profile

import (
	"bytes"
	"errors"
	"strconv"

	"profile-sync/core/logger"
	"profile-sync/feature/profile/audit"
	"profile-sync/feature/profile/store"
	"profile-sync/feature/profile/sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the profile feature.
type Handler struct {
	service *Service
	engine  *sync.Engine
	auditor *audit.Auditor
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, engine *sync.Engine, auditor *audit.Auditor, logger *zap.Logger) *Handler {
	return &Handler{service: service, engine: engine, auditor: auditor, logger: logger}
}

// RegisterRoutes registers the profile routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/profile")

	group.Post("/sync/bulk", h.HandleBulkSync)
	group.Post("/sync/:id", h.HandleSyncOne)
	group.Post("/sync/:id/force", h.HandleForceSync)
	group.Post("/sync/:id/reverse", h.HandleReverseSync)

	group.Get("/consistency/:id", h.HandleConsistency)
	group.Post("/consistency/:id/reconcile", h.HandleReconcile)

	group.Get("/audit", h.HandleAuditFull)
	group.Get("/audit/:id", h.HandleAuditOne)
	group.Get("/integrity", h.HandleIntegrity)
	group.Get("/orphans", h.HandleOrphans)

	group.Get("/:id", h.HandleGetProfile)
	group.Patch("/:id", h.HandleUpdateProfile)
	group.Put("/:id/avatar", h.HandleUploadAvatar)
	group.Delete("/:id/avatar", h.HandleDeleteAvatar)
}

// HandleSyncOne synchronizes one user's profile from its identity record.
func (h *Handler) HandleSyncOne(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, err)
	}
	l := logger.WithRayID(h.logger, c)

	if err := h.engine.SyncOne(c.Context(), id); err != nil {
		l.Error("sync failed", zap.Uint("user_id", id), zap.Error(err))
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleForceSync re-runs the full projection for one user unconditionally.
func (h *Handler) HandleForceSync(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, err)
	}
	l := logger.WithRayID(h.logger, c)

	user, err := h.service.users.Find(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.engine.FullSync(c.Context(), user); err != nil {
		l.Error("force sync failed", zap.Uint("user_id", id), zap.Error(err))
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleReverseSync copies drifted mirrored fields from the profile back
// onto the identity record and republishes the update event.
func (h *Handler) HandleReverseSync(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, err)
	}
	l := logger.WithRayID(h.logger, c)

	if err := h.engine.ReverseSync(c.Context(), id); err != nil {
		l.Error("reverse sync failed", zap.Uint("user_id", id), zap.Error(err))
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleBulkSync forces a resync of every user.
func (h *Handler) HandleBulkSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	res, err := h.auditor.BulkSync(c.Context())
	if err != nil {
		l.Error("bulk sync failed", zap.Error(err))
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleConsistency reports whether one user's projection matches.
func (h *Handler) HandleConsistency(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, err)
	}

	consistent, err := h.engine.IsConsistent(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"user_id": id, "is_consistent": consistent})
}

// HandleReconcile copies identity values over every mirrored mismatch.
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, err)
	}
	l := logger.WithRayID(h.logger, c)

	changed, err := h.auditor.ValidateAndSyncConsistency(c.Context(), id)
	if err != nil {
		l.Error("reconcile failed", zap.Uint("user_id", id), zap.Error(err))
		return h.fail(c, err)
	}
	if changed == nil {
		changed = []string{}
	}
	return c.JSON(fiber.Map{"user_id": id, "reconciled_fields": changed})
}

// HandleAuditFull runs a whole-population audit and returns the report.
func (h *Handler) HandleAuditFull(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	report, err := h.auditor.AuditFull(c.Context())
	if err != nil {
		l.Error("full audit failed", zap.Error(err))
		return h.fail(c, err)
	}
	return c.JSON(report)
}

// HandleAuditOne audits a single user.
func (h *Handler) HandleAuditOne(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, err)
	}

	report, err := h.auditor.AuditOne(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(report)
}

// HandleIntegrity returns population-wide mismatch counts.
func (h *Handler) HandleIntegrity(c *fiber.Ctx) error {
	res, err := h.auditor.CheckIntegrity(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleOrphans lists profile ids whose user no longer exists.
func (h *Handler) HandleOrphans(c *fiber.Ctx) error {
	ids, err := h.auditor.FindOrphanProfiles(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	if ids == nil {
		ids = []uint{}
	}
	return c.JSON(fiber.Map{"orphan_profile_ids": ids})
}

// HandleGetProfile returns the profile, materializing it on first read.
func (h *Handler) HandleGetProfile(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, err)
	}

	profile, err := h.service.GetOrCreate(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(profile)
}

// HandleUpdateProfile applies a partial edit to the extended subset.
func (h *Handler) HandleUpdateProfile(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, err)
	}

	var patch ExtendedPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, err)
	}

	profile, err := h.service.UpdateExtended(c.Context(), id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(profile)
}

// HandleUploadAvatar stores the request body as the user's avatar.
func (h *Handler) HandleUploadAvatar(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, err)
	}
	l := logger.WithRayID(h.logger, c)

	body := c.Body()
	profile, err := h.service.UploadAvatar(c.Context(), id, bytes.NewReader(body), int64(len(body)), c.Get(fiber.HeaderContentType))
	if err != nil {
		if errors.Is(err, ErrUnsupportedContentType) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("avatar upload failed", zap.Uint("user_id", id), zap.Error(err))
		return h.fail(c, err)
	}
	return c.JSON(profile)
}

// HandleDeleteAvatar removes the user's avatar.
func (h *Handler) HandleDeleteAvatar(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return badRequest(c, err)
	}

	if err := h.service.DeleteAvatar(c.Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, store.ErrUserNotFound) || errors.Is(err, store.ErrProfileNotFound) {
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func pathID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, errors.New("invalid user id")
	}
	return uint(id), nil
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}
