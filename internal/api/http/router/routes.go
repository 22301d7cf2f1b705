package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/medcenter_backend/internal/api/http/handler"
	"github.com/Alijeyrad/medcenter_backend/pkg/authorize"
)

func (r *Router) registerAuthRoutes(api fiber.Router, h *handler.AuthHandler) {
	auth := api.Group("/auth")
	auth.Get("/me", h.Me)
	auth.Post("/logout", h.Logout)
}

func (r *Router) registerPatientRoutes(api fiber.Router, h *handler.PatientHandler, requirePerm permFunc) {
	patients := api.Group("/patients")
	patients.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionList), h.List)
	patients.Post("/", requirePerm(authorize.ResourcePatient, authorize.ActionCreate), h.Register)
	patients.Get("/:id", requirePerm(authorize.ResourcePatient, authorize.ActionRead), h.Get)
}

func (r *Router) registerCaseRoutes(api fiber.Router, ch *handler.CaseHandler, lh *handler.LabHandler, requirePerm permFunc) {
	cases := api.Group("/cases")
	cases.Post("/", requirePerm(authorize.ResourceCase, authorize.ActionCreate), ch.Intake)

	c := cases.Group("/:id")
	c.Get("/", requirePerm(authorize.ResourceCase, authorize.ActionRead), ch.Get)
	c.Post("/assign", requirePerm(authorize.ResourceCase, authorize.ActionUpdate), ch.Assign)
	c.Get("/reports", requirePerm(authorize.ResourceLabReport, authorize.ActionList), lh.ListCaseReports)
	c.Get("/prescriptions", requirePerm(authorize.ResourcePrescription, authorize.ActionList), ch.ListPrescriptions)
}

func (r *Router) registerDoctorRoutes(api fiber.Router, ch *handler.CaseHandler, lh *handler.LabHandler, requirePerm permFunc) {
	doctor := api.Group("/doctor")
	doctor.Get("/queue", requirePerm(authorize.ResourceCase, authorize.ActionList), ch.Queue)
	doctor.Patch("/cases/:id/consultation", requirePerm(authorize.ResourceCase, authorize.ActionUpdate), ch.UpdateConsultation)
	doctor.Post("/cases/:id/finalize", requirePerm(authorize.ResourceCase, authorize.ActionExecute), ch.Finalize)
	doctor.Post("/requestLabTests", requirePerm(authorize.ResourceLabReport, authorize.ActionCreate), lh.RequestTests)
}

func (r *Router) registerHistoryRoutes(api fiber.Router, h *handler.HistoryHandler, requirePerm permFunc) {
	hist := api.Group("/patientHistory")
	// static path first so it is not captured by :patientId
	hist.Get("/overrides", requirePerm(authorize.ResourceHistoryOverride, authorize.ActionList), h.ListOverrides)
	hist.Post("/:patientId/send-otp", requirePerm(authorize.ResourcePatientHistory, authorize.ActionExecute), h.SendOtp)
	hist.Post("/:patientId/override", requirePerm(authorize.ResourceHistoryOverride, authorize.ActionCreate), h.Override)
	hist.Post("/:patientId", requirePerm(authorize.ResourcePatientHistory, authorize.ActionRead), h.Verify)
}

func (r *Router) registerLabRoutes(api fiber.Router, h *handler.LabHandler, requirePerm permFunc) {
	lab := api.Group("/lab")
	lab.Get("/tests", requirePerm(authorize.ResourceLabTest, authorize.ActionList), h.ListTests)
	lab.Get("/reports", requirePerm(authorize.ResourceLabReport, authorize.ActionList), h.ListReports)
	lab.Get("/reports/:id", requirePerm(authorize.ResourceLabReport, authorize.ActionRead), h.GetReport)
	lab.Post("/reports/:id/files", requirePerm(authorize.ResourceLabReport, authorize.ActionUpdate), h.UpdateFiles)
	lab.Post("/submit/:reportId", requirePerm(authorize.ResourceLabReport, authorize.ActionExecute), h.Submit)
}

func (r *Router) registerFileRoutes(api fiber.Router, h *handler.FileHandler, requirePerm permFunc) {
	files := api.Group("/files")
	files.Post("/", requirePerm(authorize.ResourceFile, authorize.ActionCreate), h.Upload)
	files.Get("/:id", requirePerm(authorize.ResourceFile, authorize.ActionRead), h.Download)
}

func (r *Router) registerCatalogRoutes(api fiber.Router, h *handler.CaseHandler, requirePerm permFunc) {
	catalog := api.Group("/catalog", requirePerm(authorize.ResourceCatalog, authorize.ActionList))
	catalog.Get("/diseases", h.ListDiseases)
	catalog.Get("/medicines", h.ListMedicines)
}
