package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"carbon-tracker/internal/core/auth"
	"carbon-tracker/internal/domain"
	"carbon-tracker/internal/feature/emission"
	"carbon-tracker/internal/feature/report"
	"carbon-tracker/internal/service"
	"carbon-tracker/internal/transport/http/ez"
)

type TrackerHandler struct {
	tracker *service.TrackerService
}

func NewTrackerHandler(tracker *service.TrackerService) *TrackerHandler {
	return &TrackerHandler{tracker: tracker}
}

// activityIn is the wire shape of a cooking activity.
type activityIn struct {
	FuelType        string  `json:"fuelType"`
	CookingMeals    int     `json:"cookingMeals"`
	CookingDuration float64 `json:"cookingDuration"`
	CharcoalUsed    float64 `json:"charcoalUsed"`
}

func (a activityIn) cooking() emission.CookingInput {
	return emission.CookingInput{
		FuelType:        a.FuelType,
		CookingMeals:    a.CookingMeals,
		CookingDuration: a.CookingDuration,
		CharcoalUsed:    a.CharcoalUsed,
	}
}

type estimateIn struct {
	Type string `json:"type"`
	activityIn
}

type calculationIn struct {
	Type         string   `json:"type" binding:"required"`
	Emissions    *float64 `json:"emissions"`
	CarbonOffset float64  `json:"carbonOffset"`
	activityIn
}

type offsetIn struct {
	Amount                float64         `json:"amount"`
	BaselineCalculationID *string         `json:"baselineCalculationId"`
	ImprovedCalculationID *string         `json:"improvedCalculationId"`
	ProjectID             *string         `json:"projectId"`
	Details               json.RawMessage `json:"details"`
}

type improvementIn struct {
	BaselineCalculationID string     `json:"baselineCalculationId" binding:"required"`
	Improved              activityIn `json:"improved"`
	ProjectID             *string    `json:"projectId"`
}

type idOut struct {
	ID string `json:"id"`
}

// MountAPI registers the estimate route on the public group and everything
// else on authed.
func (h *TrackerHandler) MountAPI(api, authed *gin.RouterGroup) {
	ez.RegisterAction(ez.New(api), ez.Action[estimateIn, emission.Breakdown]{
		Method: http.MethodPost,
		Path:   "/calculations/estimate",
		Binder: ez.BindJSON,
		Handler: func(_ *gin.Context, _ auth.Principal, in *estimateIn) (emission.Breakdown, error) {
			typ := in.Type
			if typ == "" {
				typ = domain.TypeCooking
			}
			return h.tracker.Estimate(typ, emission.Activity{CookingInput: in.cooking()})
		},
	})

	g := ez.New(authed)

	ez.RegisterAction(g, ez.Action[calculationIn, *domain.Calculation]{
		Method: http.MethodPost,
		Path:   "/calculations",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, p auth.Principal, in *calculationIn) (*domain.Calculation, error) {
			return h.tracker.RecordCalculation(c.Request.Context(), p, service.CalculationInput{
				Type:         in.Type,
				Emissions:    in.Emissions,
				CarbonOffset: in.CarbonOffset,
				Activity:     emission.Activity{CookingInput: in.cooking()},
			})
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, []domain.Calculation]{
		Method: http.MethodGet,
		Path:   "/calculations",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, p auth.Principal, _ *struct{}) ([]domain.Calculation, error) {
			return h.tracker.ListCalculations(c.Request.Context(), p)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *domain.Calculation]{
		Method: http.MethodGet,
		Path:   "/calculations/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, p auth.Principal, _ *struct{}) (*domain.Calculation, error) {
			return h.tracker.GetCalculation(c.Request.Context(), p, c.Param("id"))
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/calculations/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, p auth.Principal, _ *struct{}) (idOut, error) {
			id := c.Param("id")
			return idOut{ID: id}, h.tracker.DeleteCalculation(c.Request.Context(), p, id)
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, *report.Dashboard]{
		Method: http.MethodGet,
		Path:   "/dashboard",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, p auth.Principal, _ *struct{}) (*report.Dashboard, error) {
			return h.tracker.Dashboard(c.Request.Context(), p)
		},
	})

	ez.RegisterAction(g, ez.Action[offsetIn, *domain.Offset]{
		Method: http.MethodPost,
		Path:   "/offsets",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, p auth.Principal, in *offsetIn) (*domain.Offset, error) {
			return h.tracker.RecordOffset(c.Request.Context(), p, service.OffsetInput{
				Amount:                in.Amount,
				BaselineCalculationID: in.BaselineCalculationID,
				ImprovedCalculationID: in.ImprovedCalculationID,
				ProjectID:             in.ProjectID,
				Details:               in.Details,
			})
		},
	})

	ez.RegisterAction(g, ez.Action[improvementIn, *service.ImprovementResult]{
		Method: http.MethodPost,
		Path:   "/offsets/improvement",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, p auth.Principal, in *improvementIn) (*service.ImprovementResult, error) {
			return h.tracker.RecordImprovement(c.Request.Context(), p, service.ImprovementInput{
				BaselineCalculationID: in.BaselineCalculationID,
				Improved:              in.Improved.cooking(),
				ProjectID:             in.ProjectID,
			})
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, []domain.Offset]{
		Method: http.MethodGet,
		Path:   "/offsets",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, p auth.Principal, _ *struct{}) ([]domain.Offset, error) {
			return h.tracker.ListOffsets(c.Request.Context(), p)
		},
	})
}
