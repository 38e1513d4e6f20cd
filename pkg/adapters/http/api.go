package http

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

//go:embed openapi.yaml
var specYAML []byte

// CreatePlanParams defines parameters for CreatePlan.
type CreatePlanParams struct {
	Seed *uint64 `form:"seed,omitempty" json:"seed,omitempty"`
	Save *bool   `form:"save,omitempty" json:"save,omitempty"`
}

// CheckRequest is the body of POST /check.
type CheckRequest struct {
	Group string `json:"group"`
	Field string `json:"field"`
	Input string `json:"input"`
}

// CheckResult reports whether an input was accepted.
type CheckResult struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// ValidationResult lists the problems of an experiment.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	GetHealth(w http.ResponseWriter, r *http.Request)
	GetInfo(w http.ResponseWriter, r *http.Request)
	GetExperiment(w http.ResponseWriter, r *http.Request)
	GetSequence(w http.ResponseWriter, r *http.Request)
	ValidateExperiment(w http.ResponseWriter, r *http.Request)
	CheckField(w http.ResponseWriter, r *http.Request)
	ListPlans(w http.ResponseWriter, r *http.Request)
	CreatePlan(w http.ResponseWriter, r *http.Request, params CreatePlanParams)
	GetPlan(w http.ResponseWriter, r *http.Request, id string)
	DeletePlan(w http.ResponseWriter, r *http.Request, id string)
	ReplayPlan(w http.ResponseWriter, r *http.Request, id string)
	SubscribeEvents(w http.ResponseWriter, r *http.Request)
}

// wrapper binds request parameters before calling the handlers.
type wrapper struct {
	handler ServerInterface
	onError func(w http.ResponseWriter, r *http.Request, err error)
}

func (wr *wrapper) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var params CreatePlanParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "seed", query, &params.Seed); err != nil {
		wr.onError(w, r, fmt.Errorf("invalid format for parameter seed: %w", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "save", query, &params.Save); err != nil {
		wr.onError(w, r, fmt.Errorf("invalid format for parameter save: %w", err))
		return
	}
	wr.handler.CreatePlan(w, r, params)
}

func (wr *wrapper) withID(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			wr.onError(w, r, fmt.Errorf("invalid format for parameter id: %w", err))
			return
		}
		next(w, r, id)
	}
}

// HandlerFromMux registers the API routes on r.
func HandlerFromMux(si ServerInterface, r chi.Router, onError func(http.ResponseWriter, *http.Request, error)) http.Handler {
	wr := &wrapper{handler: si, onError: onError}

	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)
	r.Get("/experiment", si.GetExperiment)
	r.Get("/sequence", si.GetSequence)
	r.Post("/validate", si.ValidateExperiment)
	r.Post("/check", si.CheckField)
	r.Get("/plans", si.ListPlans)
	r.Post("/plans", wr.CreatePlan)
	r.Get("/plans/{id}", wr.withID(si.GetPlan))
	r.Delete("/plans/{id}", wr.withID(si.DeletePlan))
	r.Post("/plans/{id}/replay", wr.withID(si.ReplayPlan))
	r.Get("/events", si.SubscribeEvents)
	return r
}

var (
	swaggerOnce sync.Once
	swagger     *openapi3.T
	swaggerErr  error
)

// GetSwagger returns the parsed API description.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		swagger, swaggerErr = loader.LoadFromData(specYAML)
		if swaggerErr == nil {
			swaggerErr = swagger.Validate(context.Background())
		}
	})
	return swagger, swaggerErr
}

func rawSpec() []byte {
	return specYAML
}
