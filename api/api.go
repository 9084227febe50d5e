package api

import (
	"context"
	"net/http"

	"cpusched/domain"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

const (
	processesPath = "/processes"
	admissionPath = "/admission"
	schedulePath  = "/schedule"
)

// Scheduler runs policies over the admitted baseline
type Scheduler interface {
	Run(ctx context.Context, selection domain.Selection) (*domain.ScheduleReport, error)
	Baseline() []domain.ProcessRecord
}

// API represents the object used for the api handlers and contains the scheduler and admission outcome
type API struct {
	scheduler      Scheduler
	admission      domain.AdmissionSummary
	defaultQuantum int
	apiLogger      *zap.Logger
}

// NewAPI returns an API object
func NewAPI(scheduler Scheduler, admission *domain.AdmissionResult, defaultQuantum int, logger *zap.Logger) *API {
	return &API{
		scheduler:      scheduler,
		admission:      admission.Summary(),
		defaultQuantum: defaultQuantum,
		apiLogger:      logger,
	}
}

// RegisterRoutes adds routes for all endpoints
func (api *API) RegisterRoutes(ws *restful.WebService) {
	tags := []string{"processes"}
	ws.Route(
		ws.
			GET(processesPath).
			Doc("Retrieves the admitted processes every policy runs over").
			Metadata(restfulspec.KeyOpenAPITags, tags).
			Produces(restful.MIME_JSON).
			To(api.GetProcesses).
			Writes([]domain.ProcessRecord{}).
			Returns(http.StatusOK, "OK", []domain.ProcessRecord{}))
	ws.Route(
		ws.
			GET(admissionPath).
			Doc("Retrieves admission counts and memory usage").
			Metadata(restfulspec.KeyOpenAPITags, tags).
			Produces(restful.MIME_JSON).
			To(api.GetAdmission).
			Writes(domain.AdmissionSummary{}).
			Returns(http.StatusOK, "OK", domain.AdmissionSummary{}))

	tags = []string{"schedule"}
	ws.Route(
		ws.
			POST(schedulePath+"/{policy}").
			Doc("Runs a scheduling policy over a fresh copy of the admitted processes").
			Param(ws.PathParameter("policy", "fcfs, rr, priority or their menu number").DataType("string").Required(true).AllowEmptyValue(false)).
			Param(ws.QueryParameter("quantum", "round robin time slice").DataType("integer").Required(false)).
			Metadata(restfulspec.KeyOpenAPITags, tags).
			Produces(restful.MIME_JSON).
			To(api.RunSchedule).
			Writes(domain.ScheduleReport{}).
			Returns(http.StatusOK, "OK", domain.ScheduleReport{}).
			Returns(http.StatusBadRequest, "Bad Request", domain.ErrorResponse{}).
			Returns(http.StatusInternalServerError, "Internal Server Error", domain.ErrorResponse{}))
}
