package api

import (
	"errors"
	"net/http"
	"strconv"

	"cpusched/domain"
	"cpusched/helpers"

	"github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

func (api *API) writeError(response *restful.Response, statusCode int, message string) {
	errorData := domain.ErrorResponse{
		Message:    message,
		StatusCode: statusCode,
	}
	response.WriteHeader(statusCode)
	response.WriteEntity(errorData)
}

// GetProcesses returns the admitted baseline
func (api *API) GetProcesses(request *restful.Request, response *restful.Response) {
	processes := api.scheduler.Baseline()
	api.apiLogger.Debug("listing admitted processes", zap.Int("count", len(processes)))
	response.WriteEntity(processes)
}

// GetAdmission returns the admission summary
func (api *API) GetAdmission(request *restful.Request, response *restful.Response) {
	response.WriteEntity(api.admission)
}

// RunSchedule runs the policy named in the path
func (api *API) RunSchedule(request *restful.Request, response *restful.Response) {
	policyParam := request.PathParameter("policy")
	selection, err := helpers.ParseSelection(policyParam, api.defaultQuantum)
	if err != nil || selection.Policy == domain.PolicyExit {
		api.apiLogger.Warn("invalid policy", zap.String("policy", policyParam))
		api.writeError(response, http.StatusBadRequest, "Bad Request/ unknown policy "+policyParam)
		return
	}

	if quantumParam := request.QueryParameter("quantum"); quantumParam != "" {
		quantum, err := strconv.Atoi(quantumParam)
		if err != nil || quantum <= 0 {
			api.apiLogger.Warn("invalid quantum", zap.String("quantum", quantumParam))
			api.writeError(response, http.StatusBadRequest, "Bad Request/ quantum must be a positive integer")
			return
		}
		if selection.Policy == domain.PolicyRoundRobin {
			selection.Quantum = quantum
		}
	}

	report, err := api.scheduler.Run(request.Request.Context(), selection)
	if err != nil {
		var selectionErr *domain.SelectionError
		if errors.As(err, &selectionErr) {
			api.writeError(response, http.StatusBadRequest, "Bad Request/ "+err.Error())
			return
		}
		api.apiLogger.Error("schedule failed", zap.String("policy", selection.Policy.String()), zap.Error(err))
		api.writeError(response, http.StatusInternalServerError, "Internal Server Error/ could not run schedule")
		return
	}
	response.WriteEntity(report)
}
