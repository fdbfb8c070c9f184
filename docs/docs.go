// Package docs Police Records API.
//
// Documentation of the Police Records API: units, dispatch, reports, bolos,
// evidence custody and case intake.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
//    SecurityDefinitions:
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/police-records-api/engine"
	"github.com/linesmerrill/police-records-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/calls dispatch dispatchFeed
// Lists the most recent dispatch calls, newest first.
// responses:
//   200: dispatchFeedResponse

// The dispatch feed
// swagger:response dispatchFeedResponse
type dispatchFeedResponseWrapper struct {
	// in:body
	Body []models.Call
}

// swagger:route POST /api/v1/reports reports createReport
// Creates a draft report.
// responses:
//   201: reportResponse
//   400: errorResponse

// swagger:parameters createReport
type createReportParamsWrapper struct {
	// in:body
	Body engine.NewReport
}

// A single report
// swagger:response reportResponse
type reportResponseWrapper struct {
	// in:body
	Body models.Report
}

// swagger:route POST /api/v1/case-requests/{request_id}/approve cases approveCaseRequest
// Approves a pending case request and opens its case.
// responses:
//   200: caseApprovalResponse
//   409: errorResponse

// The opened case and the decided request
// swagger:response caseApprovalResponse
type caseApprovalResponseWrapper struct {
	// in:body
	Body models.CaseApproval
}

// Error kind, code and message
// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
