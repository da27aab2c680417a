package contract

import "github.com/alexanderramin/budgetops/internal/app"

type ReviewStatus = app.ReviewStatus

const (
	ReviewOK    ReviewStatus = app.ReviewOK
	ReviewError ReviewStatus = app.ReviewError
)

type ReviewRequest = app.ReviewRequest

type ReviewResponse = app.ReviewResponse
