package contract

import "github.com/alexanderramin/budgetops/internal/app"

type UpdateStepRequest = app.UpdateStepRequest

type UpdateStepResponse = app.UpdateStepResponse
