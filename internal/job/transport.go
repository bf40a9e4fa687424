package job

import "github.com/ahmethakanbesel/currency-api/internal/apperror"

type GetRunRequest struct {
	ID int64
}

func (r GetRunRequest) Validate() *apperror.AppError {
	if r.ID <= 0 {
		return apperror.New(apperror.BadRequest, "invalid run id")
	}
	return nil
}

type TriggerRequest struct {
	Type Type
}

func (r TriggerRequest) Validate() *apperror.AppError {
	if r.Type != TypeHourly && r.Type != TypeDaily {
		return apperror.New(apperror.BadRequest, "job type must be hourly or daily")
	}
	return nil
}
