package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopika-sys/Employee-Retention-Analysis/internal/service"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/artifact"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/data"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/dataprep"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/loader"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/pipeline"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/predictor"
)

// Stable error codes returned in the "code" field of error responses.
const (
	CodeSchemaError      = "schema_error"
	CodeDatasetEmpty     = "dataset_empty"
	CodeNoDataset        = "no_dataset"
	CodeUnknownCategory  = "unknown_category"
	CodeModelNotTrained  = "model_not_trained"
	CodeDegenerateSplit  = "degenerate_split"
	CodeInvalidInput     = "invalid_input"
	CodeIncompatible     = "incompatible_model"
	CodePersistenceError = "persistence_error"
	CodeTimeout          = "timeout"
)

// classify maps an error to an HTTP status and a stable code. Unrecognised
// errors come from storage or the filesystem.
func classify(err error) (int, string) {
	var schemaErr *pipeline.SchemaError
	var rowErr *pipeline.RowError
	switch {
	case errors.Is(err, pipeline.ErrEmptyDataset):
		return http.StatusBadRequest, CodeDatasetEmpty
	case errors.As(err, &schemaErr):
		return http.StatusBadRequest, CodeSchemaError
	case errors.As(err, &rowErr), errors.Is(err, data.ErrMalformed):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, dataprep.ErrUnknownCategory):
		return http.StatusUnprocessableEntity, CodeUnknownCategory
	case errors.Is(err, predictor.ErrModelNotTrained):
		return http.StatusNotFound, CodeModelNotTrained
	case errors.Is(err, service.ErrNoDataset):
		return http.StatusNotFound, CodeNoDataset
	case errors.Is(err, loader.ErrDegenerateLabels), errors.Is(err, loader.ErrDegenerateSplit):
		return http.StatusUnprocessableEntity, CodeDegenerateSplit
	case errors.Is(err, artifact.ErrInvalidOwner), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, service.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, CodeInvalidInput
	case errors.Is(err, artifact.ErrIncompatibleVersion):
		return http.StatusConflict, CodeIncompatible
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, CodeTimeout
	default:
		return http.StatusInternalServerError, CodePersistenceError
	}
}

var errBadRequest = errors.New("bad request")

func errorBody(code string, err error) gin.H {
	body := gin.H{"code": code, "error": err.Error()}
	var schemaErr *pipeline.SchemaError
	if errors.As(err, &schemaErr) {
		body["missing_columns"] = schemaErr.Missing
	}
	var rowErr *pipeline.RowError
	if errors.As(err, &rowErr) {
		body["line"] = rowErr.Line
		body["column"] = rowErr.Column
	}
	return body
}
