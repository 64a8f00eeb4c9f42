package errors

import (
	"errors"
	"net/http"

	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var (
	ErrAlreadyApproved = ProblemDetail{
		Type:   TypeAlreadyApproved,
		Title:  "Already Approved",
		Status: http.StatusConflict,
	}

	ErrAlreadyRejected = ProblemDetail{
		Type:   TypeAlreadyRejected,
		Title:  "Already Rejected",
		Status: http.StatusConflict,
	}

	ErrInsufficientStock = ProblemDetail{
		Type:   TypeInsufficientStock,
		Title:  "Insufficient Stock",
		Status: http.StatusUnprocessableEntity,
	}

	ErrImmutableState = ProblemDetail{
		Type:   TypeImmutableState,
		Title:  "Immutable State",
		Status: http.StatusConflict,
	}
)

var kindProblems = map[faults.Kind]ProblemDetail{
	faults.KindValidation:        ErrValidation,
	faults.KindAuthorization:     ErrForbidden,
	faults.KindAlreadyApproved:   ErrAlreadyApproved,
	faults.KindAlreadyRejected:   ErrAlreadyRejected,
	faults.KindInsufficientStock: ErrInsufficientStock,
	faults.KindImmutableState:    ErrImmutableState,
	faults.KindNotFound:          ErrNotFound,
	faults.KindConflict:          ErrConflict,
}

// FaultMapper maps classified business failures to problems with a "code" extension
// equal to the fault kind. Insufficient stock also reports the product and quantities.
func FaultMapper(err error) (ProblemDetail, bool) {
	kind := faults.KindOf(err)
	template, ok := kindProblems[kind]
	if !ok {
		return ProblemDetail{}, false
	}
	problem := template.WithDetail(err.Error()).WithCode(string(kind))
	var insufficient *faults.InsufficientStockError
	if errors.As(err, &insufficient) {
		problem = problem.
			WithExtension("productId", insufficient.ProductID).
			WithExtension("requested", insufficient.Requested.String()).
			WithExtension("available", insufficient.Available.String()).
			WithExtension("shortfall", insufficient.Shortfall().String())
	}
	return problem, true
}
