package application

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	"github.com/Apurer/go-procurement-server/internal/shared/faults"
)

var validate = validator.New()

var domainValidationErrors = []error{
	domain.ErrInvalidSite,
	domain.ErrEmptyOrder,
	domain.ErrInvalidQuantity,
	domain.ErrUnknownProduct,
	domain.ErrInvalidPriority,
	domain.ErrSupplierNotOnOrder,
	domain.ErrSupplierWithoutLPO,
	domain.ErrInvalidDeliveryDate,
	domain.ErrInvalidMeasurement,
	domain.ErrInvalidPieces,
	domain.ErrInvalidStatus,
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainValidationErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", faults.ErrValidation, err)
		}
	}
	return err
}

func validateInput(input any) error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %w", faults.ErrValidation, err)
	}
	return nil
}
