package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/shared/utils"
)

var registerValidatorsOnce sync.Once

// RegisterValidators installs the invoice binding tags on gin's validator.
// It is idempotent.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(utils.JSONTagName)
		_ = v.RegisterValidation("invoice_currency", validateInvoiceCurrency)
	})
}

func validateInvoiceCurrency(fl validator.FieldLevel) bool {
	_, err := vo.ParseCurrency(fl.Field().String())
	return err == nil
}
