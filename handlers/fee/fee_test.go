package fee

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/utils/validation"
)

func TestRecordPaymentRequestModeValidation(t *testing.T) {
	v := validation.NewValidator()

	base := RecordPaymentRequest{
		StudentID:      1,
		FeeStructureID: 1,
		Amount:         100000,
		ReceiptNo:      "RCPT-0001",
	}

	// Every supported payment mode must pass request validation,
	// demand draft included.
	for _, mode := range []string{"cash", "online", "cheque", "dd"} {
		req := base
		req.Mode = mode
		if err := v.ValidateStruct(req); err != nil {
			t.Errorf("mode %q rejected: %v", mode, err)
		}
	}

	req := base
	req.Mode = "upi"
	if err := v.ValidateStruct(req); err == nil {
		t.Error("unsupported mode accepted")
	}
}

func TestServiceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", services.ErrNotFound, fiber.StatusNotFound},
		{"overpayment", model.ErrOverpayment, fiber.StatusBadRequest},
		{"invalid amount", model.ErrInvalidAmount, fiber.StatusBadRequest},
		{"duplicate receipt", services.ErrDuplicateRecord, fiber.StatusConflict},
		{"root required", services.ErrRootRequired, fiber.StatusForbidden},
		{"locked record", services.ErrRecordLocked, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return serviceError(c, tc.err, "failed")
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}
