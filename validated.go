package drivekit

import (
	"context"

	"github.com/gobeaver/filekit/filevalidator"
)

// ValidatedDriver wraps a Driver and validates request bodies before they are
// written. The location title is the file name the validator checks.
type ValidatedDriver struct {
	driver    Driver
	validator filevalidator.Validator
}

// Validated creates a Driver whose writes are checked by validator.
func Validated(driver Driver, validator filevalidator.Validator) *ValidatedDriver {
	return &ValidatedDriver{driver: driver, validator: validator}
}

// Write implements Driver with validation
func (v *ValidatedDriver) Write(ctx context.Context, req *Request) (ResourceID, error) {
	if v.validator != nil {
		var data []byte
		if body := req.Body(); body != nil {
			data = body.Bytes
		}
		if err := v.validator.ValidateBytes(data, req.Location().Title()); err != nil {
			return "", &PathError{Op: "write", Path: req.Location().String(), Err: err}
		}
	}
	return v.driver.Write(ctx, req)
}

// Read delegates to the underlying driver.
func (v *ValidatedDriver) Read(ctx context.Context, req *Request) (*ResultSet, error) {
	return v.driver.Read(ctx, req)
}

// Unwrap returns the underlying Driver.
func (v *ValidatedDriver) Unwrap() Driver {
	return v.driver
}

var _ Driver = (*ValidatedDriver)(nil)
