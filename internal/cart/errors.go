package cart

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
)

type FailureKind string

const (
	FetchError          FailureKind = "FetchError"
	DeleteError         FailureKind = "DeleteError"
	QuantityUpdateError FailureKind = "QuantityUpdateError"
	OrderCreationError  FailureKind = "OrderCreationError"
)

// Failure is a caught backend failure. Message is the backend's public
// message (the coded error message when there is one); the cause stays in Err
// and in the failure log entry.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func newFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Message: pkgerrors.MessageOf(err), Err: err}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// asDependency wraps a failure for callers that map codes to HTTP statuses.
func (f *Failure) asDependency() error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, f, f.Message).WithDetails(map[string]any{
		"kind": f.Kind,
	})
}

const (
	titleSuccess       = "Success"
	titleFetchError    = "Error Fetching Products"
	titleDeleteError   = "Error Deleting Products"
	titleQuantityError = "Error Updating Quantity"
	titleOrderError    = "Error creating order"

	messageDeleted         = "Selected products have been deleted."
	messageQuantityUpdated = "Quantity updated successfully."
	messageOrderCreated    = "Order created successfully"
)

func errClosed() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "cart session is closed")
}
