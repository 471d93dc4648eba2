package errors

// UserError is the interface an error has to comply to to be consumable by an
// external client.
type UserError interface {
	Status() int
	Code() string
	Message() string
	Cause() error
}

// ConcreteUserError is the materialization of a UserError for marshalling.
type ConcreteUserError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Build constructs a ConcreteUserError from a UserError.
func Build(err UserError) *ConcreteUserError {
	return &ConcreteUserError{
		Status:  err.Status(),
		Code:    err.Code(),
		Message: err.Message(),
	}
}
