package permissions

import "context"

// Static is an Authorizer for hosts without a platform permission dialog.
type Static struct {
	Status Status
	// Answer is returned from RequestAuthorization when Status is
	// undetermined.
	Answer bool
}

func (s Static) AuthorizationStatus() Status {
	return s.Status
}

func (s Static) RequestAuthorization(context.Context) (bool, error) {
	return s.Answer, nil
}

// Func adapts a request function into an Authorizer whose status is always
// undetermined.
type Func func(ctx context.Context) (bool, error)

func (f Func) AuthorizationStatus() Status {
	return StatusUndetermined
}

func (f Func) RequestAuthorization(ctx context.Context) (bool, error) {
	return f(ctx)
}
