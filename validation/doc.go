// Package validation checks struct tags with go-playground/validator and
// reports failures as a Validation AppError that lists every field.
//
//	type startRequest struct {
//	    RoutingToken string `json:"routing_token" validate:"required,max=128"`
//	}
//	if err := validation.Validate(req); err != nil { ... }
//
// Field names come from the json tag, then the mapstructure tag, so the same
// names show up in API errors and in config errors.
package validation
