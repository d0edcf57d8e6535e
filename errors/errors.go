package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	// ErrInvalidArgument is returned when a required parameter is nil or a
	// precondition on it does not hold.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConfiguration is returned when a DAO or one of its collaborators
	// cannot be configured, e.g. the entity type is not mapped.
	ErrConfiguration = errors.New("configuration error")

	// ErrNoCurrentSession is returned when an operation needs a session and
	// none is bound to the context.
	ErrNoCurrentSession = errors.New("no session bound to context")

	// ErrNonUniqueObject is returned when a different instance with the same
	// identifier is already tracked by the session.
	ErrNonUniqueObject = errors.New("a different object with the same identifier is already tracked")
)

// ArgumentError describes an invalid parameter.
type ArgumentError struct {
	Param   string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("invalid argument: %s", e.Message)
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Param, e.Message)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ConfigurationError describes why a type or component cannot be configured.
type ConfigurationError struct {
	Type    string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Type, e.Message)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NonUniqueObjectError reports an identity conflict inside a session.
type NonUniqueObjectError struct {
	Type string
	ID   any
}

func (e *NonUniqueObjectError) Error() string {
	return fmt.Sprintf("%s with id %v: %s", e.Type, e.ID, ErrNonUniqueObject.Error())
}

func (e *NonUniqueObjectError) Is(target error) bool {
	return target == ErrNonUniqueObject
}

// NewArgumentError creates a new ArgumentError
func NewArgumentError(param, message string) error {
	return &ArgumentError{Param: param, Message: message}
}

// NewNilArgumentError reports a nil required parameter.
func NewNilArgumentError(param string) error {
	return &ArgumentError{Param: param, Message: "cannot be nil"}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(typeName, message string) error {
	return &ConfigurationError{Type: typeName, Message: message}
}

// NewNonUniqueObjectError creates a new NonUniqueObjectError
func NewNonUniqueObjectError(typeName string, id any) error {
	return &NonUniqueObjectError{Type: typeName, ID: id}
}

// IsInvalidArgument checks if an error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsNoCurrentSession checks if an error reports a missing session
func IsNoCurrentSession(err error) bool {
	return errors.Is(err, ErrNoCurrentSession)
}

// IsNonUniqueObject checks if an error reports an identity conflict
func IsNonUniqueObject(err error) bool {
	return errors.Is(err, ErrNonUniqueObject)
}
