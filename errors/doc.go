// Package errors defines the error taxonomy shared by the DAO packages.
//
// Every typed error matches one sentinel through errors.Is, so callers can
// branch on the category without depending on the concrete type:
//
//	if errors.Is(err, daoerrors.ErrInvalidArgument) { ... }
//
// Storage errors returned by the database driver are never wrapped by the
// DAO layer; only conditions detected by the DAO itself use these types.
package errors
