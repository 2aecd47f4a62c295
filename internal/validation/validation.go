// Package validation checks request payload fields before they reach the
// service layer.
package validation

// Error marks a failure caused by the caller's input. Handlers use this to
// separate bad-request responses from internal failures.
type Error string

func (e Error) Error() string {
	return string(e)
}
