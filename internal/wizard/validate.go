package wizard

import "adespota/internal/domain"

// Validate is the gate in front of the final submission. Checks run in a fixed
// order and the first failure is returned.
func Validate(d domain.ReportDraft, sess *domain.Session) error {
	if !d.HasImage() {
		return domain.NewValidationError(domain.KindMissingImage, "Add a photo of the stray animal")
	}
	if d.Location.IsSentinel() {
		return domain.NewValidationError(domain.KindMissingLocation, "Capture your current location")
	}
	if !sess.Authenticated() {
		return domain.NewValidationError(domain.KindNotAuthenticated, "You must sign in to report strays")
	}
	return nil
}
