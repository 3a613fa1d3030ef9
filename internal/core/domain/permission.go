package domain

// PermissionOutcomeKind discriminates PermissionOutcome values.
type PermissionOutcomeKind string

// Permission outcomes.
const (
	PermissionSuccess             PermissionOutcomeKind = "success"
	PermissionFailure             PermissionOutcomeKind = "failure"
	PermissionPlatformUnavailable PermissionOutcomeKind = "platform_unavailable"
)

// PermissionOutcome is the result of a permission request. Errors never
// cross this boundary; a failure only carries a reason.
type PermissionOutcome struct {
	Kind   PermissionOutcomeKind
	Reason string
}

// PermissionGranted returns a success outcome.
func PermissionGranted() PermissionOutcome {
	return PermissionOutcome{Kind: PermissionSuccess}
}

// PermissionFailed returns a failure outcome with a reason.
func PermissionFailed(reason string) PermissionOutcome {
	return PermissionOutcome{Kind: PermissionFailure, Reason: reason}
}

// PlatformUnavailable returns the unavailable outcome.
func PlatformUnavailable() PermissionOutcome {
	return PermissionOutcome{Kind: PermissionPlatformUnavailable}
}

// String returns a human-readable label.
func (o PermissionOutcome) String() string {
	if o.Kind == PermissionFailure && o.Reason != "" {
		return string(o.Kind) + ": " + o.Reason
	}
	return string(o.Kind)
}
