package handler

const (
	errInternalServer      = "Internal server error"
	errInvalidBody         = "Invalid request body"
	errSignInFailed        = "Sign-in failed"
	errExternalDisabled    = "External sign-in is not configured"
	errPhoneRejected       = "Phone number was not accepted"
	errInvalidTransition   = "Action not allowed in the current session state"
	errUpstreamUnavailable = "Upstream service unavailable"
	errUpstreamMalformed   = "Upstream service returned an invalid response"
	errUpstreamRejected    = "Upstream service rejected the session"
)
