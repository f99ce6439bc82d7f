package base

// StatusCode is the code returned to the OS.
type StatusCode uint8

// Status codes returned by the main executable.
const (
	SNoError StatusCode = iota
	SGenericError
	SHelpRequested
	SInvalidParameters
	SAuthError
	SInitializationError
	SApplicationError
	SCacheError
	SUserError
)

func (s StatusCode) String() string {
	switch s {
	case SNoError:
		return "NoError"
	case SGenericError:
		return "GenericError"
	case SHelpRequested:
		return "HelpRequested"
	case SInvalidParameters:
		return "InvalidParameters"
	case SAuthError:
		return "AuthError"
	case SInitializationError:
		return "InitializationError"
	case SApplicationError:
		return "ApplicationError"
	case SCacheError:
		return "CacheError"
	case SUserError:
		return "UserError"
	default:
		return "unknown"
	}
}
