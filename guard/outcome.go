package guard

// Kind tags the result of a guarded provider call.
type Kind int

const (
	Success Kind = iota
	ReauthorizeRequired
	TransientError
	InsufficientScope
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "Success"
	case ReauthorizeRequired:
		return "ReauthorizeRequired"
	case TransientError:
		return "TransientError"
	case InsufficientScope:
		return "InsufficientScope"
	default:
		return "Unknown"
	}
}

// Outcome is the single result of Execute. Only the fields belonging to Kind are set.
type Outcome[T any] struct {
	Kind          Kind
	Value         T      // Success
	ProviderName  string // ReauthorizeRequired
	Message       string // TransientError, InsufficientScope
	RequiredScope string // InsufficientScope, when declared by the caller
}

func (o Outcome[T]) OK() bool {
	return o.Kind == Success
}

func succeeded[T any](value T) Outcome[T] {
	return Outcome[T]{Kind: Success, Value: value}
}

func reauthorize[T any](providerName string) Outcome[T] {
	return Outcome[T]{Kind: ReauthorizeRequired, ProviderName: providerName}
}

func transient[T any](message string) Outcome[T] {
	return Outcome[T]{Kind: TransientError, Message: message}
}

func insufficientScope[T any](message, requiredScope string) Outcome[T] {
	return Outcome[T]{Kind: InsufficientScope, Message: message, RequiredScope: requiredScope}
}
