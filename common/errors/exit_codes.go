package errors

type ExitCode int

const (
	GenericFailureExitCode ExitCode = 1

	// Startup
	ConfigFailureExitCode    ExitCode = 60
	SubstrateFailureExitCode ExitCode = 61
	DataFailureExitCode      ExitCode = 62
	StoreFailureExitCode     ExitCode = 63
	PersistInitExitCode      ExitCode = 64

	// Sweep
	TrainSubmitFailureExitCode ExitCode = 70
	VisualizeFailureExitCode   ExitCode = 71
	InterruptedExitCode        ExitCode = 72
)
