package relay

import "errors"

// Ошибки воркера.
var (
	// ErrDestinationUnavailable — бакет не найден или хранилище недоступно.
	// Воркер отвечает ERROR и останавливается.
	ErrDestinationUnavailable = errors.New("destination unavailable")

	// ErrWorkerPanic — воркер завершился из-за panic.
	ErrWorkerPanic = errors.New("worker panicked")
)

// Коды завершения процесса.
const (
	ExitOK      = 0
	ExitFailure = 1
)
