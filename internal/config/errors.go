package config

import "errors"

// Ошибки загрузки конфигурации.
var (
	// ErrMissingKey — обязательный ключ не найден ни в одном источнике.
	ErrMissingKey = errors.New("missing required parameter")

	// ErrInvalidValue — значение ключа не разбирается или вне допустимого диапазона.
	ErrInvalidValue = errors.New("invalid configuration value")

	// ErrUnsupportedFormat — расширение файла конфигурации не поддерживается.
	ErrUnsupportedFormat = errors.New("unsupported config file format")
)
