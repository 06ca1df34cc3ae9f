package domain

// Status — итог обработки запроса, передаётся в ответе.
type Status string

const (
	// StatusOK — файл загружен (в том числе с перезаписью).
	StatusOK Status = "OK"

	// StatusError — запрос не обработан, причина в ErrorDescription.
	StatusError Status = "ERROR"
)

// IsValid проверяет, что статус из допустимого набора.
func (s Status) IsValid() bool {
	return s == StatusOK || s == StatusError
}

// String реализует fmt.Stringer.
func (s Status) String() string {
	return string(s)
}
