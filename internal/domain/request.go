package domain

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"
)

// RequestMessage — запрос на загрузку файла.
//
// Отсутствующий или пустой элемент документа декодируется в пустую
// строку; такие поля считаются отсутствующими.
type RequestMessage struct {
	// RequestID — уникальный идентификатор запроса, он же ключ объекта.
	RequestID string `xml:"Request_GUID"`

	// Filename — исходное имя файла, сохраняется в метаданных объекта.
	Filename string `xml:"FileName"`

	// BucketName — бакет назначения.
	BucketName string `xml:"BucketName"`

	// Payload — содержимое файла в base64.
	Payload string `xml:"FileContent"`
}

// DecodeRequest разбирает XML-документ запроса.
//
// Имя корневого элемента не проверяется. При ошибке разбора возвращается
// пустой запрос вместе с ошибкой: вызывающий всё равно обязан ответить.
func DecodeRequest(body []byte) (RequestMessage, error) {
	var req RequestMessage
	if err := xml.Unmarshal(body, &req); err != nil {
		return RequestMessage{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	req.RequestID = strings.TrimSpace(req.RequestID)
	req.Filename = strings.TrimSpace(req.Filename)
	req.BucketName = strings.TrimSpace(req.BucketName)
	req.Payload = strings.TrimSpace(req.Payload)

	return req, nil
}

// IsEmpty сообщает, что в запросе нет содержимого или идентификатора.
func (r RequestMessage) IsEmpty() bool {
	return r.Payload == "" || r.RequestID == ""
}

// DecodePayload декодирует содержимое файла из base64.
// Переводы строк внутри base64 допустимы.
func (r RequestMessage) DecodePayload() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(r.Payload), ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return data, nil
}
