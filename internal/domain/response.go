package domain

import (
	"encoding/xml"
	"fmt"
)

// ResponseMessage — ответ на запрос, публикуется ровно один раз на
// каждый полученный запрос, в том числе при ошибке.
type ResponseMessage struct {
	XMLName          xml.Name `xml:"Response"`
	RequestID        string   `xml:"Request_GUID"`
	Status           Status   `xml:"Status"`
	Filename         string   `xml:"Filename"`
	ErrorDescription string   `xml:"ErrorDescription"`
}

// NewResponse создаёт ответ на запрос req.
func NewResponse(req RequestMessage, status Status, description string) ResponseMessage {
	return ResponseMessage{
		RequestID:        req.RequestID,
		Filename:         req.Filename,
		Status:           status,
		ErrorDescription: description,
	}
}

// Encode сериализует ответ в XML.
func (r ResponseMessage) Encode() ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode response %s: %w", r.RequestID, err)
	}
	return body, nil
}

// DecodeResponse разбирает XML-документ ответа.
func DecodeResponse(body []byte) (ResponseMessage, error) {
	var resp ResponseMessage
	if err := xml.Unmarshal(body, &resp); err != nil {
		return ResponseMessage{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}
