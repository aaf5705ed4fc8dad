package qr

import (
	"errors"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const size = 256

type QRGenerator struct {
	baseURL string
}

// NewQRGenerator builds share codes pointing at baseURL, the site's public origin.
func NewQRGenerator(baseURL string) *QRGenerator {
	return &QRGenerator{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// EventURL is the public detail page of an event.
func (q *QRGenerator) EventURL(eventID string) string {
	return q.baseURL + "/events/" + url.PathEscape(eventID)
}

// GenerateEventQR renders a PNG QR code of the event's detail URL.
func (q *QRGenerator) GenerateEventQR(eventID string) ([]byte, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, errors.New("event id is required")
	}
	return qrcode.Encode(q.EventURL(eventID), qrcode.Medium, size)
}
