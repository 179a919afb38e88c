package netutil

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/aaronarduino/goqrsvg"
	svg "github.com/ajstarks/svgo"
	"github.com/boombuler/barcode/qr"
	qrcode "github.com/skip2/go-qrcode"
)

// QRCodeSize is the pixel size QR codes are rendered at.
const QRCodeSize = 256

// qrLevel is the error correction level used for PNG and terminal output.
// RenderQRSVG uses the matching qr.L.
const qrLevel = qrcode.Low

// ErrEmptyData is returned when asked to encode an empty string.
var ErrEmptyData = errors.New("no data to encode")

func newQRCode(data string) (*qrcode.QRCode, error) {
	if data == "" {
		return nil, ErrEmptyData
	}
	q, err := qrcode.New(data, qrLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qrcode: %w", err)
	}
	return q, nil
}

// svgQuietZone is the number of blank modules goqrsvg leaves on each side.
const svgQuietZone = 4

// RenderQRSVG returns an SVG document encoding data, sized to fit within
// QRCodeSize pixels.
func RenderQRSVG(data string) (string, error) {
	if data == "" {
		return "", ErrEmptyData
	}
	code, err := qr.Encode(data, qr.L, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("failed to encode qrcode: %w", err)
	}

	span := code.Bounds().Dx() + 2*svgQuietZone
	blockSize := max(QRCodeSize/span, 1)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	qs := goqrsvg.NewQrSVG(code, blockSize)
	qs.StartQrSVG(canvas)
	canvas.Rect(0, 0, span*blockSize, span*blockSize, `fill="#FFFFFF"`)
	if err := qs.WriteQrSVG(canvas); err != nil {
		return "", fmt.Errorf("failed to render qrcode svg: %w", err)
	}
	canvas.End()

	// Drop the xml prologue so the document can be inlined into html.
	doc := buf.String()
	if i := strings.Index(doc, "<svg"); i > 0 {
		doc = doc[i:]
	}
	return strings.TrimSpace(doc), nil
}

// SaveQRPNG writes a PNG image encoding data to dest.
func SaveQRPNG(data, dest string) error {
	if data == "" {
		return ErrEmptyData
	}
	if err := qrcode.WriteFile(data, qrLevel, QRCodeSize, dest); err != nil {
		return fmt.Errorf("failed to save qrcode to %s: %w", dest, err)
	}
	return nil
}

// RenderQRTerminal returns a compact rendering of the QR code made of
// unicode half blocks, suitable for printing to a terminal.
func RenderQRTerminal(data string) (string, error) {
	q, err := newQRCode(data)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
