package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256

	dataURLPrefix = "data:image/png;base64,"
)

type Encoder struct {
	size  int
	level goqrcode.RecoveryLevel
}

func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}

	return &Encoder{
		size:  size,
		level: goqrcode.Medium,
	}
}

// EncodeDataURL renders content as a PNG QR code wrapped in a data URL.
func (e *Encoder) EncodeDataURL(content string) (string, error) {
	if content == "" {
		return "", errors.New("empty QR content")
	}

	png, err := goqrcode.Encode(content, e.level, e.size)
	if err != nil {
		return "", fmt.Errorf("goqrcode.Encode -> %w", err)
	}

	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
