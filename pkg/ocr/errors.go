package ocr

import "errors"

// ErrDecode is returned when the input cannot be read as a pixel grid.
var ErrDecode = errors.New("image decode failed")

// ErrRecognition is returned when the OCR engine fails, is unavailable or
// times out. It is recoverable: the user should retry with a clearer image.
var ErrRecognition = errors.New("text recognition failed")
