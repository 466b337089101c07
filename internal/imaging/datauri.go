package imaging

import "encoding/base64"

const pngDataURIPrefix = "data:image/png;base64,"

// DataURI wraps encoded PNG bytes as a data URI for the response boundary.
func DataURI(pngBytes []byte) string {
	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(pngBytes)
}
