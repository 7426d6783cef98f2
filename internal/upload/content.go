package upload

import (
	"mime"
	"net/http"
	"path"
	"strings"
)

const octetStream = "application/octet-stream"

// ContentType picks the type forwarded for a part. A specific declared
// type wins; otherwise the content is sniffed and, failing that, the
// extension decides.
func ContentType(declared string, filename string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != octetStream {
		return declared
	}

	if sniffed := http.DetectContentType(data); sniffed != octetStream && !strings.HasPrefix(sniffed, "text/plain") {
		return sniffed
	}

	if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); byExt != "" {
		return byExt
	}
	if declared != "" {
		return declared
	}
	return octetStream
}

func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
