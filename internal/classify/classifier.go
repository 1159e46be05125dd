// Package classify determines the media category of an untrusted byte
// payload by magic-number inspection. It never consults file names or
// caller-declared content types.
package classify

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"media-normalizer/internal/domain"
)

// minSignatureLength is the shortest byte prefix that can carry a usable
// magic number (e.g. "OggS", "RIFF", "%PDF").
const minSignatureLength = 4

// sniffLimit caps how much of the payload the detector reads. The cap is
// applied by slicing the input locally; mimetype.SetLimit would mutate state
// shared with every other importer of the library.
const sniffLimit = 3072

// Result is the immutable outcome of classifying one payload.
type Result struct {
	Category domain.Classification
	MIME     string
}

// Classify inspects a bounded prefix of data and returns its category.
// It is pure over the input bytes and safe for concurrent use.
func Classify(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, &domain.ClassificationError{Cause: "input is empty"}
	}
	if len(data) < minSignatureLength {
		return Result{}, &domain.ClassificationError{
			Cause: "input is shorter than the minimum signature length",
		}
	}

	prefix := data
	if len(prefix) > sniffLimit {
		prefix = prefix[:sniffLimit]
	}

	detected := mimetype.Detect(prefix)
	return Result{
		Category: categoryFor(detected),
		MIME:     detected.String(),
	}, nil
}

// audioContainers are container types normalized for their audio track even
// though the detected top-level type is not audio/*.
var audioContainers = []string{
	"application/ogg",
	"video/ogg",
	"video/webm",
	"video/mp4",
	"video/quicktime",
}

// documentTypes are non-image, non-audio types routed to the renderer.
var documentTypes = []string{
	"application/pdf",
	"application/rtf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// categoryFor maps a detected MIME hierarchy to a pipeline category.
func categoryFor(m *mimetype.MIME) domain.Classification {
	for cur := m; cur != nil; cur = cur.Parent() {
		mime := baseMIME(cur.String())
		switch {
		case strings.HasPrefix(mime, "audio/"):
			return domain.ClassificationAudio
		case strings.HasPrefix(mime, "image/"):
			return domain.ClassificationImage
		case strings.HasPrefix(mime, "text/"):
			return domain.ClassificationDocument
		}
		for _, container := range audioContainers {
			if mime == container {
				return domain.ClassificationAudio
			}
		}
		for _, doc := range documentTypes {
			if mime == doc {
				return domain.ClassificationDocument
			}
		}
	}
	return domain.ClassificationUnknown
}

// baseMIME strips parameters such as "; charset=utf-8".
func baseMIME(mime string) string {
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		return strings.TrimSpace(mime[:idx])
	}
	return mime
}
