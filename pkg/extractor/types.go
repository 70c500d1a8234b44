// Package extractor talks to the document-extraction backends and exposes
// their responses as read-only parsed documents.
package extractor

import "strings"

// DocumentType selects an extraction backend and its field schema.
type DocumentType string

const (
	KTP    DocumentType = "ktp"
	KK     DocumentType = "kk"
	Ijazah DocumentType = "ijazah"
	SIM    DocumentType = "sim"
)

// DocumentTypes lists every supported type in command order.
var DocumentTypes = []DocumentType{KTP, KK, SIM, Ijazah}

// ParseDocumentType accepts a type token case-insensitively.
func ParseDocumentType(s string) (DocumentType, bool) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case KTP, KK, Ijazah, SIM:
		return t, true
	}
	return "", false
}

// Label is the upper-case name shown to users.
func (t DocumentType) Label() string {
	return strings.ToUpper(string(t))
}

// Action is the request action understood by the backend.
func (t DocumentType) Action() string {
	return "process-" + string(t)
}

// RejectionStatus is the parsed status a backend reports when the image is
// not a document of this type.
func (t DocumentType) RejectionStatus() string {
	return "not_" + string(t)
}

// OwnerPath is the parsed field that names the document's owner.
func (t DocumentType) OwnerPath() string {
	switch t {
	case KK:
		return "kepala_keluarga.nama"
	case Ijazah:
		return "nama_peserta_didik"
	default:
		return "nama"
	}
}
