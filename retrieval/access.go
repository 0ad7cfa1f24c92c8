package retrieval

import "github.com/stratumkb/stratum/core"

// IsVisible reports whether a caller may see a document. It is a pure
// function of the document's classification and the caller:
//   - public documents are always visible
//   - internal documents require an authenticated caller
//   - tenant-private documents require a tenant match
//
// Unknown classifications are never visible.
func IsVisible(doc *core.Document, caller core.Caller) bool {
	switch doc.Classification {
	case core.ClassificationPublic:
		return true
	case core.ClassificationInternal:
		return caller.Authenticated
	case core.ClassificationTenantPrivate:
		return doc.TenantID == caller.TenantID
	default:
		return false
	}
}
