package enums

import "fmt"

// DocumentType identifies which business document a workflow governs.
type DocumentType string

const (
	DocumentTypeInvoice             DocumentType = "invoice"
	DocumentTypePurchaseRequisition DocumentType = "purchase_requisition"
	DocumentTypeVendorOnboarding    DocumentType = "vendor_onboarding"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeInvoice,
	DocumentTypePurchaseRequisition,
	DocumentTypeVendorOnboarding,
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value matches the canonical document_type enum.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentType converts raw input into DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}
