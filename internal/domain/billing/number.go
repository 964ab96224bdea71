package billing

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// InvoiceOrigin identifies what produced an invoice. The origin determines
// the human-readable number prefix, so the source of a charge is evident
// from the number alone.
type InvoiceOrigin string

const (
	OriginConsultation InvoiceOrigin = "CONS"   // consultation fee
	OriginLab          InvoiceOrigin = "LAB"    // laboratory fulfillment
	OriginRadiology    InvoiceOrigin = "RAD"    // radiology fulfillment
	OriginPharmacy     InvoiceOrigin = "PH"     // pharmacy order fulfillment
	OriginDirectSale   InvoiceOrigin = "RX-POS" // walk-in counter sale
	OriginManual       InvoiceOrigin = "INV"    // manually raised invoice
)

// NewInvoiceNumber generates a human-readable invoice number of the form
// <PREFIX>-NNNN-NNNN: a random four-digit block followed by the last four
// digits of the creation timestamp. Numbers are generated once at creation
// and never reused; the unique index on invoices.number rejects the rare
// collision, in which case the caller regenerates.
func NewInvoiceNumber(origin InvoiceOrigin) string {
	block := 1000 + rand.Intn(9000)
	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	return fmt.Sprintf("%s-%04d-%s", origin, block, ts[len(ts)-4:])
}

// OriginOf extracts the origin prefix from an invoice number, returning
// OriginManual when the prefix is not recognized.
func OriginOf(number string) InvoiceOrigin {
	for _, origin := range []InvoiceOrigin{OriginDirectSale, OriginConsultation, OriginLab, OriginRadiology, OriginPharmacy, OriginManual} {
		if strings.HasPrefix(number, string(origin)+"-") {
			return origin
		}
	}
	return OriginManual
}
