package resolver

import (
	"strings"

	"go.uber.org/zap"

	"github.com/geniass/pricewatch/pkg/document"
)

// Availability is the purchasability state of a product page.
type Availability string

const (
	Available   Availability = "available"
	Unavailable Availability = "unavailable"
	Unknown     Availability = "unknown"
)

// Signal names reported in Result.AvailabilityReasons.
const (
	ReasonSparseDocument        = "sparse-document"
	ReasonUnavailableText       = "unavailable-text"
	ReasonNoPurchaseAffordance  = "no-purchase-affordance"
	ReasonRedirectWithoutBuying = "redirect-without-purchase"
	ReasonNoPurchaseContainer   = "no-purchase-container"
)

// ClassifyAvailability evaluates every availability signal on the page and
// returns the state together with the signals that matched, in evaluation
// order. It does not depend on price resolution.
func (r *Resolver) ClassifyAvailability(doc *document.Document) (Availability, []string) {
	if r.sparse(doc) {
		return Unknown, []string{ReasonSparseDocument}
	}

	var reasons []string

	text := strings.ToLower(doc.Text())
	lexical := false
	for _, phrase := range r.cfg.UnavailablePhrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			r.logger.Debug("unavailability phrase found", zap.String("phrase", phrase), zap.String("url", doc.URL))
			lexical = true
		}
	}
	if lexical {
		reasons = append(reasons, ReasonUnavailableText)
	}

	purchase := doc.Matches(doc.Root, r.sel.purchase)
	if !purchase {
		reasons = append(reasons, ReasonNoPurchaseAffordance)
	}

	// A marketplace link is only a signal when the primary buy action is gone.
	redirectOnly := !purchase && doc.Matches(doc.Root, r.sel.redirect)
	if redirectOnly {
		reasons = append(reasons, ReasonRedirectWithoutBuying)
	}

	noContainer := !doc.Matches(doc.Root, r.sel.container)
	if noContainer {
		reasons = append(reasons, ReasonNoPurchaseContainer)
	}

	if lexical || redirectOnly || noContainer {
		return Unavailable, reasons
	}
	return Available, reasons
}
