package rules

// DisplayType tells the UI how to present a fare difference.
type DisplayType string

const (
	DisplayPay    DisplayType = "pay"
	DisplayRefund DisplayType = "refund"
	DisplayNone   DisplayType = "none"
)

// FeePreview is the amount breakdown shown before a reschedule is
// confirmed. All amounts are cents; PriceDifference is the only field
// that may be negative.
type FeePreview struct {
	OriginalPrice   int64 `json:"original_price"`
	NewPrice        int64 `json:"new_price"`
	PriceDifference int64 `json:"price_difference"`
	RescheduleFee   int64 `json:"reschedule_fee"`
	TotalToPay      int64 `json:"total_to_pay"`
	RefundAmount    int64 `json:"refund_amount"`
}

// CalculateFeePreview computes what rebooking from the original fare to
// the new fare costs or refunds. When the new fare is higher the
// difference plus the fee is due; when it is lower the fee is due and the
// drop net of the fee comes back, but never less than zero.
func CalculateFeePreview(originalPrice, newPrice, rescheduleFee int64) FeePreview {
	diff := newPrice - originalPrice
	p := FeePreview{
		OriginalPrice:   originalPrice,
		NewPrice:        newPrice,
		PriceDifference: diff,
		RescheduleFee:   rescheduleFee,
		TotalToPay:      rescheduleFee,
	}
	if diff > 0 {
		p.TotalToPay = diff + rescheduleFee
	}
	if diff < 0 {
		if refund := -diff - rescheduleFee; refund > 0 {
			p.RefundAmount = refund
		}
	}
	return p
}

// DifferenceDisplayType keys the fare-difference label purely on the sign
// of the difference.
func DifferenceDisplayType(priceDifference int64) DisplayType {
	switch {
	case priceDifference > 0:
		return DisplayPay
	case priceDifference < 0:
		return DisplayRefund
	default:
		return DisplayNone
	}
}

// DifferenceDisplayAmount is the single number shown next to the label:
// the total due for a fare increase, the refund for a decrease, else 0.
func DifferenceDisplayAmount(p FeePreview) int64 {
	switch {
	case p.PriceDifference > 0:
		return p.TotalToPay
	case p.PriceDifference < 0:
		return p.RefundAmount
	default:
		return 0
	}
}
