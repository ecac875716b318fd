package domain

// gatewayStatusMap covers both PagSeguro API generations: the legacy numeric
// transaction codes ("1".."7") and the PagBank v4 order/charge tokens.
var gatewayStatusMap = map[string]PaymentStatus{
	// Legacy transaction codes.
	"1": PaymentStatusPending,   // awaiting payment
	"2": PaymentStatusPending,   // in analysis
	"3": PaymentStatusApproved,  // paid
	"4": PaymentStatusApproved,  // available
	"5": PaymentStatusPending,   // in dispute
	"6": PaymentStatusRefunded,  // returned
	"7": PaymentStatusCancelled, // cancelled

	// PagBank v4 tokens.
	"PAID":        PaymentStatusApproved,
	"DECLINED":    PaymentStatusRejected,
	"CANCELED":    PaymentStatusCancelled,
	"AUTHORIZED":  PaymentStatusPending,
	"IN_ANALYSIS": PaymentStatusPending,
	"WAITING":     PaymentStatusPending,
}

// MapGatewayStatus maps a raw gateway status to the canonical enum.
// Unknown input maps to pending: an unrecognized code must never be
// treated as a successful payment.
func MapGatewayStatus(raw string) PaymentStatus {
	if status, ok := gatewayStatusMap[raw]; ok {
		return status
	}
	return PaymentStatusPending
}
