package extract

import "strings"

// DetectPaymentApp guesses which payment app produced the screenshot.
func DetectPaymentApp(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "phonepe") || strings.Contains(t, "powered by phonepe"):
		return "PhonePe"
	case strings.Contains(t, "gpay") || strings.Contains(t, "google pay"):
		return "Google Pay"
	case strings.Contains(t, "paytm"):
		return "Paytm"
	case strings.Contains(t, "yono") && strings.Contains(t, "sbi"):
		return "SBI"
	case strings.Contains(t, "icici") && (strings.Contains(t, "imobile") || strings.Contains(t, "imps")):
		return "ICICI"
	case strings.Contains(t, "@ok") || strings.Contains(t, "@ybl") || strings.Contains(t, "@upi") || strings.Contains(t, "@paytm"):
		return "UPI Transfer"
	}
	return ""
}

// DetectPaymentMode guesses the payment rail used.
func DetectPaymentMode(text string) string {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, []string{"upi", "gpay", "phonepe", "paytm"}):
		return "UPI"
	case containsAny(t, []string{"imps"}):
		return "IMPS"
	case containsAny(t, []string{"neft", "rtgs"}):
		return "NEFT/RTGS"
	case containsAny(t, []string{"card", "visa", "mastercard"}):
		return "CARD"
	case containsAny(t, []string{"wallet"}):
		return "WALLET"
	case containsAny(t, []string{"bank", "account", "beneficiary"}):
		return "BANK_TRANSFER"
	}
	return ""
}

// DetectDirection reports whether money was sent or received.
func DetectDirection(text string) string {
	t := strings.ToLower(text)
	if containsAny(t, []string{"sent to", "paid to", "debited from", "you paid", "you sent"}) {
		return "Sent"
	}
	if containsAny(t, []string{"received from", "credited", "you received", "was credited"}) {
		return "Received"
	}
	return ""
}
