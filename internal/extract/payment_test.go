package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPaymentApp(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "phonepe", text: "Powered by PhonePe", want: "PhonePe"},
		{name: "google pay", text: "Google Pay transaction", want: "Google Pay"},
		{name: "gpay shorthand", text: "sent via GPay", want: "Google Pay"},
		{name: "paytm", text: "Paytm wallet used", want: "Paytm"},
		{name: "sbi yono", text: "YONO SBI receipt", want: "SBI"},
		{name: "upi handle only", text: "paid to sharma@ybl", want: "UPI Transfer"},
		{name: "unknown", text: "cash register receipt", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPaymentApp(tt.text))
		})
	}
}

func TestDetectPaymentMode(t *testing.T) {
	assert.Equal(t, "UPI", DetectPaymentMode("UPI Ref 12345"))
	assert.Equal(t, "IMPS", DetectPaymentMode("IMPS transfer done"))
	assert.Equal(t, "NEFT/RTGS", DetectPaymentMode("via NEFT"))
	assert.Equal(t, "CARD", DetectPaymentMode("VISA ending 4242"))
	assert.Equal(t, "WALLET", DetectPaymentMode("wallet balance used"))
	assert.Equal(t, "BANK_TRANSFER", DetectPaymentMode("to beneficiary account"))
	assert.Equal(t, "", DetectPaymentMode("cash"))
}

func TestDetectDirection(t *testing.T) {
	assert.Equal(t, "Sent", DetectDirection("Paid to Sharma Stores"))
	assert.Equal(t, "Sent", DetectDirection("You sent ₹500"))
	assert.Equal(t, "Received", DetectDirection("Received from Acme Corp"))
	assert.Equal(t, "Received", DetectDirection("₹500 was credited to your account"))
	assert.Equal(t, "", DetectDirection("Total 450"))
}
