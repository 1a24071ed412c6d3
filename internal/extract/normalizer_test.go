package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		want    *float64
		name    string
		text    string
		wantNil bool
	}{
		{
			name: "keyword proximity picks the total over line items",
			text: "Subtotal 100 Tax 10 Total 110",
			want: ptr(110.0),
		},
		{
			name: "no keywords falls back to the largest number",
			text: "85 42 210",
			want: ptr(210.0),
		},
		{
			name: "rupee symbol",
			text: "You paid\n₹1,250.50\nto the merchant",
			want: ptr(1250.50),
		},
		{
			name: "rs prefix",
			text: "Amount Rs. 340",
			want: ptr(340.0),
		},
		{
			name: "inr prefix",
			text: "INR 89.99 charged",
			want: ptr(89.99),
		},
		{
			name: "debited keyword",
			text: "Your account was debited 560.00 on Friday",
			want: ptr(560.0),
		},
		{
			name:    "implausibly large amounts rejected",
			text:    "ref 99999999999",
			wantNil: true,
		},
		{
			name:    "no numbers",
			text:    "completely blurry text",
			wantNil: true,
		},
		{
			name:    "empty input",
			text:    "",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAmount(tt.text)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.001)
		})
	}
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantNil bool
	}{
		{name: "slash date", text: "Date: 15/08/2026", want: "2026-08-15"},
		{name: "dash date", text: "15-08-2026 14:02", want: "2026-08-15"},
		{name: "two digit year", text: "bill dated 5/8/26", want: "2026-08-05"},
		{name: "month name", text: "Invoice 5 Aug 2026 thanks", want: "2026-08-05"},
		{name: "month name with comma", text: "12 Mar, 2025", want: "2025-03-12"},
		{name: "no date", text: "no calendar info here", wantNil: true},
		{name: "empty", text: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDate(tt.text)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestExtractMerchant(t *testing.T) {
	t.Run("upi screenshot", func(t *testing.T) {
		lines := SplitLines(`Paid to
Sharma General Stores
sharma@okicici
₹820
UPI transaction successful`)

		got := ExtractMerchant(lines)
		require.NotNil(t, got)
		assert.Equal(t, "SHARMA GENERAL STORES", *got)
	})

	t.Run("upi screenshot joins two candidate lines", func(t *testing.T) {
		lines := SplitLines(`Paid to
Hotel Annapurna
Pure Veg
UTR 2211`)

		got := ExtractMerchant(lines)
		require.NotNil(t, got)
		assert.Equal(t, "HOTEL ANNAPURNA PURE VEG", *got)
	})

	t.Run("printed receipt header", func(t *testing.T) {
		lines := SplitLines(`DMart Ready
Invoice #8812
Milk 60`)

		got := ExtractMerchant(lines)
		require.NotNil(t, got)
		assert.Equal(t, "DMART READY", *got)
	})

	t.Run("nothing usable", func(t *testing.T) {
		lines := SplitLines("12345\n@@@@\n9999")
		assert.Nil(t, ExtractMerchant(lines))
	})
}

func TestExtractBillFields(t *testing.T) {
	t.Run("unreadable input yields empty fields", func(t *testing.T) {
		parsed := ExtractBillFields("")
		assert.Nil(t, parsed.Merchant)
		assert.Nil(t, parsed.Amount)
		assert.Nil(t, parsed.BillDate)
		assert.Empty(t, parsed.Items)
	})

	t.Run("full receipt", func(t *testing.T) {
		parsed := ExtractBillFields(`Cafe Blue
Date: 15/08/2026
Cold Coffee 2 x 120 240
GST 5% 12
Grand Total 252
Paid via UPI`)

		require.NotNil(t, parsed.Merchant)
		assert.Equal(t, "CAFE BLUE", *parsed.Merchant)
		require.NotNil(t, parsed.Amount)
		assert.Equal(t, 252.0, *parsed.Amount)
		require.NotNil(t, parsed.BillDate)
		assert.Equal(t, "2026-08-15", *parsed.BillDate)
		require.Len(t, parsed.Items, 1)
		assert.Equal(t, "UPI", parsed.PaymentMode)
	})
}

func ptr(v float64) *float64 { return &v }
