package extract

import "github.com/hridayan/khata/internal/model"

// ExtractBillFields runs every extractor over the raw OCR text and returns a
// structured bill. All fields degrade independently; fully unreadable input
// yields an all-nil ParsedBill rather than an error.
func ExtractBillFields(rawText string) model.ParsedBill {
	lines := SplitLines(rawText)

	return model.ParsedBill{
		Merchant:    ExtractMerchant(lines),
		Amount:      ExtractAmount(rawText),
		BillDate:    ExtractDate(rawText),
		RawLines:    lines,
		Items:       ParseLineItems(rawText),
		PaymentApp:  DetectPaymentApp(rawText),
		PaymentMode: DetectPaymentMode(rawText),
		Direction:   DetectDirection(rawText),
	}
}
