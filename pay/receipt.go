package pay

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"ticketbari/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// QRPayload returns sessionId|transactionId|signature, signed with the receipt secret.
func (p *PaymentService) QRPayload(rec models.PaymentRecord) string {
	data := rec.SessionID + "|" + rec.TransactionID
	return data + "|" + p.sign(data)
}

// VerifyQRPayload checks a scanned receipt code and returns the session id it names.
func (p *PaymentService) VerifyQRPayload(payload string) (string, bool) {
	parts := strings.Split(payload, "|")
	if len(parts) != 3 {
		return "", false
	}
	want := p.sign(parts[0] + "|" + parts[1])
	if !hmac.Equal([]byte(want), []byte(parts[2])) {
		return "", false
	}
	return parts[0], true
}

func (p *PaymentService) sign(data string) string {
	h := hmac.New(sha256.New, p.receiptSecret)
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Receipt renders a one-page PDF receipt with a signed QR code.
func (p *PaymentService) Receipt(rec models.PaymentRecord) ([]byte, error) {
	qrPNG, err := qrcode.Encode(p.QRPayload(rec), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate receipt qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "TicketBari Payment Receipt")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 12)
	lines := []string{
		"Ticket: " + rec.ProductTitle,
		fmt.Sprintf("Quantity: %d", rec.Quantity),
		fmt.Sprintf("Amount: %.2f %s", rec.Amount, strings.ToUpper(rec.Currency)),
		"Buyer: " + rec.BuyerName + " <" + rec.BuyerEmail + ">",
		"Transaction: " + rec.TransactionID,
		"Session: " + rec.SessionID,
		"Paid at: " + rec.CreatedAt.Format("2006-01-02 15:04 MST"),
	}
	for _, line := range lines {
		pdf.Cell(0, 10, line)
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
