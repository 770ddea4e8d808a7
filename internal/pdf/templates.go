package pdf

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ximepaparella/gifty-api/internal/models"

	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

// TemplateData carries everything the voucher layout needs
type TemplateData struct {
	StoreName          string
	StoreAddress       string
	StorePhone         string
	StoreEmail         string
	StoreLogo          string
	ProductName        string
	ProductDescription string
	Amount             string
	Code               string
	ExpirationDate     string
	SenderName         string
	ReceiverName       string
	Message            string
	QRCode             string
}

// LoadTemplate reads the HTML layout for a named voucher template. A missing
// file for a known template name is fatal to the render operation.
func LoadTemplate(templateDir string, name models.VoucherTemplate) (string, error) {
	if !models.IsAllowedTemplate(name) {
		return "", errors.Errorf("unknown voucher template %q", name)
	}
	path := filepath.Join(templateDir, string(name)+".html")
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read voucher template %q", name)
	}
	return string(content), nil
}

// FillTemplate substitutes the named placeholders into the layout. The
// placeholders are opaque tokens and the substitution is literal string
// replacement with no control flow. strings.Replacer makes a single pass over
// the input, so placeholder-shaped text inside user-supplied fields (message,
// names) is emitted verbatim and never re-expanded.
func FillTemplate(layout string, data TemplateData) string {
	replacer := strings.NewReplacer(
		"{{storeName}}", data.StoreName,
		"{{storeAddress}}", data.StoreAddress,
		"{{storePhone}}", data.StorePhone,
		"{{storeEmail}}", data.StoreEmail,
		"{{storeLogo}}", data.StoreLogo,
		"{{productName}}", data.ProductName,
		"{{productDescription}}", data.ProductDescription,
		"{{amount}}", data.Amount,
		"{{code}}", data.Code,
		"{{expirationDate}}", data.ExpirationDate,
		"{{senderName}}", data.SenderName,
		"{{receiverName}}", data.ReceiverName,
		"{{message}}", data.Message,
		"{{qrCode}}", data.QRCode,
	)
	return replacer.Replace(layout)
}

// FormatAmount formats a voucher amount as displayed currency
func FormatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// FormatExpiration formats an expiration date for display on the voucher
func FormatExpiration(t time.Time) string {
	return t.Format("January 2, 2006")
}

// QRCodeDataURI encodes the voucher code as a QR image data URI suitable for
// embedding directly in an <img> tag
func QRCodeDataURI(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode QR code")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// ArtifactFilename returns the stable filename for a voucher's PDF. The code
// is the identity: regenerating overwrites the same file.
func ArtifactFilename(code string) string {
	return fmt.Sprintf("voucher-%s.pdf", code)
}

// ArtifactPath returns the full storage path for a voucher's PDF
func ArtifactPath(storageDir, code string) string {
	return filepath.Join(storageDir, ArtifactFilename(code))
}
