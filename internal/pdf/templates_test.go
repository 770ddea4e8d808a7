package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ximepaparella/gifty-api/internal/models"

	"github.com/stretchr/testify/require"
)

func TestFillTemplateSubstitutesAllPlaceholders(t *testing.T) {
	layout := `<h1>{{storeName}}</h1><p>{{productName}} {{amount}}</p>` +
		`<p>From {{senderName}} to {{receiverName}}: {{message}}</p>` +
		`<code>{{code}}</code><span>{{expirationDate}}</span><img src="{{qrCode}}">`

	out := FillTemplate(layout, TemplateData{
		StoreName:      "Cafe Rio",
		ProductName:    "Brunch for two",
		Amount:         "$75.00",
		Code:           "ABCDEFGH23",
		ExpirationDate: "March 1, 2027",
		SenderName:     "Ana",
		ReceiverName:   "Luis",
		Message:        "Enjoy!",
		QRCode:         "data:image/png;base64,AAAA",
	})

	require.NotContains(t, out, "{{")
	require.Contains(t, out, "Cafe Rio")
	require.Contains(t, out, "ABCDEFGH23")
	require.Contains(t, out, "data:image/png;base64,AAAA")
}

func TestFillTemplateDoesNotExpandPlaceholderShapedInput(t *testing.T) {
	layout := `<p>{{message}}</p><code>{{code}}</code>`

	out := FillTemplate(layout, TemplateData{
		Message: "try this: {{code}} {{storeName}}",
		Code:    "REAL123456",
	})

	// The injected tokens survive as literal text; only the layout's own
	// placeholders are replaced
	require.Contains(t, out, "<p>try this: {{code}} {{storeName}}</p>")
	require.Contains(t, out, "<code>REAL123456</code>")
}

func TestLoadTemplateRejectsUnknownName(t *testing.T) {
	_, err := LoadTemplate(t.TempDir(), "ransom-note")
	require.Error(t, err)
}

func TestLoadTemplateReadsKnownLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "birthday.html"), []byte("<h1>{{receiverName}}</h1>"), 0o644))

	layout, err := LoadTemplate(dir, models.TemplateBirthday)
	require.NoError(t, err)
	require.Contains(t, layout, "{{receiverName}}")
}

func TestArtifactPathIsStablePerCode(t *testing.T) {
	a := ArtifactPath("/var/vouchers", "ABCDEFGH23")
	b := ArtifactPath("/var/vouchers", "ABCDEFGH23")
	require.Equal(t, a, b)
	require.Equal(t, filepath.Join("/var/vouchers", "voucher-ABCDEFGH23.pdf"), a)
}

func TestFormatHelpers(t *testing.T) {
	require.Equal(t, "$75.50", FormatAmount(75.5))

	date := time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "March 1, 2027", FormatExpiration(date))
}

func TestQRCodeDataURI(t *testing.T) {
	uri, err := QRCodeDataURI("ABCDEFGH23")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
