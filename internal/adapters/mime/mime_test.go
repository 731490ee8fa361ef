package mime

import (
	"strings"
	"testing"

	"github.com/mikey/invoice-printer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceEML = "Date: Fri, 01 Mar 2024 10:00:00 +0100\r\n" +
	"From: Dostawca <faktury@dostawca.pl>\r\n" +
	"To: biuro@firma.pl\r\n" +
	"To: ksiegowosc@firma.pl\r\n" +
	"Subject: =?windows-1250?Q?Faktura_za_us=B3ugi?=\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"XYZ\"\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"W załączniku faktura.\r\n" +
	"--XYZ\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-Disposition: attachment; filename=\"logo.png\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"iVBORw0KGgo=\r\n" +
	"--XYZ\r\n" +
	"Content-Type: application/pdf; name=\"Faktura_1.pdf\"\r\n" +
	"Content-Disposition: attachment; filename=\"Faktura_1.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0xLjQK\r\n" +
	"--XYZ--\r\n"

func TestParse_InvoiceMessage(t *testing.T) {
	msg, err := Parse("42", strings.NewReader(invoiceEML))
	require.NoError(t, err)

	raw := msg.Raw
	assert.Equal(t, "42", raw.ID)
	assert.Contains(t, raw.Headers, core.Header{Name: "Subject", Value: "Faktura za usługi"})
	assert.Contains(t, raw.Headers, core.Header{Name: "To", Value: "ksiegowosc@firma.pl"})

	require.Len(t, raw.Parts, 3)
	assert.Empty(t, raw.Parts[0].Filename)
	assert.Equal(t, "logo.png", raw.Parts[1].Filename)
	assert.Equal(t, "Faktura_1.pdf", raw.Parts[2].Filename)
	assert.Equal(t, "application/pdf", raw.Parts[2].MimeType)

	pdf := []byte("%PDF-1.4\n")
	assert.Equal(t, ContentID(pdf), raw.Parts[2].AttachmentID)
	assert.Equal(t, pdf, msg.Attachments[raw.Parts[2].AttachmentID])
}

func TestParse_FactsFromParsedMessage(t *testing.T) {
	msg, err := ParseBytes("42", []byte(invoiceEML))
	require.NoError(t, err)

	facts, ok := core.ExtractFacts(msg.Raw)

	require.True(t, ok)
	assert.Equal(t, "biuro@firma.pl,ksiegowosc@firma.pl", facts.To)
	assert.Equal(t, "Faktura_1.pdf", facts.AttachmentFileName)
	assert.Equal(t, "2024-03-01T09:00:00Z", facts.SentAt.Format("2006-01-02T15:04:05Z07:00"))
}

func TestParse_InlinePDF(t *testing.T) {
	eml := "From: a@b.pl\r\n" +
		"Content-Type: multipart/mixed; boundary=\"B\"\r\n" +
		"\r\n" +
		"--B\r\n" +
		"Content-Type: application/pdf; name=\"faktura.pdf\"\r\n" +
		"Content-Disposition: inline\r\n" +
		"\r\n" +
		"%PDF\r\n" +
		"--B--\r\n"

	msg, err := ParseBytes("1", []byte(eml))
	require.NoError(t, err)

	require.Len(t, msg.Raw.Parts, 1)
	assert.Equal(t, "faktura.pdf", msg.Raw.Parts[0].Filename)
	assert.NotEmpty(t, msg.Raw.Parts[0].AttachmentID)
}

func TestContentID_Stable(t *testing.T) {
	a := ContentID([]byte("same"))
	b := ContentID([]byte("same"))
	c := ContentID([]byte("other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, AttachmentIDPrefix))
}
