package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "gmail", cfg.GetMailbox().Provider)
	assert.Equal(t, "file", cfg.GetLedger().Type)

	scan, err := cfg.GetScan()
	require.NoError(t, err)
	assert.False(t, scan.DryRun)
	assert.Equal(t, 5*time.Minute, scan.Timeout)

	printer, err := cfg.GetPrinter()
	require.NoError(t, err)
	assert.Equal(t, []string{"spool"}, printer.Backends)
	assert.Equal(t, 30*time.Second, printer.SMTP.Timeout)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mailbox:
  provider: imap
imap:
  host: imap.example.com
  username: invoices@example.com
ledger:
  type: sqlite
scan:
  concurrency: 2
printer:
  backends: [spool, smtp]
  smtp:
    to: [print@example.org]
`), 0o644))
	t.Setenv("INVOICE_PRINTER_IMAP_MAILBOX", "Invoices")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("dry-run", false, "")
	flags.Int("concurrency", 0, "")
	require.NoError(t, flags.Parse([]string{"--dry-run"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "imap", cfg.GetMailbox().Provider)
	imapCfg := cfg.GetIMAP()
	assert.Equal(t, "imap.example.com", imapCfg.Host)
	assert.Equal(t, 993, imapCfg.Port)
	assert.Equal(t, "Invoices", imapCfg.Mailbox)
	assert.Equal(t, "sqlite", cfg.GetLedger().Type)

	scan, err := cfg.GetScan()
	require.NoError(t, err)
	assert.True(t, scan.DryRun)
	assert.Equal(t, 2, scan.Concurrency, "unset flags must not override the file")

	printer, err := cfg.GetPrinter()
	require.NoError(t, err)
	assert.Equal(t, []string{"spool", "smtp"}, printer.Backends)
	assert.Equal(t, []string{"print@example.org"}, printer.SMTP.To)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestGetScan_BadTimeout(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scan.timeout", "soon")

	_, err := NewFromViper(v).GetScan()
	assert.Error(t, err)
}
