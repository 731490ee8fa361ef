package config

import "time"

// MailboxConfig selects the mailbox provider
type MailboxConfig struct {
	Provider string
}

// GmailConfig represents the configuration for the Gmail API mailbox
type GmailConfig struct {
	User       string
	Query      string
	LabelIDs   []string
	MaxResults int64
}

// IMAPConfig represents the configuration for an IMAP mailbox
type IMAPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Security   string
	Mailbox    string
	MaxResults int
}

// MboxConfig represents the configuration for a local mbox file
type MboxConfig struct {
	Path       string
	MaxResults int
}

// RedisConfig represents the Redis ledger connection
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LedgerConfig represents the configuration for the processed-attachment ledger
type LedgerConfig struct {
	Type        string
	Path        string
	SQLitePath  string
	MySQLDSN    string
	PostgresDSN string
	Redis       RedisConfig
}

// IPPConfig represents an IPP print server
type IPPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
	Printer  string
}

// SMTPConfig represents an email-to-print relay
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	StartTLS bool
	From     string
	To       []string
	Timeout  time.Duration
}

// PrinterConfig represents the configuration for document dispatch
type PrinterConfig struct {
	Backends    []string
	SpoolDir    string
	JournalPath string
	IPP         IPPConfig
	SMTP        SMTPConfig
}

// ScanConfig represents the configuration for a single scan
type ScanConfig struct {
	DryRun      bool
	Concurrency int
	Timeout     time.Duration
}

// MetricsConfig represents where scan metrics are exported
type MetricsConfig struct {
	PushURL      string
	Job          string
	TextfilePath string
}

// KeyringConfig represents the system keyring settings
type KeyringConfig struct {
	Service      string
	FileDir      string
	FilePassword string
	Backends     []string
}

// CredentialsConfig represents where OAuth material and secrets live
type CredentialsConfig struct {
	OAuthClientFile string
	TokenStore      string
	TokenFile       string
	TokenKey        string
	IMAPPasswordKey string
	Keyring         KeyringConfig
}

// GetMailbox returns the mailbox configuration
func (c *Config) GetMailbox() MailboxConfig {
	return MailboxConfig{
		Provider: c.GetString("mailbox.provider"),
	}
}

// GetGmail returns the Gmail configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		User:       c.GetString("gmail.user"),
		Query:      c.GetString("gmail.query"),
		LabelIDs:   c.GetStringSlice("gmail.label_ids"),
		MaxResults: int64(c.GetInt("gmail.max_results")),
	}
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Host:       c.GetString("imap.host"),
		Port:       c.GetInt("imap.port"),
		Username:   c.GetString("imap.username"),
		Password:   c.GetString("imap.password"),
		Security:   c.GetString("imap.security"),
		Mailbox:    c.GetString("imap.mailbox"),
		MaxResults: c.GetInt("imap.max_results"),
	}
}

// GetMbox returns the mbox configuration
func (c *Config) GetMbox() MboxConfig {
	return MboxConfig{
		Path:       c.GetString("mbox.path"),
		MaxResults: c.GetInt("mbox.max_results"),
	}
}

// GetLedger returns the ledger configuration
func (c *Config) GetLedger() LedgerConfig {
	return LedgerConfig{
		Type:        c.GetString("ledger.type"),
		Path:        c.GetString("ledger.path"),
		SQLitePath:  c.GetString("ledger.sqlite_path"),
		MySQLDSN:    c.GetString("ledger.mysql_dsn"),
		PostgresDSN: c.GetString("ledger.postgres_dsn"),
		Redis: RedisConfig{
			Addr:      c.GetString("ledger.redis.addr"),
			Password:  c.GetString("ledger.redis.password"),
			DB:        c.GetInt("ledger.redis.db"),
			KeyPrefix: c.GetString("ledger.redis.key_prefix"),
		},
	}
}

// GetPrinter returns the printer configuration
func (c *Config) GetPrinter() (PrinterConfig, error) {
	timeout, err := c.GetDuration("printer.smtp.timeout")
	if err != nil {
		return PrinterConfig{}, err
	}
	return PrinterConfig{
		Backends:    c.GetStringSlice("printer.backends"),
		SpoolDir:    c.GetString("printer.spool_dir"),
		JournalPath: c.GetString("journal.path"),
		IPP: IPPConfig{
			Host:     c.GetString("printer.ipp.host"),
			Port:     c.GetInt("printer.ipp.port"),
			Username: c.GetString("printer.ipp.username"),
			Password: c.GetString("printer.ipp.password"),
			TLS:      c.GetBool("printer.ipp.tls"),
			Printer:  c.GetString("printer.ipp.printer"),
		},
		SMTP: SMTPConfig{
			Host:     c.GetString("printer.smtp.host"),
			Port:     c.GetInt("printer.smtp.port"),
			Username: c.GetString("printer.smtp.username"),
			Password: c.GetString("printer.smtp.password"),
			StartTLS: c.GetBool("printer.smtp.starttls"),
			From:     c.GetString("printer.smtp.from"),
			To:       c.GetStringSlice("printer.smtp.to"),
			Timeout:  timeout,
		},
	}, nil
}

// GetScan returns the scan configuration
func (c *Config) GetScan() (ScanConfig, error) {
	timeout, err := c.GetDuration("scan.timeout")
	if err != nil {
		return ScanConfig{}, err
	}
	return ScanConfig{
		DryRun:      c.GetBool("scan.dry_run"),
		Concurrency: c.GetInt("scan.concurrency"),
		Timeout:     timeout,
	}, nil
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		PushURL:      c.GetString("metrics.push_url"),
		Job:          c.GetString("metrics.job"),
		TextfilePath: c.GetString("metrics.textfile_path"),
	}
}

// GetCredentials returns the credentials configuration
func (c *Config) GetCredentials() CredentialsConfig {
	return CredentialsConfig{
		OAuthClientFile: c.GetString("credentials.oauth_client_file"),
		TokenStore:      c.GetString("credentials.token_store"),
		TokenFile:       c.GetString("credentials.token_file"),
		TokenKey:        c.GetString("credentials.token_key"),
		IMAPPasswordKey: c.GetString("credentials.imap_password_key"),
		Keyring: KeyringConfig{
			Service:      c.GetString("credentials.keyring.service"),
			FileDir:      c.GetString("credentials.keyring.file_dir"),
			FilePassword: c.GetString("credentials.keyring.file_password"),
			Backends:     c.GetStringSlice("credentials.keyring.backends"),
		},
	}
}
