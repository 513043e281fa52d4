package models

type EncryptionMode string

const (
	EncryptionSSL  EncryptionMode = "SSL"
	EncryptionTLS  EncryptionMode = "TLS"
	EncryptionNone EncryptionMode = "NONE"
)

// TransportConfig is a group's outbound SMTP configuration with the
// credential already decrypted. It never leaves the sending path.
type TransportConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	Encryption EncryptionMode

	// Optional overrides; fall back to Email when empty.
	DisplayName string
	ReplyTo     string
}

// FromName returns the sender display name, defaulting to the
// authenticating address.
func (t TransportConfig) FromName() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Email
}

// ReplyAddress returns the reply-to address, defaulting to the
// authenticating address.
func (t TransportConfig) ReplyAddress() string {
	if t.ReplyTo != "" {
		return t.ReplyTo
	}
	return t.Email
}
