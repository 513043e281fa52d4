package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shivangsaraswat/certiflow/internal/models"
)

func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	var group models.Group

	err := s.Pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(email_subject,''), COALESCE(email_body,'')
		 FROM groups
		 WHERE id=$1`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.SubjectTemplate, &group.BodyTemplate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select group: %w", err)
	}

	return &group, nil
}

func (s *Store) GetCertificate(ctx context.Context, certID string) (*models.Certificate, error) {
	var cert models.Certificate

	err := s.Pool.QueryRow(ctx,
		`SELECT id, group_id, code, COALESCE(file_name,''), COALESCE(file_url,''), COALESCE(file_path,'')
		 FROM certificates
		 WHERE id=$1`,
		certID,
	).Scan(&cert.ID, &cert.GroupID, &cert.Code, &cert.FileName, &cert.FileURL, &cert.FilePath)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select certificate: %w", err)
	}

	return &cert, nil
}

// TransportRow is a group's SMTP configuration as stored, credential
// still encrypted. The transport resolver decrypts it.
type TransportRow struct {
	GroupID           string
	Host              string
	Port              int
	Email             string
	PasswordEncrypted string
	Encryption        models.EncryptionMode
	DisplayName       string
	ReplyTo           string
}

func (s *Store) GetTransport(ctx context.Context, groupID string) (*TransportRow, error) {
	var row TransportRow

	err := s.Pool.QueryRow(ctx,
		`SELECT group_id, host, port, email, password_encrypted, encryption, COALESCE(display_name,''), COALESCE(reply_to,'')
		 FROM group_transports
		 WHERE group_id=$1`,
		groupID,
	).Scan(
		&row.GroupID,
		&row.Host,
		&row.Port,
		&row.Email,
		&row.PasswordEncrypted,
		&row.Encryption,
		&row.DisplayName,
		&row.ReplyTo,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select transport: %w", err)
	}

	return &row, nil
}
