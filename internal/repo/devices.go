package repo

import (
	"context"

	"gorm.io/gorm"
)

// DeviceStore reads and maintains push device tokens. Registration itself is
// a stored procedure (sp_device_register_json); this store only covers the
// lookups the push dispatcher needs.
type DeviceStore struct {
	DB *gorm.DB
}

// ActiveTokens returns the active device tokens registered for userID.
func (s *DeviceStore) ActiveTokens(ctx context.Context, userID string) ([]string, error) {
	var tokens []string
	err := s.DB.WithContext(ctx).
		Raw("SELECT token FROM device_tokens WHERE user_id = ? AND is_active = TRUE", userID).
		Scan(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeactivateToken marks a token inactive after the provider reports the
// device as no longer registered.
func (s *DeviceStore) DeactivateToken(ctx context.Context, token string) error {
	return s.DB.WithContext(ctx).
		Exec("UPDATE device_tokens SET is_active = FALSE WHERE token = ?", token).Error
}

// DriverEmails lists the identities that receive new-pickup notifications.
func (s *DeviceStore) DriverEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := s.DB.WithContext(ctx).
		Raw("SELECT email FROM users WHERE role = 'driver'").
		Scan(&emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}
