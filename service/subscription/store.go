package subscription

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("subscription not found")

type Store struct {
	DB     *sql.DB
	sealer *Sealer
	logger *slog.Logger
}

func OpenDB(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// foreign_keys(1): enable FK constraints (disabled by default in SQLite)
	// _busy_timeout=5000: wait up to 5s when DB is locked
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func NewStore(db *sql.DB, masterPassword string, logger *slog.Logger) (*Store, error) {
	sealer, err := NewSealer(masterPassword)
	if err != nil {
		return nil, err
	}

	store := &Store{DB: db, sealer: sealer, logger: logger}
	if err := store.createTables(); err != nil {
		return nil, err
	}

	if err := store.checkIntegrity(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS apps (
			appName TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			appName TEXT NOT NULL,
			channel TEXT NOT NULL,
			telegramChatId TEXT,
			pushEndpoint TEXT,
			p256dh TEXT,
			auth TEXT,
			vapidPrivateKey BLOB,
			createdAt INTEGER NOT NULL,
			FOREIGN KEY(appName) REFERENCES apps(appName) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_appName ON subscriptions(appName)`,
	}

	for _, query := range queries {
		if _, err := s.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

// checkIntegrity removes webpush keys that no longer decrypt, which happens
// after API_KEY changes. The subscriptions fall back to plain webhooks.
func (s *Store) checkIntegrity() error {
	rows, err := s.DB.Query(`SELECT id, vapidPrivateKey FROM subscriptions WHERE vapidPrivateKey IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("failed to scan sealed keys: %w", err)
	}

	var corrupted []string
	for rows.Next() {
		var id string
		var sealed []byte
		if err := rows.Scan(&id, &sealed); err != nil {
			_ = rows.Close()
			return err
		}
		if _, err := s.sealer.Open(sealed); err != nil {
			corrupted = append(corrupted, id)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, id := range corrupted {
		s.logger.Warn("VAPID key corrupted (API_KEY likely changed), clearing subscription keys", "subscriptionID", id)
		if _, err := s.DB.Exec(`UPDATE subscriptions SET p256dh = NULL, auth = NULL, vapidPrivateKey = NULL WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to clear corrupted key: %w", err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) RegisterApp(appName string) error {
	_, err := s.DB.Exec(`INSERT INTO apps (appName) VALUES (?) ON CONFLICT(appName) DO NOTHING`, appName)
	return err
}

func (s *Store) AddSubscription(sub Subscription) (string, error) {
	if err := s.RegisterApp(sub.AppName); err != nil {
		return "", err
	}

	var telegramChatID, pushEndpoint, p256dh, auth *string
	var vapidPrivateKey []byte

	if sub.Telegram != nil {
		telegramChatID = &sub.Telegram.ChatID
	}
	if sub.WebPush != nil {
		pushEndpoint = &sub.WebPush.Endpoint
		if sub.WebPush.HasEncryption() {
			p256dh = &sub.WebPush.P256dh
			auth = &sub.WebPush.Auth
			sealed, err := s.sealer.Seal([]byte(sub.WebPush.VapidPrivateKey))
			if err != nil {
				return "", fmt.Errorf("failed to encrypt VAPID key: %w", err)
			}
			vapidPrivateKey = sealed
		}
	}

	id := uuid.NewString()
	_, err := s.DB.Exec(`
		INSERT INTO subscriptions (id, appName, channel, telegramChatId, pushEndpoint, p256dh, auth, vapidPrivateKey, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, sub.AppName, sub.Channel.String(), telegramChatID, pushEndpoint, p256dh, auth, vapidPrivateKey, time.Now().UnixMilli())
	if err != nil {
		return "", err
	}

	return id, nil
}

func (s *Store) GetApp(appName string) (*App, error) {
	row := s.DB.QueryRow(`SELECT appName FROM apps WHERE appName = ?`, appName)

	var app App
	if err := row.Scan(&app.AppName); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	subs, err := s.GetSubscriptions(appName)
	if err != nil {
		return nil, err
	}
	app.Subscriptions = subs

	return &app, nil
}

const selectSubscription = `
	SELECT id, appName, channel, telegramChatId, pushEndpoint, p256dh, auth, vapidPrivateKey, createdAt
	FROM subscriptions
`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSubscription(row rowScanner) (Subscription, error) {
	var sub Subscription
	var channel string
	var createdAt int64
	var telegramChatID, pushEndpoint, p256dh, auth sql.NullString
	var vapidPrivateKey []byte

	if err := row.Scan(&sub.ID, &sub.AppName, &channel, &telegramChatID, &pushEndpoint, &p256dh, &auth, &vapidPrivateKey, &createdAt); err != nil {
		return sub, err
	}
	sub.Channel = Channel(channel)
	sub.CreatedAt = time.UnixMilli(createdAt)

	if telegramChatID.Valid {
		sub.Telegram = &TelegramSubscription{
			ChatID: telegramChatID.String,
		}
	}
	if pushEndpoint.Valid {
		sub.WebPush = &WebPushSubscription{
			Endpoint: pushEndpoint.String,
		}
		if p256dh.Valid && auth.Valid && vapidPrivateKey != nil {
			key, err := s.sealer.Open(vapidPrivateKey)
			if err != nil {
				return sub, fmt.Errorf("failed to decrypt VAPID key for %s: %w", sub.ID, err)
			}
			sub.WebPush.P256dh = p256dh.String
			sub.WebPush.Auth = auth.String
			sub.WebPush.VapidPrivateKey = string(key)
		}
	}

	return sub, nil
}

func (s *Store) GetSubscriptions(appName string) ([]Subscription, error) {
	rows, err := s.DB.Query(selectSubscription+`WHERE appName = ? ORDER BY createdAt, id`, appName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscriptions := make([]Subscription, 0)
	for rows.Next() {
		sub, err := s.scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, sub)
	}

	return subscriptions, rows.Err()
}

func (s *Store) GetSubscription(subscriptionID string) (*Subscription, error) {
	row := s.DB.QueryRow(selectSubscription+`WHERE id = ?`, subscriptionID)

	sub, err := s.scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func (s *Store) GetAllApps() ([]App, error) {
	rows, err := s.DB.Query(`SELECT appName FROM apps ORDER BY appName`)
	if err != nil {
		return nil, err
	}

	appNames := make([]string, 0)
	for rows.Next() {
		var appName string
		if err := rows.Scan(&appName); err != nil {
			_ = rows.Close()
			return nil, err
		}
		appNames = append(appNames, appName)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	apps := make([]App, 0, len(appNames))
	for _, appName := range appNames {
		subs, err := s.GetSubscriptions(appName)
		if err != nil {
			return nil, err
		}
		apps = append(apps, App{AppName: appName, Subscriptions: subs})
	}

	return apps, nil
}

func (s *Store) DeleteSubscription(subscriptionID string) error {
	res, err := s.DB.Exec(`DELETE FROM subscriptions WHERE id = ?`, subscriptionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSubscriptionsByChannel(channel Channel) error {
	_, err := s.DB.Exec(`DELETE FROM subscriptions WHERE channel = ?`, channel.String())
	return err
}

func (s *Store) RemoveApp(appName string) error {
	_, err := s.DB.Exec(`DELETE FROM apps WHERE appName = ?`, appName)
	return err
}
