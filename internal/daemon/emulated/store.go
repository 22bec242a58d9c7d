package emulated

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/leiter/jami-kmp/internal/daemon/emulated/migrations"
	"github.com/leiter/jami-kmp/internal/model"
	_ "github.com/mattn/go-sqlite3"
)

// store wraps the SQLite archive backing the emulated daemon.
type store struct {
	*sql.DB
}

// openStore opens the archive with WAL mode and runs pending migrations.
func openStore(dataDir string) (*store, error) {
	path := filepath.Join(dataDir, "emulated.db")
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := &store{db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *store) migrate() error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(s.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

// Accounts.

func (s *store) insertAccount(id, displayName string, details map[string]string) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	_, err = s.Exec(`INSERT INTO accounts (id, display_name, details, active, created_at)
		VALUES (?, ?, ?, 1, ?)`,
		id, displayName, string(raw), time.Now().UnixMilli())
	return err
}

func (s *store) deleteAccount(id string) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id IN
		(SELECT id FROM conversations WHERE account_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM members WHERE conversation_id IN
		(SELECT id FROM conversations WHERE account_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM conversations WHERE account_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM contacts WHERE account_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *store) accountIDs() ([]string, error) {
	rows, err := s.Query(`SELECT id FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *store) accountDetails(id string) (map[string]string, error) {
	var raw string
	err := s.QueryRow(`SELECT details FROM accounts WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no such account %q", id)
	}
	if err != nil {
		return nil, err
	}
	details := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	return details, nil
}

func (s *store) setAccountDetails(id string, details map[string]string) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	res, err := s.Exec(`UPDATE accounts SET details = ? WHERE id = ?`, string(raw), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no such account %q", id)
	}
	return nil
}

func (s *store) setAccountActive(id string, active bool) error {
	res, err := s.Exec(`UPDATE accounts SET active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no such account %q", id)
	}
	return nil
}

func (s *store) hasAccount(id string) (bool, error) {
	var one int
	err := s.QueryRow(`SELECT 1 FROM accounts WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Contacts.

func (s *store) upsertContact(c model.Contact) error {
	_, err := s.Exec(`
		INSERT INTO contacts (account_id, uri, display_name, confirmed, banned, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, uri) DO UPDATE SET
			display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE contacts.display_name END,
			confirmed = excluded.confirmed,
			banned = excluded.banned`,
		c.AccountID, c.URI, c.DisplayName, boolInt(c.Confirmed), boolInt(c.Banned),
		time.Now().UnixMilli())
	return err
}

func (s *store) deleteContact(accountID, uri string) error {
	_, err := s.Exec(`DELETE FROM contacts WHERE account_id = ? AND uri = ?`, accountID, uri)
	return err
}

func (s *store) contacts(accountID string) ([]model.Contact, error) {
	rows, err := s.Query(`SELECT uri, display_name, confirmed, banned
		FROM contacts WHERE account_id = ? ORDER BY added_at`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Contact
	for rows.Next() {
		c := model.Contact{AccountID: accountID}
		var confirmed, banned int
		if err := rows.Scan(&c.URI, &c.DisplayName, &confirmed, &banned); err != nil {
			return nil, err
		}
		c.Confirmed = confirmed != 0
		c.Banned = banned != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *store) contact(accountID, uri string) (*model.Contact, error) {
	c := model.Contact{AccountID: accountID, URI: uri}
	var confirmed, banned int
	err := s.QueryRow(`SELECT display_name, confirmed, banned
		FROM contacts WHERE account_id = ? AND uri = ?`, accountID, uri).
		Scan(&c.DisplayName, &confirmed, &banned)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Confirmed = confirmed != 0
	c.Banned = banned != 0
	return &c, nil
}

// Conversations.

func (s *store) insertConversation(id, accountID string, info map[string]string) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal info: %w", err)
	}
	_, err = s.Exec(`INSERT INTO conversations (id, account_id, info, created_at)
		VALUES (?, ?, ?, ?)`,
		id, accountID, string(raw), time.Now().UnixMilli())
	return err
}

func (s *store) deleteConversation(id string) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM members WHERE conversation_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *store) conversationIDs(accountID string) ([]string, error) {
	rows, err := s.Query(`SELECT id FROM conversations WHERE account_id = ? ORDER BY created_at`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *store) conversationInfo(id string) (map[string]string, error) {
	var raw string
	err := s.QueryRow(`SELECT info FROM conversations WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no such conversation %q", id)
	}
	if err != nil {
		return nil, err
	}
	info := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("unmarshal info: %w", err)
	}
	return info, nil
}

func (s *store) setConversationInfo(id string, info map[string]string) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal info: %w", err)
	}
	res, err := s.Exec(`UPDATE conversations SET info = ? WHERE id = ?`, string(raw), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no such conversation %q", id)
	}
	return nil
}

func (s *store) hasConversation(id string) (bool, error) {
	var one int
	err := s.QueryRow(`SELECT 1 FROM conversations WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (s *store) upsertMember(conversationID, uri string, role model.MemberRole) error {
	_, err := s.Exec(`
		INSERT INTO members (conversation_id, uri, role) VALUES (?, ?, ?)
		ON CONFLICT(conversation_id, uri) DO UPDATE SET role = excluded.role`,
		conversationID, uri, string(role))
	return err
}

func (s *store) deleteMember(conversationID, uri string) error {
	_, err := s.Exec(`DELETE FROM members WHERE conversation_id = ? AND uri = ?`,
		conversationID, uri)
	return err
}

func (s *store) members(conversationID string) ([]model.Member, error) {
	rows, err := s.Query(`SELECT uri, role FROM members WHERE conversation_id = ? ORDER BY uri`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Member
	for rows.Next() {
		var m model.Member
		var role string
		if err := rows.Scan(&m.URI, &role); err != nil {
			return nil, err
		}
		m.Role = model.MemberRole(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Messages.

func (s *store) insertMessage(conversationID string, msg daemonMessage) error {
	raw, err := json.Marshal(msg.Body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	_, err = s.Exec(`INSERT INTO messages (id, conversation_id, author, type, body, reply_to, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, conversationID, msg.Author, msg.Type, string(raw), msg.ReplyTo, msg.Timestamp)
	return err
}

// messagesBefore returns up to count messages older than the given message,
// newest first. An empty fromID starts at the newest message.
func (s *store) messagesBefore(conversationID, fromID string, count int) ([]daemonMessage, error) {
	var before int64 = 1<<62 - 1
	if fromID != "" {
		err := s.QueryRow(`SELECT timestamp FROM messages WHERE id = ?`, fromID).Scan(&before)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
	}
	rows, err := s.Query(`SELECT id, author, type, body, reply_to, timestamp
		FROM messages WHERE conversation_id = ? AND timestamp < ?
		ORDER BY timestamp DESC LIMIT ?`,
		conversationID, before, count)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []daemonMessage
	for rows.Next() {
		var m daemonMessage
		var raw string
		if err := rows.Scan(&m.ID, &m.Author, &m.Type, &raw, &m.ReplyTo, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Body = map[string]string{}
		if err := json.Unmarshal([]byte(raw), &m.Body); err != nil {
			return nil, fmt.Errorf("unmarshal body: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// daemonMessage is the stored form of a swarm message.
type daemonMessage struct {
	ID        string
	Author    string
	Type      string
	Body      map[string]string
	ReplyTo   string
	Timestamp int64
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
