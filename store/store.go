package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/apexgp/paddock/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store provides manual-SQL data access for fixtures, results, news,
// reminders and notifications. Fan accounts are gorm-managed elsewhere.
type Store struct {
	DB *DB
}

func New(db *DB) *Store {
	return &Store{DB: db}
}

func (s *Store) ensureDB() (*sqlx.DB, error) {
	if s == nil || s.DB == nil || s.DB.DB == nil {
		return nil, fmt.Errorf("nil db")
	}
	return s.DB.DB, nil
}

// ListFixtures returns the full fixtures collection ordered by date.
func (s *Store) ListFixtures(ctx context.Context) ([]models.Fixture, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var fixtures []models.Fixture
	stmt := "SELECT id, uuid, round, date, location, circuit, status, created_at, updated_at FROM fixtures ORDER BY date ASC"
	if err := db.SelectContext(ctx, &fixtures, stmt); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func (s *Store) GetFixtureByUUID(ctx context.Context, fixtureUUID string) (*models.Fixture, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var fixture models.Fixture
	stmt := s.DB.Rebind("SELECT id, uuid, round, date, location, circuit, status, created_at, updated_at FROM fixtures WHERE uuid = ?")
	if err := db.GetContext(ctx, &fixture, stmt, fixtureUUID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &fixture, nil
}

// NextFixture returns the nearest scheduled fixture on or after now.
func (s *Store) NextFixture(ctx context.Context, now time.Time) (*models.Fixture, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var fixture models.Fixture
	stmt := s.DB.Rebind("SELECT id, uuid, round, date, location, circuit, status, created_at, updated_at FROM fixtures WHERE date >= ? AND status = ? ORDER BY date ASC LIMIT 1")
	if err := db.GetContext(ctx, &fixture, stmt, now.UTC(), models.FixtureScheduled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &fixture, nil
}

// CreateFixture inserts a fixture, assigning its uuid and timestamps.
func (s *Store) CreateFixture(ctx context.Context, fixture *models.Fixture) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	if fixture.UUID == "" {
		fixture.UUID = uuid.NewString()
	}
	if fixture.Status == "" {
		fixture.Status = models.FixtureScheduled
	}
	now := time.Now().UTC()
	stmt := s.DB.Rebind(`INSERT INTO fixtures(uuid, round, date, location, circuit, status, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	res, err := db.ExecContext(ctx, stmt,
		fixture.UUID,
		fixture.Round,
		fixture.Date.UTC(),
		fixture.Location,
		fixture.Circuit,
		fixture.Status,
		now,
		now,
	)
	if err != nil {
		return err
	}
	fixture.CreatedAt = now
	fixture.UpdatedAt = now
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		fixture.ID = id
		return nil
	}
	// pgx has no LastInsertId, read the row back
	return db.GetContext(ctx, &fixture.ID, s.DB.Rebind("SELECT id FROM fixtures WHERE uuid = ?"), fixture.UUID)
}

// UpdateFixture updates the mutable fields of a fixture by uuid.
func (s *Store) UpdateFixture(ctx context.Context, fixture *models.Fixture) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	stmt := s.DB.Rebind("UPDATE fixtures SET round = ?, date = ?, location = ?, circuit = ?, status = ?, updated_at = ? WHERE uuid = ?")
	res, err := db.ExecContext(ctx, stmt,
		fixture.Round,
		fixture.Date.UTC(),
		fixture.Location,
		fixture.Circuit,
		fixture.Status,
		now,
		fixture.UUID,
	)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	fixture.UpdatedAt = now
	return nil
}

func (s *Store) SetFixtureStatus(ctx context.Context, fixtureUUID, status string) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	stmt := s.DB.Rebind("UPDATE fixtures SET status = ?, updated_at = ? WHERE uuid = ?")
	res, err := db.ExecContext(ctx, stmt, status, time.Now().UTC(), fixtureUUID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteFixture(ctx context.Context, fixtureUUID string) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, s.DB.Rebind("DELETE FROM fixtures WHERE uuid = ?"), fixtureUUID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountFixtures(ctx context.Context) (int, error) {
	db, err := s.ensureDB()
	if err != nil {
		return 0, err
	}
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM fixtures"); err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceResults swaps the classified finishing order of a fixture in a
// single transaction.
func (s *Store) ReplaceResults(ctx context.Context, fixtureID int64, results []models.Result) error {
	if _, err := s.ensureDB(); err != nil {
		return err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.DB.Rebind("DELETE FROM results WHERE fixture_id = ?"), fixtureID); err != nil {
		return err
	}
	now := time.Now().UTC()
	stmt := s.DB.Rebind("INSERT INTO results(fixture_id, position, driver, team, points, created_at) VALUES(?, ?, ?, ?, ?, ?)")
	for _, result := range results {
		if _, err := tx.ExecContext(ctx, stmt, fixtureID, result.Position, result.Driver, result.Team, result.Points, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListResults(ctx context.Context, fixtureID int64) ([]models.Result, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var results []models.Result
	stmt := s.DB.Rebind("SELECT id, fixture_id, position, driver, team, points, created_at FROM results WHERE fixture_id = ? ORDER BY position ASC")
	if err := db.SelectContext(ctx, &results, stmt, fixtureID); err != nil {
		return nil, err
	}
	return results, nil
}

// Standings aggregates driver points over all recorded results.
func (s *Store) Standings(ctx context.Context) ([]models.Standing, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var standings []models.Standing
	stmt := "SELECT driver, MAX(team) AS team, SUM(points) AS points FROM results GROUP BY driver ORDER BY points DESC, driver ASC"
	if err := db.SelectContext(ctx, &standings, stmt); err != nil {
		return nil, err
	}
	return standings, nil
}

// CreateArticle inserts a news article.
func (s *Store) CreateArticle(ctx context.Context, article *models.Article) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if article.Published && article.PublishedAt == nil {
		article.PublishedAt = &now
	}
	stmt := s.DB.Rebind(`INSERT INTO articles(slug, title, body, published, published_at, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`)
	_, err = db.ExecContext(ctx, stmt,
		article.Slug,
		article.Title,
		article.Body,
		article.Published,
		article.PublishedAt,
		now,
		now,
	)
	if err != nil {
		return err
	}
	article.CreatedAt = now
	article.UpdatedAt = now
	return nil
}

func (s *Store) UpdateArticle(ctx context.Context, article *models.Article) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if article.Published && article.PublishedAt == nil {
		article.PublishedAt = &now
	}
	stmt := s.DB.Rebind("UPDATE articles SET title = ?, body = ?, published = ?, published_at = ?, updated_at = ? WHERE slug = ?")
	res, err := db.ExecContext(ctx, stmt, article.Title, article.Body, article.Published, article.PublishedAt, now, article.Slug)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	article.UpdatedAt = now
	return nil
}

func (s *Store) DeleteArticle(ctx context.Context, slug string) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, s.DB.Rebind("DELETE FROM articles WHERE slug = ?"), slug)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListArticles returns articles, newest first. With publishedOnly set,
// drafts are excluded.
func (s *Store) ListArticles(ctx context.Context, publishedOnly bool) ([]models.Article, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var articles []models.Article
	stmt := "SELECT id, slug, title, body, published, published_at, created_at, updated_at FROM articles"
	if publishedOnly {
		stmt += " WHERE published = " + s.boolLiteral(true)
	}
	stmt += " ORDER BY created_at DESC"
	if err := db.SelectContext(ctx, &articles, stmt); err != nil {
		return nil, err
	}
	return articles, nil
}

func (s *Store) GetArticleBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Article, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var article models.Article
	stmt := "SELECT id, slug, title, body, published, published_at, created_at, updated_at FROM articles WHERE slug = ?"
	if publishedOnly {
		stmt += " AND published = " + s.boolLiteral(true)
	}
	if err := db.GetContext(ctx, &article, s.DB.Rebind(stmt), slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &article, nil
}

// boolLiteral renders a boolean constant for the active driver; sqlite
// has no TRUE/FALSE keywords before 3.23 and stores integers anyway.
func (s *Store) boolLiteral(v bool) string {
	if s.DB != nil && s.DB.Driver == DriverPostgres {
		if v {
			return "TRUE"
		}
		return "FALSE"
	}
	if v {
		return "1"
	}
	return "0"
}

// CreateReminder subscribes a fan to a fixture nudge. Duplicate
// subscriptions surface the unique constraint violation.
func (s *Store) CreateReminder(ctx context.Context, reminder *models.Reminder) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	stmt := s.DB.Rebind("INSERT INTO reminders(fan_id, mobile, fixture_id, created_at) VALUES(?, ?, ?, ?)")
	_, err = db.ExecContext(ctx, stmt, reminder.FanID, reminder.Mobile, reminder.FixtureID, now)
	if err != nil {
		return err
	}
	reminder.CreatedAt = now
	return nil
}

// ReminderView pairs a reminder with its fixture so the listing can say
// which race each nudge is for.
type ReminderView struct {
	models.Reminder
	FixtureUUID     string    `json:"fixture_uuid" db:"fixture_uuid"`
	FixtureDate     time.Time `json:"fixture_date" db:"fixture_date"`
	FixtureLocation string    `json:"fixture_location" db:"fixture_location"`
}

func (s *Store) ListRemindersByMobile(ctx context.Context, mobile string) ([]ReminderView, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var reminders []ReminderView
	stmt := s.DB.Rebind(`SELECT r.id, r.fan_id, r.mobile, r.fixture_id, r.sent_at, r.created_at,
			f.uuid AS fixture_uuid, f.date AS fixture_date, f.location AS fixture_location
		FROM reminders r JOIN fixtures f ON f.id = r.fixture_id
		WHERE r.mobile = ? ORDER BY r.created_at DESC`)
	if err := db.SelectContext(ctx, &reminders, stmt, mobile); err != nil {
		return nil, err
	}
	return reminders, nil
}

// DueReminder pairs a pending reminder with its fixture for the sweep.
type DueReminder struct {
	models.Reminder
	FixtureUUID     string    `db:"fixture_uuid"`
	FixtureDate     time.Time `db:"fixture_date"`
	FixtureLocation string    `db:"fixture_location"`
}

// DueReminders returns unsent reminders whose fixture starts within
// [now, now+lead].
func (s *Store) DueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]DueReminder, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var due []DueReminder
	stmt := s.DB.Rebind(`SELECT r.id, r.fan_id, r.mobile, r.fixture_id, r.sent_at, r.created_at,
			f.uuid AS fixture_uuid, f.date AS fixture_date, f.location AS fixture_location
		FROM reminders r JOIN fixtures f ON f.id = r.fixture_id
		WHERE r.sent_at IS NULL AND f.status = ? AND f.date >= ? AND f.date <= ?`)
	from := now.UTC()
	to := from.Add(lead)
	if err := db.SelectContext(ctx, &due, stmt, models.FixtureScheduled, from, to); err != nil {
		return nil, err
	}
	return due, nil
}

func (s *Store) MarkReminderSent(ctx context.Context, reminderID int64, at time.Time) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	stmt := s.DB.Rebind("UPDATE reminders SET sent_at = ? WHERE id = ? AND sent_at IS NULL")
	res, err := db.ExecContext(ctx, stmt, at.UTC(), reminderID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateNotification stores an engagement message for a fan.
func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}
	if notification.UUID == "" {
		notification.UUID = uuid.NewString()
	}
	now := time.Now().UTC()
	stmt := s.DB.Rebind("INSERT INTO notifications(uuid, mobile, title, body, created_at) VALUES(?, ?, ?, ?, ?)")
	if _, err := db.ExecContext(ctx, stmt, notification.UUID, notification.Mobile, notification.Title, notification.Body, now); err != nil {
		return err
	}
	notification.CreatedAt = now
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, mobile string) ([]models.Notification, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var notifications []models.Notification
	stmt := s.DB.Rebind("SELECT id, uuid, mobile, title, body, created_at FROM notifications WHERE mobile = ? ORDER BY created_at DESC")
	if err := db.SelectContext(ctx, &notifications, stmt, mobile); err != nil {
		return nil, err
	}
	return notifications, nil
}
