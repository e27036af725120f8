package storage

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
)

// weatherRetention caps the weather table at the most recent samples;
// the station itself is the archive, this table only feeds the UI.
const weatherRetention = 10

// SQLiteAdapter implements ports.Storage using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

var _ ports.Storage = (*SQLiteAdapter)(nil)

// LampModel is the GORM model for the lamp state shadow.
type LampModel struct {
	ID          int `gorm:"primaryKey"`
	IsOn        bool
	LastUpdated time.Time
}

// EventModel is the GORM model for emergency events. Activation date
// and time are kept as the operator-facing strings the incident was
// logged with.
type EventModel struct {
	ID              uint `gorm:"primaryKey"`
	ZoneName        string
	WindDirection   string
	ActivationDate  string
	ActivationTime  string
	ClearTime       *string
	DurationMinutes *int
	Status          string `gorm:"index"`
	CreatedAt       time.Time
}

// WeatherModel is the GORM model for datalogger samples.
type WeatherModel struct {
	ID               uint      `gorm:"primaryKey"`
	RecordTime       time.Time `gorm:"index"`
	TemperatureC     *float64
	WindSpeedMS      *float64
	WindDirectionDeg *float64
	IngestedAt       time.Time
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// Auto Migrate
	if err := db.AutoMigrate(&LampModel{}, &EventModel{}, &WeatherModel{}); err != nil {
		return nil, err
	}

	// Create Indices for Performance
	db.Exec("CREATE INDEX IF NOT EXISTS idx_events_zone ON event_models(zone_name)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_events_created ON event_models(created_at)")

	return &SQLiteAdapter{db: db}, nil
}

// SetLamp upserts the last commanded state of a lamp.
func (a *SQLiteAdapter) SetLamp(id int, on bool) error {
	if _, _, err := domain.SplitLampID(id); err != nil {
		return err
	}
	return a.db.Save(&LampModel{ID: id, IsOn: on, LastUpdated: time.Now()}).Error
}

// GetLamp returns the recorded state of a lamp. A lamp never written
// reads as off.
func (a *SQLiteAdapter) GetLamp(id int) (bool, error) {
	if _, _, err := domain.SplitLampID(id); err != nil {
		return false, err
	}
	var m LampModel
	err := a.db.First(&m, id).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsOn, nil
}

// AllLamps returns the recorded state of every lamp that was ever
// written.
func (a *SQLiteAdapter) AllLamps() (map[int]bool, error) {
	var models []LampModel
	if err := a.db.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make(map[int]bool, len(models))
	for _, m := range models {
		out[m.ID] = m.IsOn
	}
	return out, nil
}

// OpenEvent closes any event still marked active for the zone and
// inserts a fresh active record.
func (a *SQLiteAdapter) OpenEvent(zone string, wind domain.WindDirection, at time.Time) (*domain.EmergencyEvent, error) {
	model := EventModel{
		ZoneName:       zone,
		WindDirection:  string(wind),
		ActivationDate: at.Format("2006-01-02"),
		ActivationTime: at.Format("15:04:05"),
		Status:         string(domain.EventActive),
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		var stale []EventModel
		if err := tx.Where("zone_name = ? AND status = ?", zone, domain.EventActive).
			Find(&stale).Error; err != nil {
			return err
		}
		for i := range stale {
			closeEventRow(&stale[i], at)
			if err := tx.Save(&stale[i]).Error; err != nil {
				return err
			}
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		return nil, err
	}
	ev := toDomainEvent(model)
	return &ev, nil
}

// CloseAllActive stamps every active event cleared and returns the
// closed records.
func (a *SQLiteAdapter) CloseAllActive(at time.Time) ([]domain.EmergencyEvent, error) {
	var closed []domain.EmergencyEvent
	err := a.db.Transaction(func(tx *gorm.DB) error {
		var active []EventModel
		if err := tx.Where("status = ?", domain.EventActive).Find(&active).Error; err != nil {
			return err
		}
		for i := range active {
			closeEventRow(&active[i], at)
			if err := tx.Save(&active[i]).Error; err != nil {
				return err
			}
			closed = append(closed, toDomainEvent(active[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// ClearEvent stamps one active event cleared.
func (a *SQLiteAdapter) ClearEvent(id uint, at time.Time) (*domain.EmergencyEvent, error) {
	var m EventModel
	err := a.db.Where("id = ? AND status = ?", id, domain.EventActive).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	closeEventRow(&m, at)
	if err := a.db.Save(&m).Error; err != nil {
		return nil, err
	}
	ev := toDomainEvent(m)
	return &ev, nil
}

func (a *SQLiteAdapter) ActiveEvents() ([]domain.EmergencyEvent, error) {
	var models []EventModel
	if err := a.db.Where("status = ?", domain.EventActive).
		Order("id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainEvents(models), nil
}

func (a *SQLiteAdapter) ListEvents(limit int) ([]domain.EmergencyEvent, error) {
	q := a.db.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []EventModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainEvents(models), nil
}

// InsertObservation stores a sample and prunes everything beyond the
// retention window.
func (a *SQLiteAdapter) InsertObservation(obs domain.WeatherObservation) error {
	model := WeatherModel{
		RecordTime:       obs.RecordTime,
		TemperatureC:     obs.TemperatureC,
		WindSpeedMS:      obs.WindSpeedMS,
		WindDirectionDeg: obs.WindDirectionDeg,
		IngestedAt:       time.Now(),
	}
	return a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM weather_models WHERE id NOT IN
			(SELECT id FROM weather_models ORDER BY record_time DESC, id DESC LIMIT ?)`,
			weatherRetention).Error
	})
}

func (a *SQLiteAdapter) LatestObservation() (*domain.WeatherObservation, error) {
	var m WeatherModel
	err := a.db.Order("record_time DESC, id DESC").First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	obs := toDomainObservation(m)
	return &obs, nil
}

func (a *SQLiteAdapter) RecentObservations(limit int) ([]domain.WeatherObservation, error) {
	if limit <= 0 || limit > weatherRetention {
		limit = weatherRetention
	}
	var models []WeatherModel
	if err := a.db.Order("record_time DESC, id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.WeatherObservation, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainObservation(m))
	}
	return out, nil
}

// Close closes the underlying connection.
func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// closeEventRow fills the clear fields of an event row, computing the
// duration from the stored activation strings.
func closeEventRow(m *EventModel, at time.Time) {
	cleared := at.Format("15:04:05")
	m.ClearTime = &cleared
	m.Status = string(domain.EventCleared)

	started, err := time.ParseInLocation("2006-01-02 15:04:05",
		m.ActivationDate+" "+m.ActivationTime, at.Location())
	if err == nil {
		minutes := int(at.Sub(started).Minutes())
		if minutes < 0 {
			minutes = 0
		}
		m.DurationMinutes = &minutes
	}
}

func toDomainEvent(m EventModel) domain.EmergencyEvent {
	return domain.EmergencyEvent{
		ID:              m.ID,
		ZoneName:        m.ZoneName,
		WindDirection:   m.WindDirection,
		ActivationDate:  m.ActivationDate,
		ActivationTime:  m.ActivationTime,
		ClearTime:       m.ClearTime,
		DurationMinutes: m.DurationMinutes,
		Status:          domain.EventStatus(m.Status),
		CreatedAt:       m.CreatedAt,
	}
}

func toDomainEvents(models []EventModel) []domain.EmergencyEvent {
	out := make([]domain.EmergencyEvent, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainEvent(m))
	}
	return out
}

func toDomainObservation(m WeatherModel) domain.WeatherObservation {
	return domain.WeatherObservation{
		ID:               m.ID,
		RecordTime:       m.RecordTime,
		TemperatureC:     m.TemperatureC,
		WindSpeedMS:      m.WindSpeedMS,
		WindDirectionDeg: m.WindDirectionDeg,
		IngestedAt:       m.IngestedAt,
	}
}
