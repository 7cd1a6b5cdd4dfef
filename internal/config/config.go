package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "America/Sao_Paulo"
	configPathEnv   = "PRAZO_SCANNER_CONFIG"
	databaseURLEnv  = "DATABASE_URL"
	inboxEmailEnv   = "INBOX_EMAIL"
	inboxPassEnv    = "INBOX_PASSWORD"
	imapServerEnv   = "IMAP_SERVER"
	calendarIDEnv   = "GOOGLE_CALENDAR_ID"
	calendarCredEnv = "GOOGLE_CALENDAR_CREDENTIALS"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Mail      MailConfig      `yaml:"mail"`
	PJe       PJeConfig       `yaml:"pje"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Classify  ClassifyConfig  `yaml:"classify"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// MailConfig wires the IMAP mailbox and the sender allow-lists. The digest
// and exam senders get dedicated persistence paths in the pipeline.
type MailConfig struct {
	Server       string   `yaml:"server"`
	Address      string   `yaml:"address"`
	Password     string   `yaml:"password"`
	Folders      []string `yaml:"folders"`
	CourtSenders []string `yaml:"courtSenders"`
	DigestSender string   `yaml:"digestSender"`
	ExamSender   string   `yaml:"examSender"`
}

// PJeConfig describes the publication portal search.
type PJeConfig struct {
	BaseURL   string `yaml:"baseUrl"`
	OABNumber string `yaml:"oabNumber"`
	Timezone  string `yaml:"timezone"`

	location *time.Location `yaml:"-"`
}

// Location resolves the portal timezone string to a time.Location.
func (p PJeConfig) Location() *time.Location {
	if p.location != nil {
		return p.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// CalendarConfig wires the external calendar mirror.
type CalendarConfig struct {
	CredentialsFile string `yaml:"credentialsFile"`
	CalendarID      string `yaml:"calendarId"`
	Timezone        string `yaml:"timezone"`
}

// ClassifyConfig names the routing queues and the financial keyword list.
type ClassifyConfig struct {
	FinancialQueue string   `yaml:"financialQueue"`
	DefaultQueue   string   `yaml:"defaultQueue"`
	Keywords       []string `yaml:"keywords"`
}

// SchedulerConfig defines how often the email pipeline runs.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts the interval as a Go duration string ("30m", "1h").
func (s *SchedulerConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Interval == "" {
		return nil
	}
	d, err := time.ParseDuration(raw.Interval)
	if err != nil {
		return err
	}
	s.Interval = d
	return nil
}

// ServerConfig describes the admin API listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A .env file is honored the way the office deploys secrets.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	return cfg
}

// Validate reports unrecoverable configuration errors; callers fail fast.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("config: database DSN is required (set DATABASE_URL)")
	}
	return nil
}

// ValidateMail extends Validate for the email ingestion service.
func (c *Config) ValidateMail() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Mail.Address == "" || c.Mail.Password == "" {
		return errors.New("config: mail credentials are required (set INBOX_EMAIL and INBOX_PASSWORD)")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseURLEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(inboxEmailEnv); v != "" {
		c.Mail.Address = v
	}
	if v := os.Getenv(inboxPassEnv); v != "" {
		c.Mail.Password = v
	}
	if v := os.Getenv(imapServerEnv); v != "" {
		c.Mail.Server = v
	}
	if v := os.Getenv(calendarIDEnv); v != "" {
		c.Calendar.CalendarID = v
	}
	if v := os.Getenv(calendarCredEnv); v != "" {
		c.Calendar.CredentialsFile = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.PJe.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.PJe.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Mail.Server != "" {
		base.Mail.Server = override.Mail.Server
	}
	if override.Mail.Address != "" {
		base.Mail.Address = override.Mail.Address
	}
	if override.Mail.Password != "" {
		base.Mail.Password = override.Mail.Password
	}
	if len(override.Mail.Folders) > 0 {
		base.Mail.Folders = override.Mail.Folders
	}
	if len(override.Mail.CourtSenders) > 0 {
		base.Mail.CourtSenders = override.Mail.CourtSenders
	}
	if override.Mail.DigestSender != "" {
		base.Mail.DigestSender = override.Mail.DigestSender
	}
	if override.Mail.ExamSender != "" {
		base.Mail.ExamSender = override.Mail.ExamSender
	}

	if override.PJe.BaseURL != "" {
		base.PJe.BaseURL = override.PJe.BaseURL
	}
	if override.PJe.OABNumber != "" {
		base.PJe.OABNumber = override.PJe.OABNumber
	}
	if override.PJe.Timezone != "" {
		base.PJe.Timezone = override.PJe.Timezone
	}

	if override.Calendar.CredentialsFile != "" {
		base.Calendar.CredentialsFile = override.Calendar.CredentialsFile
	}
	if override.Calendar.CalendarID != "" {
		base.Calendar.CalendarID = override.Calendar.CalendarID
	}
	if override.Calendar.Timezone != "" {
		base.Calendar.Timezone = override.Calendar.Timezone
	}

	if override.Classify.FinancialQueue != "" {
		base.Classify.FinancialQueue = override.Classify.FinancialQueue
	}
	if override.Classify.DefaultQueue != "" {
		base.Classify.DefaultQueue = override.Classify.DefaultQueue
	}
	if len(override.Classify.Keywords) > 0 {
		base.Classify.Keywords = override.Classify.Keywords
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Mail: MailConfig{
			Server:  "imap.mail.yahoo.com",
			Folders: []string{"INBOX", "Bulk"},
			CourtSenders: []string{
				"nao-responda@trt1.jus.br",
				"nao-responda@trtsp.jus.br",
				"eproc-bounce@trf2.jus.br",
			},
			DigestSender: "rd_oabrj@recortedigital.adv.br",
			ExamSender:   "pmfgestao@pmf.mps.gov.br",
		},
		PJe: PJeConfig{
			BaseURL:   "https://comunica.pje.jus.br/consulta",
			OABNumber: "198943",
			Timezone:  defaultTimezone,
		},
		Calendar:  CalendarConfig{CalendarID: "primary", Timezone: defaultTimezone},
		Scheduler: SchedulerConfig{Interval: time.Hour},
		Server:    ServerConfig{Addr: ":8090"},
		Logging:   LoggingConfig{Level: "info"},
	}
}
