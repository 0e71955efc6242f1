package config

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"salonbot-backend/models"
	"salonbot-backend/utils"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Env         string `mapstructure:"APP_ENV"`
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DB_URL"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"` // comma separated

	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTExpiryHours int    `mapstructure:"JWT_EXPIRY_HOURS"`

	// Telegram transport. The bot is not started when the token is empty.
	BotToken string `mapstructure:"BOT_TOKEN"`

	// Shared secret identifying the master.
	OperatorPhone string `mapstructure:"OPERATOR_PHONE"`

	NATSURL string `mapstructure:"NATS_URL"`

	TwilioAccountSID  string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `mapstructure:"TWILIO_PHONE_NUMBER"`
	ReminderCron      string `mapstructure:"REMINDER_CRON"`

	NotifyTimeout time.Duration `mapstructure:"NOTIFY_TIMEOUT"`

	// Booking rules
	Timezone          string `mapstructure:"TIMEZONE"`
	BookingWindowDays int    `mapstructure:"BOOKING_WINDOW_DAYS"`
	DailyCapacity     int    `mapstructure:"DAILY_CAPACITY"`
	ClosedWeekdays    string `mapstructure:"CLOSED_WEEKDAYS"`
	OpeningTime       string `mapstructure:"OPENING_TIME"`
	ClosingTime       string `mapstructure:"CLOSING_TIME"`
	BreakStart        string `mapstructure:"BREAK_START"`
	BreakEnd          string `mapstructure:"BREAK_END"`
	SlotStepMinutes   int    `mapstructure:"SLOT_STEP_MINUTES"`
	SlotTimes         string `mapstructure:"SLOT_TIMES"` // explicit list, overrides opening/closing
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_URL", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("OPERATOR_PHONE", "")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_PHONE_NUMBER", "")
	v.SetDefault("REMINDER_CRON", "0 10 * * *")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("TIMEZONE", "Europe/Moscow")
	v.SetDefault("BOOKING_WINDOW_DAYS", 14)
	v.SetDefault("DAILY_CAPACITY", 8)
	v.SetDefault("CLOSED_WEEKDAYS", "sat,sun")
	v.SetDefault("OPENING_TIME", "10:00")
	v.SetDefault("CLOSING_TIME", "19:00")
	v.SetDefault("BREAK_START", "13:00")
	v.SetDefault("BREAK_END", "14:00")
	v.SetDefault("SLOT_STEP_MINUTES", 60)
	v.SetDefault("SLOT_TIMES", "")
}

// LoadServices returns the catalog declared under "services" in config.yaml,
// or nil when the file does not declare one.
func LoadServices() ([]models.Service, error) {
	if !viper.IsSet("services") {
		return nil, nil
	}
	var services []models.Service
	if err := viper.UnmarshalKey("services", &services); err != nil {
		return nil, fmt.Errorf("parse services: %w", err)
	}
	return services, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c Config) JWTExpiry() time.Duration {
	if c.JWTExpiryHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

// BookingRules are the inputs of the availability computation.
type BookingRules struct {
	Location       *time.Location
	WindowDays     int
	DailyCapacity  int
	ClosedWeekdays map[time.Weekday]bool
	SlotTimes      []string // HH:MM, ascending
}

func (r BookingRules) IsBusinessDay(day time.Time) bool {
	return !r.ClosedWeekdays[day.Weekday()]
}

func (r BookingRules) HasSlot(clock string) bool {
	for _, t := range r.SlotTimes {
		if t == clock {
			return true
		}
	}
	return false
}

// BookingRules parses and validates the scheduling settings.
func (c Config) BookingRules() (BookingRules, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return BookingRules{}, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.BookingWindowDays < 1 {
		return BookingRules{}, fmt.Errorf("BOOKING_WINDOW_DAYS must be positive, got %d", c.BookingWindowDays)
	}
	if c.DailyCapacity < 1 {
		return BookingRules{}, fmt.Errorf("DAILY_CAPACITY must be positive, got %d", c.DailyCapacity)
	}
	closed, err := ParseWeekdays(c.ClosedWeekdays)
	if err != nil {
		return BookingRules{}, err
	}

	var slots []string
	if strings.TrimSpace(c.SlotTimes) != "" {
		slots, err = parseSlotList(c.SlotTimes)
	} else {
		slots, err = BuildSlotTimes(c.OpeningTime, c.ClosingTime, c.BreakStart, c.BreakEnd, c.SlotStepMinutes)
	}
	if err != nil {
		return BookingRules{}, err
	}
	if len(slots) == 0 {
		return BookingRules{}, fmt.Errorf("daily schedule has no slots")
	}

	return BookingRules{
		Location:       loc,
		WindowDays:     c.BookingWindowDays,
		DailyCapacity:  c.DailyCapacity,
		ClosedWeekdays: closed,
		SlotTimes:      slots,
	}, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday, "0": time.Sunday, "7": time.Sunday,
	"mon": time.Monday, "monday": time.Monday, "1": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday, "2": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday, "3": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday, "4": time.Thursday,
	"fri": time.Friday, "friday": time.Friday, "5": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday, "6": time.Saturday,
}

// ParseWeekdays parses a comma separated list such as "sat,sun" or "6,0".
func ParseWeekdays(s string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		d, ok := weekdayNames[part]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days[d] = true
	}
	if len(days) == 7 {
		return nil, fmt.Errorf("all weekdays are closed")
	}
	return days, nil
}

// BuildSlotTimes lists slot starts from opening (inclusive) to closing
// (exclusive) every step minutes, skipping starts inside [breakStart, breakEnd).
func BuildSlotTimes(opening, closing, breakStart, breakEnd string, step int) ([]string, error) {
	if step <= 0 {
		return nil, fmt.Errorf("SLOT_STEP_MINUTES must be positive, got %d", step)
	}
	open, err := clockMinutes(opening)
	if err != nil {
		return nil, fmt.Errorf("OPENING_TIME: %w", err)
	}
	closeAt, err := clockMinutes(closing)
	if err != nil {
		return nil, fmt.Errorf("CLOSING_TIME: %w", err)
	}
	if closeAt <= open {
		return nil, fmt.Errorf("CLOSING_TIME %s is not after OPENING_TIME %s", closing, opening)
	}
	brFrom, brTo := -1, -1
	if strings.TrimSpace(breakStart) != "" && strings.TrimSpace(breakEnd) != "" {
		if brFrom, err = clockMinutes(breakStart); err != nil {
			return nil, fmt.Errorf("BREAK_START: %w", err)
		}
		if brTo, err = clockMinutes(breakEnd); err != nil {
			return nil, fmt.Errorf("BREAK_END: %w", err)
		}
	}

	var slots []string
	for m := open; m < closeAt; m += step {
		if m >= brFrom && m < brTo {
			continue
		}
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots, nil
}

func parseSlotList(s string) ([]string, error) {
	seen := make(map[int]bool)
	var mins []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := clockMinutes(part)
		if err != nil {
			return nil, fmt.Errorf("SLOT_TIMES: %w", err)
		}
		if !seen[m] {
			seen[m] = true
			mins = append(mins, m)
		}
	}
	sort.Ints(mins)
	slots := make([]string, len(mins))
	for i, m := range mins {
		slots[i] = fmt.Sprintf("%02d:%02d", m/60, m%60)
	}
	return slots, nil
}

func clockMinutes(s string) (int, error) {
	t, err := time.Parse(utils.ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
