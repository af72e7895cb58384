package eventimport

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/helferhub/internal/app/system/timezones"
	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// File is the YAML description of one event.
//
//	url_name: summer-fest
//	name: Summer Fest
//	timezone: Europe/Berlin
//	jobs:
//	  - name: Bar
//	    public: true
//	    shifts:
//	      - begin: 2026-07-01 10:00
//	        end: 2026-07-01 14:00
//	        helpers: 4
//	      - begin: 2026-07-01 18:00
//	        duration: 3h
//	        rrule: FREQ=DAILY;COUNT=3
//	        helpers: 2
type File struct {
	URLName        string    `yaml:"url_name" validate:"required,max=100,slug,notreserved"`
	Name           string    `yaml:"name" validate:"required,max=200"`
	ContactEmail   string    `yaml:"contact_email" validate:"omitempty,email"`
	Timezone       string    `yaml:"timezone" validate:"omitempty,zone"`
	Active         bool      `yaml:"active"`
	Badges         bool      `yaml:"badges"`
	MailValidation bool      `yaml:"mail_validation"`
	AskShirt       bool      `yaml:"ask_shirt"`
	AskVegetarian  bool      `yaml:"ask_vegetarian"`
	Admins         []string  `yaml:"admins" validate:"dive,required"`
	Jobs           []JobSpec `yaml:"jobs" validate:"required,min=1,dive"`
}

type JobSpec struct {
	Name                 string      `yaml:"name" validate:"required,max=200"`
	Public               bool        `yaml:"public"`
	InfectionInstruction bool        `yaml:"infection_instruction"`
	Description          string      `yaml:"description"`
	Admins               []string    `yaml:"admins" validate:"dive,required"`
	Shifts               []ShiftSpec `yaml:"shifts" validate:"dive"`
}

// ShiftSpec is one shift, or a series of shifts when RRule is set. Either
// End or Duration gives the length.
type ShiftSpec struct {
	Name     string `yaml:"name" validate:"max=200"`
	Begin    string `yaml:"begin" validate:"required"`
	End      string `yaml:"end" validate:"required_without=Duration"`
	Duration string `yaml:"duration" validate:"required_without=End"`
	Helpers  int    `yaml:"helpers" validate:"min=0"`
	Blocked  bool   `yaml:"blocked"`
	RRule    string `yaml:"rrule"`
}

// ReservedURLNames are first path segments taken by the application itself.
var ReservedURLNames = []string{"login", "logout", "manage", "health", "static"}

// MaxOccurrences caps the shifts one rrule series may produce.
const MaxOccurrences = 366

// TimeLayout is the layout of begin and end values.
const TimeLayout = "2006-01-02 15:04"

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("notreserved", func(fl validator.FieldLevel) bool {
		return !IsReserved(fl.Field().String())
	})
	_ = validate.RegisterValidation("zone", func(fl validator.FieldLevel) bool {
		return timezones.Valid(fl.Field().String())
	})
}

// IsReserved reports whether name collides with an application route.
func IsReserved(name string) bool {
	for _, r := range ReservedURLNames {
		if strings.EqualFold(name, r) {
			return true
		}
	}
	return false
}

// LoadFromPath reads and parses an event file.
func LoadFromPath(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates an event file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse event file: %w", err)
	}
	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks struct rules, then times and rrule syntax of every shift.
func Validate(f *File) error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("event file validation failed: %w", err)
	}
	loc, err := f.Location()
	if err != nil {
		return err
	}
	for i, j := range f.Jobs {
		for k, s := range j.Shifts {
			if _, _, err := s.bounds(loc); err != nil {
				return fmt.Errorf("jobs[%d].shifts[%d]: %w", i, k, err)
			}
			if s.RRule != "" {
				if _, err := rrule.StrToRRule(s.RRule); err != nil {
					return fmt.Errorf("invalid rrule in jobs[%d].shifts[%d]: %w", i, k, err)
				}
			}
		}
	}
	return nil
}

// Location returns the event's time zone, UTC when unset.
func (f *File) Location() (*time.Location, error) {
	if f.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", f.Timezone, err)
	}
	return loc, nil
}

var errEndBeforeBegin = errors.New("shift must end after it begins")

func (s ShiftSpec) bounds(loc *time.Location) (time.Time, time.Duration, error) {
	begin, err := time.ParseInLocation(TimeLayout, s.Begin, loc)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("begin: %w", err)
	}
	var length time.Duration
	if s.End != "" {
		end, err := time.ParseInLocation(TimeLayout, s.End, loc)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("end: %w", err)
		}
		length = end.Sub(begin)
	} else {
		length, err = time.ParseDuration(s.Duration)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("duration: %w", err)
		}
	}
	if length <= 0 {
		return time.Time{}, 0, errEndBeforeBegin
	}
	return begin, length, nil
}

// Occurrences returns the begin times of the shift. Without an rrule that is
// just Begin; with one the series starts at Begin and stops after
// MaxOccurrences.
func (s ShiftSpec) Occurrences(loc *time.Location) ([]time.Time, time.Duration, error) {
	begin, length, err := s.bounds(loc)
	if err != nil {
		return nil, 0, err
	}
	if s.RRule == "" {
		return []time.Time{begin}, length, nil
	}

	rule, err := rrule.StrToRRule(s.RRule)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse rrule: %w", err)
	}
	rule.DTStart(begin)

	var out []time.Time
	next := rule.Iterator()
	for len(out) < MaxOccurrences {
		t, ok := next()
		if !ok {
			break
		}
		out = append(out, t.In(loc))
	}
	return out, length, nil
}
