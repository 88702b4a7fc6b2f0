package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	eventTokenPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	startTimePattern  = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("eventtoken", func(fl validator.FieldLevel) bool {
		return eventTokenPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("starttime", func(fl validator.FieldLevel) bool {
		return startTimePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("startdate", func(fl validator.FieldLevel) bool {
		return ValidStartDate(fl.Field().String())
	})
	return v
}

// NewGame is the input for creating a game.
type NewGame struct {
	Name string `json:"name" validate:"required,max=100"`
}

// NewAccount is the input for creating an account.
type NewAccount struct {
	GameID          int64  `json:"game_id" validate:"gt=0"`
	Name            string `json:"name" validate:"required,max=100"`
	StartDate       string `json:"start_date" validate:"required,startdate"`
	StartTime       string `json:"start_time" validate:"required,starttime"`
	RequestTemplate string `json:"request_template"`
}

// NewLevel is the input for creating a level.
type NewLevel struct {
	GameID     int64  `json:"game_id" validate:"gt=0"`
	EventToken string `json:"event_token" validate:"required,eventtoken"`
	LevelName  string `json:"level_name" validate:"required,max=50"`
	DaysOffset int    `json:"days_offset" validate:"gte=0,lte=365"`
	TimeSpent  int    `json:"time_spent" validate:"gte=0,lte=1000000"`
	IsBonus    bool   `json:"is_bonus"`
}

// NewPurchaseEvent is the input for creating a purchase event.
type NewPurchaseEvent struct {
	GameID        int64  `json:"game_id" validate:"gt=0"`
	EventToken    string `json:"event_token" validate:"required,eventtoken"`
	IsRestricted  bool   `json:"is_restricted"`
	MaxDaysOffset *int   `json:"max_days_offset" validate:"omitempty,gte=0,lte=365"`
}

// NewPurchaseProgress schedules a purchase event for an account.
type NewPurchaseProgress struct {
	AccountID       int64 `json:"account_id" validate:"gt=0"`
	PurchaseEventID int64 `json:"purchase_event_id" validate:"gt=0"`
	DaysOffset      int   `json:"days_offset" validate:"gte=0,lte=365"`
	TimeSpent       int   `json:"time_spent" validate:"gte=0,lte=1000000"`
}

// Validate checks v against its validate struct tags and returns a single
// error listing every failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "eventtoken":
		return fmt.Sprintf("%s must contain only letters, digits, '_' or '-'", field)
	case "starttime":
		return fmt.Sprintf("%s must be HH:MM or HH:MM:SS", field)
	case "startdate":
		return fmt.Sprintf("%s must be YYYY-MM-DD or D-Mon (e.g. 14-Dec)", field)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// ValidStartDate reports whether s parses as an account start date. Short
// dates are checked against the current year.
func ValidStartDate(s string) bool {
	if IsShortDate(s) {
		_, ok := ShortDateIn(s, time.Now().Year())
		return ok
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
