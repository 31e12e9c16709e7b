package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits
const (
	MaxTitleLength        = 100
	MaxDescriptionLength  = 500
	MaxCategoryNameLength = 50
)

// ValidationError reports a field that failed an input rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError or InvalidValueError.
func IsValidation(err error) bool {
	var v ValidationError
	var iv InvalidValueError
	return errors.As(err, &v) || errors.As(err, &iv)
}

// ValidateNewTask checks the fields of a task about to be created.
func ValidateNewTask(f TaskFields, now time.Time) error {
	if err := validateTitle(f.Title); err != nil {
		return err
	}
	if err := validateDescription(f.Description); err != nil {
		return err
	}
	if err := validateDueDate(f.DueDate, now); err != nil {
		return err
	}
	if !f.Priority.IsValid() {
		return InvalidValueError{Field: "priority", Value: string(f.Priority), Allowed: "HIGH, MEDIUM, LOW"}
	}
	if !f.Status.IsValid() {
		return InvalidValueError{Field: "status", Value: string(f.Status), Allowed: "NOT_STARTED, IN_PROGRESS, COMPLETED"}
	}
	if strings.TrimSpace(f.CategoryID) == "" {
		return ValidationError{Field: "categoryId", Message: "is required"}
	}
	return nil
}

// ValidateTaskPatch checks only the fields the patch sets.
func ValidateTaskPatch(p TaskPatch, now time.Time) error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.DueDate != nil {
		if err := validateDueDate(*p.DueDate, now); err != nil {
			return err
		}
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		return InvalidValueError{Field: "priority", Value: string(*p.Priority), Allowed: "HIGH, MEDIUM, LOW"}
	}
	if p.Status != nil && !p.Status.IsValid() {
		return InvalidValueError{Field: "status", Value: string(*p.Status), Allowed: "NOT_STARTED, IN_PROGRESS, COMPLETED"}
	}
	if p.CategoryID != nil && strings.TrimSpace(*p.CategoryID) == "" {
		return ValidationError{Field: "categoryId", Message: "is required"}
	}
	return nil
}

// ValidateCategoryName checks a new or renamed category name.
func ValidateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "name", Message: "is required"}
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", MaxCategoryNameLength)}
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ValidationError{Field: "title", Message: "is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", MaxTitleLength)}
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ValidationError{Field: "description", Message: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)}
	}
	return nil
}

func validateDueDate(due, now time.Time) error {
	if due.IsZero() {
		return ValidationError{Field: "dueDate", Message: "is required"}
	}
	if due.Before(now) {
		return ValidationError{Field: "dueDate", Message: "must not be in the past"}
	}
	return nil
}

// ParseDueDate understands "today", "tomorrow", "+Nd", YYYY-MM-DD,
// "YYYY-MM-DD HH:MM" and RFC3339. Day-only forms mean the end of that day.
func ParseDueDate(s string, now time.Time, loc *time.Location) (time.Time, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	local := now.In(loc)
	endOfDay := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc)
	}

	switch {
	case in == "today":
		return endOfDay(local), nil
	case in == "tomorrow":
		return endOfDay(local.AddDate(0, 0, 1)), nil
	case strings.HasPrefix(in, "+") && strings.HasSuffix(in, "d"):
		days, err := strconv.Atoi(in[1 : len(in)-1])
		if err == nil && days >= 0 {
			return endOfDay(local.AddDate(0, 0, days)), nil
		}
	}

	if t, err := time.ParseInLocation("2006-01-02", in, loc); err == nil {
		return endOfDay(t), nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", in, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
		return t, nil
	}
	return time.Time{}, ValidationError{Field: "dueDate", Message: fmt.Sprintf("cannot parse %q (try YYYY-MM-DD, today, tomorrow or +3d)", s)}
}
