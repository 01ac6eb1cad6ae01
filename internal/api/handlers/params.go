package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// ParseDateParam читает обязательный query-параметр даты в формате YYYY-MM-DD
func ParseDateParam(query url.Values, name string) (time.Time, error) {
	raw := query.Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %s", name)
	}
	date, err := time.Parse(domain.DateFormat, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return date, nil
}

// ParseTimeParam читает обязательный query-параметр времени в формате HH:MM
func ParseTimeParam(query url.Values, name string) (types.TimeString, error) {
	raw := query.Get(name)
	if raw == "" {
		return "", fmt.Errorf("missing %s", name)
	}
	t, err := types.NewTimeStringFromString(raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}

// ParseIntParam читает обязательный целочисленный query-параметр
func ParseIntParam(query url.Values, name string) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

// ParseInt64Param читает обязательный int64 query-параметр
func ParseInt64Param(query url.Values, name string) (int64, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

// ParseOptionalInt64Param читает необязательный int64 query-параметр
func ParseOptionalInt64Param(query url.Values, name string) (*int64, error) {
	raw := query.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &v, nil
}
