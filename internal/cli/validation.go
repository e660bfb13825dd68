package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// validateSelection validates a single numbered choice
func validateSelection(input string, maxCount int) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("selection is required")
	}

	num, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid selection: %s (must be a number 1-%d)", input, maxCount)
	}
	if num < 1 || num > maxCount {
		return 0, fmt.Errorf("invalid selection: %d (must be between 1 and %d)", num, maxCount)
	}
	return num, nil
}

// validateChoice accepts one of options, case-insensitively
func validateChoice(input string, options []string, defaultValue string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return defaultValue, nil
	}
	for _, o := range options {
		if input == o {
			return o, nil
		}
	}
	return "", fmt.Errorf("invalid choice: %s (must be one of: %s)", input, strings.Join(options, ", "))
}

// validateCronExpression validates cron expression input
func validateCronExpression(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("cron expression is required")
	}
	if _, err := cron.ParseStandard(input); err != nil {
		return "", fmt.Errorf("invalid cron expression: %s (%v)", input, err)
	}
	return input, nil
}

// validateDuration validates durations such as 24h or 30m
func validateDuration(input string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s (e.g. 24h, 30m, 0 to disable)", input)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}

// validateBaseURL validates base URL input
func validateBaseURL(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return "", fmt.Errorf("base URL must start with http:// or https://")
	}
	return input, nil
}

// validatePort validates a TCP port
func validatePort(input string) (string, error) {
	input = strings.TrimSpace(input)
	num, err := strconv.Atoi(input)
	if err != nil || num < 1 || num > 65535 {
		return "", fmt.Errorf("invalid port: %s (must be between 1 and 65535)", input)
	}
	return input, nil
}

// maskSensitiveData masks sensitive data for display
func maskSensitiveData(data string, maskChar string) string {
	if data == "" {
		return "(not set)"
	}
	if len(data) <= 8 {
		return strings.Repeat(maskChar, 3)
	}
	return data[:4] + "..." + data[len(data)-4:]
}
