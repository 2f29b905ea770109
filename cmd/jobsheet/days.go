package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Accepted range for the scan window, in days.
const (
	minDays = 1
	maxDays = 49
)

// parseDays accepts an integer in [minDays, maxDays].
func parseDays(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < minDays || n > maxDays {
		return 0, false
	}
	return n, true
}

// resolveDays returns the scan window from the positional argument, or prompts on in
// until a valid value is entered.
func resolveDays(args []string, in io.Reader, out io.Writer) (int, error) {
	if len(args) > 0 {
		if n, ok := parseDays(args[0]); ok {
			return n, nil
		}
		fmt.Fprintf(out, "%q is not a number of days between %d and %d.\n", args[0], minDays, maxDays)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "How many days back should the inbox be scanned? (%d-%d): ", minDays, maxDays)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("failed to read days: %w", err)
			}
			return 0, errors.New("no number of days given")
		}
		if n, ok := parseDays(scanner.Text()); ok {
			return n, nil
		}
		fmt.Fprintf(out, "Please enter a whole number between %d and %d.\n", minDays, maxDays)
	}
}
