package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/larder/internal/model"
)

// parseDate accepts YYYY-MM-DD, "today", "tomorrow", or a day offset such
// as "+5d", "5d" or "-2d". Calendar dates keep now's time of day so whole
// day counts come out exact.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return time.Time{}, errors.New("empty date")
	case "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	}

	if rest, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(strings.TrimPrefix(rest, "+"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day offset %q", s)
		}
		return now.AddDate(0, 0, n), nil
	}

	d, err := time.ParseInLocation(time.DateOnly, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or +Nd)", s)
	}
	h, m, sec := now.Clock()
	return d.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second), nil
}

func parseLocation(s string) (model.Location, error) {
	l := model.Location(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !l.Valid() {
		return "", fmt.Errorf("unknown location %q (want one of %s)", s, joinLocations())
	}
	return l, nil
}

func parseCategory(s string) (model.Category, error) {
	c := model.Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func parseWasteReason(s string) (model.WasteReason, error) {
	r := model.WasteReason(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown waste reason %q (want expired, spoiled, damaged, disliked or other)", s)
	}
	return r, nil
}

func joinLocations() string {
	names := make([]string, len(model.Locations))
	for i, l := range model.Locations {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
