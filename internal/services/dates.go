package services

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Accepted case date layouts, tried in order. Day and month may be unpadded.
var dateLayouts = []string{"2006-1-2", "2/1/2006"}

// ParseDate accepts YYYY-MM-DD or DD/MM/YYYY. Blank or unparseable input yields nil.
func ParseDate(s string) *datatypes.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			d := datatypes.Date(t)
			return &d
		}
	}

	logrus.WithField("value", s).Debug("Could not parse date string")
	return nil
}

// formatDate renders a stored date as YYYY-MM-DD
func formatDate(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	s := time.Time(*d).Format("2006-01-02")
	return &s
}
