package web

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

func percent1(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func probability(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func humanTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"ToLower":     strings.ToLower,
		"Percent":     percent1,
		"Probability": probability,
		"HumanTime":   humanTime,
	}
}
