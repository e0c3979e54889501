// Package plan builds plan-generation requests and validates the structure
// of generated training plans. Plans are French-convention markdown with one
// "Semaine N" section per week.
package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stridelab/stridecoach/pkg/models"
)

// Duration bounds in weeks for a generated plan.
const (
	MinWeeks = 4
	MaxWeeks = 20
)

var weekHeader = regexp.MustCompile(`(?mi)^#{0,6}\s*(?:\*\*)?Semaine\s+(\d+)`)

// Message renders the user-facing request for a plan_generator turn.
func Message(req models.PlanRequest) string {
	var sb strings.Builder
	sb.WriteString("Je veux un plan d'entraînement.\n")
	fmt.Fprintf(&sb, "Objectif : %s\n", req.Goal)
	if req.Level != "" {
		fmt.Fprintf(&sb, "Niveau : %s\n", req.Level)
	}
	if req.SessionsPerWeek > 0 {
		fmt.Fprintf(&sb, "Séances par semaine : %d\n", req.SessionsPerWeek)
	}
	if req.TargetTime != "" {
		fmt.Fprintf(&sb, "Temps visé : %s\n", req.TargetTime)
	}
	if req.DurationWeeks > 0 {
		fmt.Fprintf(&sb, "Durée de préparation : %d semaines\n", req.DurationWeeks)
	} else {
		sb.WriteString("Durée de préparation : à déterminer selon mon niveau\n")
	}
	return sb.String()
}

// Validate checks a generated plan: consecutive "Semaine 1..D" sections with
// D within bounds, plus an explicit duration statement. It returns the
// detected duration.
func Validate(text string) (int, error) {
	weeks := map[int]bool{}
	maxWeek := 0
	for _, m := range weekHeader.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		weeks[n] = true
		if n > maxWeek {
			maxWeek = n
		}
	}

	if maxWeek == 0 {
		return 0, fmt.Errorf("plan has no weekly sections")
	}
	if maxWeek < MinWeeks || maxWeek > MaxWeeks {
		return maxWeek, fmt.Errorf("plan duration %d weeks is outside %d-%d", maxWeek, MinWeeks, MaxWeeks)
	}
	for n := 1; n <= maxWeek; n++ {
		if !weeks[n] {
			return maxWeek, fmt.Errorf("plan is missing week %d of %d", n, maxWeek)
		}
	}

	if !strings.Contains(text, strconv.Itoa(maxWeek)+" semaines") &&
		!strings.Contains(text, strconv.Itoa(maxWeek)+" weeks") {
		return maxWeek, fmt.Errorf("plan does not state its %d-week duration", maxWeek)
	}
	return maxWeek, nil
}
