package routine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gymai/internal/models"
)

// flexString accepts a JSON string or number and stores it as a string.
// Models emit "rest": 60 about as often as "rest": "60 seg".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or a numeric string.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		*i = 0
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// "3-4 series" and similar; take the leading digits if any.
		digits := raw
		for idx, r := range raw {
			if r < '0' || r > '9' {
				digits = raw[:idx]
				break
			}
		}
		v, err = strconv.Atoi(digits)
		if err != nil {
			*i = 0
			return nil
		}
	}
	*i = flexInt(v)
	return nil
}

type exerciseDoc struct {
	Name      flexString `json:"name"`
	Sets      flexInt    `json:"sets"`
	Reps      flexString `json:"reps"`
	Rest      flexString `json:"rest"`
	Equipment flexString `json:"equipment"`
}

type dayDoc struct {
	DayName   flexString    `json:"day_name"`
	Focus     flexString    `json:"focus"`
	Exercises []exerciseDoc `json:"exercises"`
}

type routineDoc struct {
	RoutineName flexString `json:"routine_name"`
	Days        []dayDoc   `json:"days"`
}

// parseRoutine decodes and validates a routine document from extracted
// model output. Field values are coerced leniently and missing scheme
// fields get sane defaults, but structure is strict: a name, 1 to 7 days,
// and at least one named exercise per day. Anything less is a parse
// failure and the caller falls back.
func parseRoutine(data []byte) (*models.Routine, error) {
	var doc routineDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("routine: decode document: %w", err)
	}

	name := strings.TrimSpace(string(doc.RoutineName))
	if name == "" {
		return nil, fmt.Errorf("routine: document has no routine_name")
	}
	if len(doc.Days) < 1 || len(doc.Days) > 7 {
		return nil, fmt.Errorf("routine: document has %d days, want 1-7", len(doc.Days))
	}

	routine := &models.Routine{
		RoutineName: name,
		Days:        make([]models.Day, 0, len(doc.Days)),
	}

	for i, d := range doc.Days {
		day := models.Day{
			DayName: strings.TrimSpace(string(d.DayName)),
			Focus:   strings.TrimSpace(string(d.Focus)),
		}
		if day.DayName == "" {
			day.DayName = daysOfWeek[i%7]
		}

		for _, e := range d.Exercises {
			exName := strings.TrimSpace(string(e.Name))
			if exName == "" {
				continue
			}
			ex := models.Exercise{
				Name:      exName,
				Sets:      int(e.Sets),
				Reps:      strings.TrimSpace(string(e.Reps)),
				Rest:      strings.TrimSpace(string(e.Rest)),
				Equipment: strings.TrimSpace(string(e.Equipment)),
			}
			if ex.Sets <= 0 {
				ex.Sets = 3
			}
			if ex.Reps == "" {
				ex.Reps = "10-12"
			}
			if ex.Rest == "" {
				ex.Rest = "60 seg"
			}
			if ex.Equipment == "" {
				ex.Equipment = "peso corporal"
			}
			day.Exercises = append(day.Exercises, ex)
		}
		if len(day.Exercises) == 0 {
			return nil, fmt.Errorf("routine: day %q has no valid exercises", day.DayName)
		}

		routine.Days = append(routine.Days, day)
	}

	return routine, nil
}
