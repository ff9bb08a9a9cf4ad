package routine

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"gymai/internal/models"
)

// catalogExercise is one entry in the offline exercise catalog.
type catalogExercise struct {
	Name      string
	Equipment string
}

// profile holds the set/rep scheme and weekly focus rotation for one
// training goal.
type profile struct {
	Sets     int
	Reps     string
	Rest     string
	FocusMap []string
}

var daysOfWeek = []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

var exerciseCatalog = map[string][]catalogExercise{
	"pecho": {
		{"Press de banca", "barra y banco"},
		{"Flexiones", "peso corporal"},
		{"Press con mancuernas", "mancuernas"},
		{"Aperturas con mancuernas", "mancuernas"},
		{"Fondos en paralelas", "paralelas"},
	},
	"espalda": {
		{"Dominadas", "barra de dominadas"},
		{"Remo con barra", "barra"},
		{"Remo con mancuerna", "mancuerna"},
		{"Pulldown en polea", "máquina de poleas"},
		{"Peso muerto", "barra"},
	},
	"hombros": {
		{"Press militar", "barra o mancuernas"},
		{"Elevaciones laterales", "mancuernas"},
		{"Elevaciones frontales", "mancuernas"},
		{"Pájaros", "mancuernas"},
		{"Face pull", "polea"},
	},
	"piernas": {
		{"Sentadillas", "barra o peso corporal"},
		{"Prensa", "máquina"},
		{"Extensiones de cuádriceps", "máquina"},
		{"Curl de isquiotibiales", "máquina"},
		{"Zancadas", "mancuernas o peso corporal"},
	},
	"brazos": {
		{"Curl con barra", "barra"},
		{"Curl con mancuernas", "mancuernas"},
		{"Press francés", "barra o mancuerna"},
		{"Extensiones de tríceps en polea", "polea"},
		{"Fondos para tríceps", "banco o paralelas"},
	},
	"core": {
		{"Crunches", "peso corporal"},
		{"Plancha", "peso corporal"},
		{"Russian twist", "peso corporal o peso libre"},
		{"Elevación de piernas", "peso corporal"},
		{"Rueda abdominal", "rueda abdominal"},
	},
	"cardio": {
		{"Carrera continua", "ninguno"},
		{"HIIT", "ninguno"},
		{"Saltos", "ninguno"},
		{"Burpees", "ninguno"},
		{"Jump Rope", "cuerda"},
	},
}

var profiles = map[string]profile{
	"masa":          {4, "6-8", "90-120 seg", []string{"pecho/tríceps", "espalda/bíceps", "piernas/hombros"}},
	"definición":    {3, "12-15", "45-60 seg", []string{"pecho/hombros", "espalda/brazos", "piernas/core"}},
	"fuerza":        {5, "3-5", "180-240 seg", []string{"pecho/tríceps", "espalda/bíceps", "piernas"}},
	"resistencia":   {3, "15-20", "30-45 seg", []string{"pecho/espalda", "piernas/core", "fullbody"}},
	"mantenimiento": {3, "10-12", "60 seg", []string{"empuje", "tirón", "piernas/core"}},
}

var muscleGroupMap = map[string][]string{
	"pecho/tríceps":   {"pecho", "brazos"},
	"espalda/bíceps":  {"espalda", "brazos"},
	"piernas/hombros": {"piernas", "hombros"},
	"pecho/hombros":   {"pecho", "hombros"},
	"espalda/brazos":  {"espalda", "brazos"},
	"piernas/core":    {"piernas", "core"},
	"pecho/espalda":   {"pecho", "espalda"},
	"fullbody":        {"pecho", "espalda", "hombros", "piernas", "core"},
	"empuje":          {"pecho", "hombros", "brazos"},
	"tirón":           {"espalda", "brazos"},
}

// Fallback synthesizes and modifies routines offline from the static
// catalog. It is the availability floor: every operation terminates and
// succeeds for any syntactically valid input, with no network calls.
type Fallback struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallback creates an offline generator.
func NewFallback() *Fallback {
	return &Fallback{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateInitialRoutine builds a routine with exactly req.Days days,
// selecting catalog exercises for a focus rotation derived from the
// user's stated goals.
func (f *Fallback) CreateInitialRoutine(req Request) *models.Routine {
	days := req.Days
	if days < 1 {
		days = 1
	}
	if days > 7 {
		days = 7
	}

	goalProfile := determineProfile(req.Goals)
	cfg := profiles[goalProfile]

	routine := &models.Routine{
		RoutineName: fmt.Sprintf("Rutina de %s - %d días", titleCase(goalProfile), days),
		UserID:      req.UserID,
		Days:        make([]models.Day, 0, days),
	}
	if routine.UserID == 0 {
		routine.UserID = models.DefaultUserID
	}

	for i := 0; i < days; i++ {
		focus := cfg.FocusMap[i%len(cfg.FocusMap)]

		var exercises []models.Exercise
		for _, group := range muscleGroupMap[focus] {
			candidates := filterByEquipment(exerciseCatalog[group], req.Equipment)
			for _, ex := range f.sample(candidates, f.intn(2)+2) {
				exercises = append(exercises, models.Exercise{
					Name:      ex.Name,
					Sets:      cfg.Sets,
					Reps:      cfg.Reps,
					Rest:      cfg.Rest,
					Equipment: ex.Equipment,
				})
			}
		}
		if len(exercises) == 0 {
			for _, ex := range f.sample(bodyweightStaples(), 3) {
				exercises = append(exercises, models.Exercise{
					Name:      ex.Name,
					Sets:      cfg.Sets,
					Reps:      cfg.Reps,
					Rest:      cfg.Rest,
					Equipment: ex.Equipment,
				})
			}
		}

		routine.Days = append(routine.Days, models.Day{
			DayName:   daysOfWeek[i],
			Focus:     titleCase(strings.ReplaceAll(focus, "/", " y ")),
			Exercises: exercises,
		})
	}

	return routine
}

// ModifyRoutine applies a keyword-driven, intentionally low-fidelity edit:
// replace a named exercise, add exercises for a muscle group on a named
// day, or switch the routine's training profile. Requests that match no
// case return an unchanged copy; the day count is always preserved.
func (f *Fallback) ModifyRoutine(current *models.Routine, userRequest string) *models.Routine {
	modified := current.Clone()
	request := strings.ToLower(userRequest)

	switch {
	case containsAny(request, "reemplaza", "cambia", "sustituye"):
		f.replaceExercise(modified, request)
	case containsAny(request, "agregar", "añadir", "añade", "más"):
		f.addExercises(modified, request)
	case containsAny(request, "enfoque", "enfocar", "concentrar"):
		f.switchProfile(modified, request)
	}

	return modified
}

// replaceExercise swaps the first exercise named in the request for a
// different one from the same muscle group, keeping its set/rep scheme.
func (f *Fallback) replaceExercise(routine *models.Routine, request string) {
	for di := range routine.Days {
		day := &routine.Days[di]
		for ei, exercise := range day.Exercises {
			if !strings.Contains(request, strings.ToLower(exercise.Name)) {
				continue
			}

			group := groupOf(exercise.Name)
			if group == "" {
				return
			}

			var candidates []catalogExercise
			for _, c := range exerciseCatalog[group] {
				if !strings.EqualFold(c.Name, exercise.Name) {
					candidates = append(candidates, c)
				}
			}
			if len(candidates) == 0 {
				return
			}

			replacement := candidates[f.intn(len(candidates))]
			day.Exercises[ei] = models.Exercise{
				Name:      replacement.Name,
				Sets:      exercise.Sets,
				Reps:      exercise.Reps,
				Rest:      exercise.Rest,
				Equipment: replacement.Equipment,
			}
			return
		}
	}
}

// addExercises appends one or two unused catalog exercises for the muscle
// group and day named in the request.
func (f *Fallback) addExercises(routine *models.Routine, request string) {
	var group string
	for g := range exerciseCatalog {
		if strings.Contains(request, g) {
			group = g
			break
		}
	}

	var day *models.Day
	for i := range routine.Days {
		if strings.Contains(request, strings.ToLower(routine.Days[i].DayName)) {
			day = &routine.Days[i]
			break
		}
	}

	if group == "" || day == nil {
		return
	}

	existing := make(map[string]bool, len(day.Exercises))
	for _, e := range day.Exercises {
		existing[strings.ToLower(e.Name)] = true
	}

	var candidates []catalogExercise
	for _, c := range exerciseCatalog[group] {
		if !existing[strings.ToLower(c.Name)] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return
	}

	// Reuse the day's existing set/rep scheme as the reference.
	sets, reps, rest := 3, "10-12", "60 seg"
	if len(day.Exercises) > 0 {
		ref := day.Exercises[0]
		sets, reps, rest = ref.Sets, ref.Reps, ref.Rest
	}

	count := f.intn(2) + 1
	if count > len(candidates) {
		count = len(candidates)
	}
	for _, c := range f.sample(candidates, count) {
		day.Exercises = append(day.Exercises, models.Exercise{
			Name:      c.Name,
			Sets:      sets,
			Reps:      reps,
			Rest:      rest,
			Equipment: c.Equipment,
		})
	}
}

// switchProfile re-labels the routine and rewrites every exercise's
// set/rep scheme to the profile named in the request.
func (f *Fallback) switchProfile(routine *models.Routine, request string) {
	for name, cfg := range profiles {
		if !strings.Contains(request, name) {
			continue
		}
		routine.RoutineName = fmt.Sprintf("Rutina de %s - %d días", titleCase(name), len(routine.Days))
		for di := range routine.Days {
			for ei := range routine.Days[di].Exercises {
				e := &routine.Days[di].Exercises[ei]
				e.Sets = cfg.Sets
				e.Reps = cfg.Reps
				e.Rest = cfg.Rest
			}
		}
		return
	}
}

// ExplainChanges describes the difference between two routines by diffing
// exercise-name sets per day. It never fails; when nothing changed it asks
// the user to be more specific.
func (f *Fallback) ExplainChanges(oldRoutine, newRoutine *models.Routine) string {
	var b strings.Builder
	b.WriteString("He modificado tu rutina según tu solicitud:\n\n")
	base := b.Len()

	if oldRoutine.RoutineName != newRoutine.RoutineName {
		fmt.Fprintf(&b, "- Cambié el enfoque de la rutina a %s\n", newRoutine.RoutineName)
	}

	n := len(oldRoutine.Days)
	if len(newRoutine.Days) < n {
		n = len(newRoutine.Days)
	}
	for i := 0; i < n; i++ {
		oldDay, newDay := oldRoutine.Days[i], newRoutine.Days[i]

		oldNames := exerciseNameSet(oldDay.Exercises)
		newNames := exerciseNameSet(newDay.Exercises)

		var added, removed []string
		for name := range newNames {
			if !oldNames[name] {
				added = append(added, name)
			}
		}
		for name := range oldNames {
			if !newNames[name] {
				removed = append(removed, name)
			}
		}

		if len(added) > 0 {
			fmt.Fprintf(&b, "- %s: Añadí %s\n", oldDay.DayName, strings.Join(added, ", "))
		}
		for _, name := range removed {
			fmt.Fprintf(&b, "- %s: Eliminé %s\n", oldDay.DayName, name)
		}

		// Set/rep adjustments on exercises that kept their position.
		m := len(oldDay.Exercises)
		if len(newDay.Exercises) < m {
			m = len(newDay.Exercises)
		}
		for j := 0; j < m; j++ {
			oldEx, newEx := oldDay.Exercises[j], newDay.Exercises[j]
			if oldEx.Name == newEx.Name && (oldEx.Sets != newEx.Sets || oldEx.Reps != newEx.Reps) {
				fmt.Fprintf(&b, "- %s: Ajusté %s de %dx%s a %dx%s\n",
					oldDay.DayName, oldEx.Name, oldEx.Sets, oldEx.Reps, newEx.Sets, newEx.Reps)
			}
		}
	}

	if b.Len() == base {
		b.WriteString("No se detectaron cambios significativos en la rutina. Por favor, sé más específico con tu solicitud.")
	}
	return b.String()
}

// --- Helpers ---

// determineProfile maps free-text goals to a training profile by keyword.
func determineProfile(goals string) string {
	goals = strings.ToLower(goals)
	switch {
	case containsAny(goals, "masa", "volumen", "hipertrofia", "crecer", "aumentar", "tamaño"):
		return "masa"
	case containsAny(goals, "definición", "definir", "marcar", "tonificar"):
		return "definición"
	case containsAny(goals, "fuerza", "fuerte", "potencia"):
		return "fuerza"
	case containsAny(goals, "resistencia", "aguante", "cardio", "quemar", "adelgazar"):
		return "resistencia"
	default:
		return "mantenimiento"
	}
}

// filterByEquipment narrows catalog exercises to what the user can do with
// their stated equipment. Unknown or home setups keep bodyweight options;
// an empty result falls back to bodyweight-only so selection never starves.
func filterByEquipment(exercises []catalogExercise, available string) []catalogExercise {
	available = strings.ToLower(available)

	if containsAny(available, "todo", "completo", "gym", "gimnasio") {
		return exercises
	}

	terms := []string{"peso corporal", "ninguno"}
	switch {
	case strings.Contains(available, "mancuernas"):
		terms = append(terms, "mancuernas", "mancuerna", "peso libre")
	case strings.Contains(available, "barra"):
		terms = append(terms, "barra")
	case strings.Contains(available, "máquina"):
		terms = append(terms, "máquina", "polea")
	}

	var filtered []catalogExercise
	for _, e := range exercises {
		equip := strings.ToLower(e.Equipment)
		if containsAny(equip, terms...) {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		// May be empty for groups with no bodyweight options; the day
		// builder compensates with staples.
		for _, e := range exercises {
			equip := strings.ToLower(e.Equipment)
			if strings.Contains(equip, "peso corporal") || strings.Contains(equip, "ninguno") {
				filtered = append(filtered, e)
			}
		}
	}
	return filtered
}

// bodyweightStaples returns the catalog entries doable with no equipment,
// used to keep a day non-empty when filtering starves its muscle groups.
func bodyweightStaples() []catalogExercise {
	var pool []catalogExercise
	for _, exercises := range exerciseCatalog {
		for _, e := range exercises {
			equip := strings.ToLower(e.Equipment)
			if strings.Contains(equip, "peso corporal") || strings.Contains(equip, "ninguno") {
				pool = append(pool, e)
			}
		}
	}
	return pool
}

// groupOf finds the catalog muscle group containing the named exercise.
func groupOf(name string) string {
	for group, exercises := range exerciseCatalog {
		for _, e := range exercises {
			if strings.EqualFold(e.Name, name) {
				return group
			}
		}
	}
	return ""
}

func exerciseNameSet(exercises []models.Exercise) map[string]bool {
	set := make(map[string]bool, len(exercises))
	for _, e := range exercises {
		set[e.Name] = true
	}
	return set
}

// titleCase capitalizes the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func (f *Fallback) intn(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Intn(n)
}

// sample returns up to n distinct elements in random order.
func (f *Fallback) sample(pool []catalogExercise, n int) []catalogExercise {
	if n > len(pool) {
		n = len(pool)
	}
	if n <= 0 {
		return nil
	}
	f.mu.Lock()
	perm := f.rng.Perm(len(pool))
	f.mu.Unlock()

	out := make([]catalogExercise, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, pool[idx])
	}
	return out
}
