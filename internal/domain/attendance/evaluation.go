package attendance

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ОЦЕНКА ПОСЕЩАЕМОСТИ
// Чистая логика оценки окна из последних завершённых занятий.
// ══════════════════════════════════════════════════════════════════════════════

// Пороги оценки: три пропуска из четырёх - предупреждение,
// четыре из четырёх - вывод из состава.
const (
	AtRiskThreshold     = 3
	DeactivateThreshold = 4
)

// Outcome - итог оценки посещаемости ребёнка.
type Outcome string

const (
	// OutcomeOnTrack - 0-2 пропуска, вмешательство не требуется.
	OutcomeOnTrack Outcome = "on_track"
	// OutcomeAtRisk - ровно 3 пропуска, рекомендательное предупреждение.
	OutcomeAtRisk Outcome = "at_risk"
	// OutcomeDeactivate - все 4 занятия пропущены, вывод из состава.
	OutcomeDeactivate Outcome = "deactivate"
)

// SessionResult - присутствие на одном занятии окна.
type SessionResult struct {
	SessionDate time.Time
	Present     bool
}

// Evaluation - результат оценки окна для одного ребёнка.
type Evaluation struct {
	PersonID string
	Missed   int
	Outcome  Outcome

	// Sessions - детализация по каждому занятию окна
	// (от недавнего к давнему).
	Sessions []SessionResult
}

// Evaluate оценивает окно занятий для ребёнка по карте присутствия.
// Порядок занятий в результате повторяет порядок входного среза.
func Evaluate(personID string, sessions []time.Time, presence PresenceMap) Evaluation {
	ev := Evaluation{
		PersonID: personID,
		Sessions: make([]SessionResult, 0, len(sessions)),
	}

	for _, s := range sessions {
		present := presence.IsPresent(personID, s)
		if !present {
			ev.Missed++
		}
		ev.Sessions = append(ev.Sessions, SessionResult{SessionDate: s, Present: present})
	}

	ev.Outcome = ClassifyMissed(ev.Missed)
	return ev
}

// ClassifyMissed возвращает итог по числу пропусков в окне из четырёх.
func ClassifyMissed(missed int) Outcome {
	switch {
	case missed >= DeactivateThreshold:
		return OutcomeDeactivate
	case missed == AtRiskThreshold:
		return OutcomeAtRisk
	default:
		return OutcomeOnTrack
	}
}
