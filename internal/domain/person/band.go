package person

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ВОЗРАСТНЫЕ ГРУППЫ (BANDS)
// ══════════════════════════════════════════════════════════════════════════════

// Band - закрытое перечисление возрастных групп программы.
// Порядковый номер группы стабилен и используется для сортировки.
type Band int

const (
	// BandGenesis - до 5 лет включительно.
	BandGenesis Band = iota
	// BandExodus - 6-7 лет.
	BandExodus
	// BandPsalms - 8-9 лет.
	BandPsalms
	// BandProverbs - 10-11 лет.
	BandProverbs
	// BandRevelation - 12-13 лет.
	BandRevelation
	// BandHighSchoolers - 14 лет и старше.
	BandHighSchoolers
)

// bandNames - канонические отображаемые названия групп.
var bandNames = [...]string{
	"Genesis",
	"Exodus",
	"Psalms",
	"Proverbs",
	"Revelation",
	"High Schoolers",
}

// bandThresholds - верхние (включительные) границы возраста для каждой
// группы, кроме последней. Порядок соответствует порядку констант Band.
var bandThresholds = [...]int{5, 7, 9, 11, 13}

// IsValid проверяет, что группа входит в перечисление.
func (b Band) IsValid() bool {
	return b >= BandGenesis && b <= BandHighSchoolers
}

// String возвращает отображаемое название группы.
func (b Band) String() string {
	if !b.IsValid() {
		return "unknown"
	}
	return bandNames[b]
}

// Ordinal возвращает стабильный порядковый номер группы (Genesis = 0).
func (b Band) Ordinal() int {
	return int(b)
}

// ParseBand находит группу по отображаемому названию.
func ParseBand(name string) (Band, error) {
	for i, n := range bandNames {
		if n == name {
			return Band(i), nil
		}
	}
	return 0, ErrInvalidBand
}

// BandNames возвращает названия всех групп в порядке возрастания возраста.
func BandNames() []string {
	names := make([]string, len(bandNames))
	copy(names, bandNames[:])
	return names
}

// ══════════════════════════════════════════════════════════════════════════════
// КЛАССИФИКАТОР ВОЗРАСТА
// ══════════════════════════════════════════════════════════════════════════════

// AgeAt вычисляет полный возраст (в целых годах) на опорную дату.
// Разница годов уменьшается на единицу, если день рождения в опорном
// году ещё не наступил. Сравниваются только (месяц, день) - часовые
// пояса и время суток не участвуют.
func AgeAt(birthDate, ref time.Time) int {
	age := ref.Year() - birthDate.Year()
	if ref.Month() < birthDate.Month() ||
		(ref.Month() == birthDate.Month() && ref.Day() < birthDate.Day()) {
		age--
	}
	return age
}

// ClassifyAge возвращает группу для заданного возраста в целых годах.
func ClassifyAge(age int) Band {
	for i, max := range bandThresholds {
		if age <= max {
			return Band(i)
		}
	}
	return BandHighSchoolers
}

// ClassifyBirthDate возвращает группу на опорную дату по дате рождения.
func ClassifyBirthDate(birthDate, ref time.Time) Band {
	return ClassifyAge(AgeAt(birthDate, ref))
}

// ApproximateBirthDate синтезирует приблизительную дату рождения по
// известному возрасту: опорная дата минус age лет, тот же месяц и день.
// Если такой даты не существует (29 февраля в невисокосном году),
// используется запасной вариант - опорная дата минус age*365 дней.
func ApproximateBirthDate(age int, ref time.Time) (time.Time, error) {
	if age < 0 || age > 120 {
		return time.Time{}, ErrAgeOutOfRange
	}

	candidate := time.Date(ref.Year()-age, ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	if candidate.Month() != ref.Month() || candidate.Day() != ref.Day() {
		candidate = ref.AddDate(0, 0, -age*365)
		candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), 0, 0, 0, 0, time.UTC)
	}
	return candidate, nil
}
