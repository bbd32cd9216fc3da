package telegram

import (
	"errors"
	"strconv"
	"strings"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

const defaultQuestionCount = 10

var errUsage = errors.New("usage")

// parseAcademicArgs parses "/academic <level> <faculty> <year> [count] [notimer] [subject...]".
// On error the returned filter still carries the quiz type.
func parseAcademicArgs(args string) (entities.Filter, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return entities.Filter{QuizType: entities.QuizTypeAcademic}, errUsage
	}

	f := entities.Filter{
		QuizType: entities.QuizTypeAcademic,
		Level:    fields[0],
		Faculty:  fields[1],
		Year:     fields[2],
	}
	if err := parseOptions(&f, fields[3:]); err != nil {
		return entities.Filter{QuizType: entities.QuizTypeAcademic}, err
	}
	return f, nil
}

// parseEntranceArgs parses "/entrance <name> [difficulty] [count] [notimer] [subject...]".
func parseEntranceArgs(args string) (entities.Filter, error) {
	fields := strings.Fields(args)
	if len(fields) < 1 {
		return entities.Filter{QuizType: entities.QuizTypeEntrance}, errUsage
	}

	f := entities.Filter{
		QuizType:     entities.QuizTypeEntrance,
		EntranceName: fields[0],
	}

	rest := fields[1:]
	if len(rest) > 0 {
		if d := entities.Difficulty(strings.ToLower(rest[0])); d.Valid() {
			f.Difficulty = d
			rest = rest[1:]
		}
	}

	if err := parseOptions(&f, rest); err != nil {
		return entities.Filter{QuizType: entities.QuizTypeEntrance}, err
	}
	return f, nil
}

// parseOptions reads the optional count, the notimer flag and subjects.
func parseOptions(f *entities.Filter, fields []string) error {
	f.Count = defaultQuestionCount
	f.TimerEnabled = true

	for i, field := range fields {
		if i == 0 {
			if n, err := strconv.Atoi(field); err == nil {
				if n < 1 {
					return errUsage
				}
				f.Count = n
				continue
			}
		}
		if strings.EqualFold(field, "notimer") {
			f.TimerEnabled = false
			continue
		}
		f.Subjects = append(f.Subjects, field)
	}

	return nil
}

// parseQuizTypeArg parses the quiz type argument of /resume, /again and /stop.
func parseQuizTypeArg(args string) (entities.QuizType, error) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return "", errUsage
	}
	return entities.ParseQuizType(fields[0])
}
