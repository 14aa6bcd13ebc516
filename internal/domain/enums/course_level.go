package enums

import "strings"

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "BEGINNER"
	LevelIntermediate CourseLevel = "INTERMEDIATE"
	LevelAdvanced     CourseLevel = "ADVANCED"
)

func ParseCourseLevel(value string) (CourseLevel, bool) {
	switch CourseLevel(strings.ToUpper(strings.TrimSpace(value))) {
	case LevelBeginner:
		return LevelBeginner, true
	case LevelIntermediate:
		return LevelIntermediate, true
	case LevelAdvanced:
		return LevelAdvanced, true
	default:
		return "", false
	}
}

func (l CourseLevel) Valid() bool {
	_, ok := ParseCourseLevel(string(l))
	return ok
}
