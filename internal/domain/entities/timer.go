package entities

// NoLimit is reported as the remaining time of a question when the session
// runs without a timer.
const NoLimit = -1

// TimeLimit returns the seconds allotted to answer a question of the given
// difficulty. Unknown difficulties get the medium limit.
func TimeLimit(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyHard:
		return 20
	default:
		return 15
	}
}
