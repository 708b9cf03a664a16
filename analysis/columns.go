package analysis

import "fmt"

// Column names written by the experiment runner.
const (
	ColGame        = "Game"
	ColDepth       = "Depth"
	ColGameWon     = "GameWon"
	ColGiveCount   = "Give_count"
	ColTakeCount   = "Take_count"
	ColAvgBranch   = "AvgBranch"
	ColBrokeReason = "BrokeReasons"
)

// Event cards tracked per game.
const (
	Airlift         = "Airlift"
	GovernmentGrant = "GovernmentGrant"
	QuietNight      = "QuietNight"
)

// EventCards lists the event cards in the order the runner measures them.
var EventCards = []string{Airlift, GovernmentGrant, QuietNight}

// DiseaseColors lists the four disease colors.
var DiseaseColors = []string{"Blue", "Yellow", "Black", "Red"}

// FirstPresenceCol is the turn index a card first became available (-1 if never seen).
func FirstPresenceCol(card string) string { return "first" + card + "Presence" }

// UseCol is the turn index a card was played (-1 if never used).
func UseCol(card string) string { return card + "Use" }

// CountCol is the number of times a card was played.
func CountCol(card string) string { return card + "_count" }

// UseTimeCol is the derived delay between a card's first presence and its use.
func UseTimeCol(card string) string { return card + "UseTime" }

// CuredCol is the turn index a disease was cured (negative if not cured).
func CuredCol(color string) string { return color + "Cured" }

// CheckpointCol names a per-checkpoint value column, e.g. Turn25StateEval.
func CheckpointCol(turn int, valueType string) string {
	return fmt.Sprintf("Turn%d%s", turn, valueType)
}
