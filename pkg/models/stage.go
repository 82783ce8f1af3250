package models

import "time"

// StageID identifies one of the six ordered build stages.
type StageID string

const (
	StageConfiguration StageID = "A"
	StageDimensions    StageID = "B"
	StageFacts         StageID = "C"
	StageCalendar      StageID = "D"
	StageBridges       StageID = "E"
	StageAssembly      StageID = "F"
)

// StageOrder is the canonical build order.
var StageOrder = []StageID{
	StageConfiguration,
	StageDimensions,
	StageFacts,
	StageCalendar,
	StageBridges,
	StageAssembly,
}

// StageNames maps stage ids to their human-readable names.
var StageNames = map[StageID]string{
	StageConfiguration: "Configuration",
	StageDimensions:    "Dimensions",
	StageFacts:         "Facts",
	StageCalendar:      "Calendar",
	StageBridges:       "Bridge Tables",
	StageAssembly:      "Final Assembly",
}

// StageIndex returns the position of id in StageOrder, or -1 if id is
// not a valid stage.
func StageIndex(id StageID) int {
	for i, s := range StageOrder {
		if s == id {
			return i
		}
	}
	return -1
}

// StageState is the lifecycle state of one stage.
type StageState string

const (
	StageUnbuilt  StageState = "unbuilt"
	StageBuilt    StageState = "built"
	StageApproved StageState = "approved"
)

// StageArtifact holds the generated script fragment and lifecycle
// state for one stage.
type StageArtifact struct {
	StageID    StageID    `json:"stage_id"`
	Name       string     `json:"name"`
	State      StageState `json:"state"`
	Script     string     `json:"script,omitempty"`
	BuiltAt    time.Time  `json:"built_at,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}
