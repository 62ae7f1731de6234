package booking

// Stage is one step of the booking wizard.
type Stage int

const (
	StageDepartment Stage = iota + 1
	StageLocation
	StageDateTime
	StagePatient
	StageConfirmation
)

var stageNames = map[Stage]string{
	StageDepartment:   "department",
	StageLocation:     "location",
	StageDateTime:     "date_time",
	StagePatient:      "patient",
	StageConfirmation: "confirmation",
}

var stageTitles = map[Stage]string{
	StageDepartment:   "Select Department",
	StageLocation:     "Choose Location",
	StageDateTime:     "Select Date",
	StagePatient:      "Your Information",
	StageConfirmation: "Booking Confirmed",
}

func (s Stage) Valid() bool {
	return s >= StageDepartment && s <= StageConfirmation
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Title is the heading shown for the stage.
func (s Stage) Title() string {
	return stageTitles[s]
}
