package viewmodel

// PlayPage holds data for the landing page that hosts the game.
type PlayPage struct {
	Title     string
	RoomID    string
	SocketURL string
	StreamURL string
	HUD       HUDFragment
	Reward    RewardFragment
	Rules     RulesHint
}

// HUDFragment holds data for the timer and score panel.
type HUDFragment struct {
	Visible   bool
	Remaining int
	Sorted    int
	Target    int
	// Urgent is set for the last few seconds of a round.
	Urgent bool
}

// RewardFragment holds data for the panel revealed by a win.
type RewardFragment struct {
	Visible bool
	Sorted  int
	Code    string
}

// RulesHint tells the visitor what each bucket takes.
type RulesHint struct {
	PrimaryLabel   string
	SecondaryLabel string
}
