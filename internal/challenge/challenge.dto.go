package challenge

type CreateChallengeRequest struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Emoji             string  `json:"emoji"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	WeeklyFrequency   int     `json:"weekly_frequency"`
	CheckinMode       string  `json:"checkin_type"`
	SpecificWorkoutID *string `json:"specific_workout_id,omitempty"`
	Visibility        string  `json:"visibility"`
	JoinRule          string  `json:"join_rule"`
	MaxParticipants   *int    `json:"max_participants,omitempty"`
	Timezone          string  `json:"timezone"`
}

type UpdateChallengeRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}
