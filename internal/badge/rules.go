package badge

import (
	"time"
	"unicode/utf8"

	"fitSquadAPI/internal/checkin"
	"fitSquadAPI/internal/streak"
)

// evidenceNoteMinLen is the exclusive length threshold (in characters) an
// evidence note must exceed to count toward living_proof.
const evidenceNoteMinLen = 5

// Evaluate applies the engagement badge rules to a user's full check-in
// history for one challenge. Kinds the user already owns are skipped, so
// running the evaluation twice on identical input awards nothing the second
// time. Completion and placement badges are not handled here; they belong to
// finalization.
func Evaluate(history []*checkin.Checkin, owned []*Badge) []Kind {
	if len(history) == 0 {
		return nil
	}

	has := make(map[Kind]bool, len(owned))
	for _, b := range owned {
		has[b.Kind] = true
	}

	var award []Kind
	grant := func(kind Kind, qualified bool) {
		if qualified && !has[kind] {
			award = append(award, kind)
			has[kind] = true
		}
	}

	grant(FirstFlame, len(history) >= 1)
	grant(UnstoppableStreak, currentStreak(history) >= 3)
	grant(ChallengeElite, len(history) >= 10)
	grant(LivingProof, hasProofNote(history))

	return award
}

// currentStreak measures the consecutive-day run as of the most recent
// check-in. Evaluation fires right after a check-in write, so that day is the
// day the rule is judged on; three scattered check-ins do not qualify.
func currentStreak(history []*checkin.Checkin) int {
	dates := make([]time.Time, 0, len(history))
	var latest time.Time
	for _, c := range history {
		dates = append(dates, c.Date)
		if c.Date.After(latest) {
			latest = c.Date
		}
	}
	return streak.Current(dates, latest)
}

func hasProofNote(history []*checkin.Checkin) bool {
	for _, c := range history {
		if c.EvidenceNote != nil && utf8.RuneCountInString(*c.EvidenceNote) > evidenceNoteMinLen {
			return true
		}
	}
	return false
}
