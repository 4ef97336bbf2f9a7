package entities

import "time"

// ProgressSummary is a per-user digest of learning records that were introduced.
type ProgressSummary struct {
	MaxLevel int
	Mastered int // counter >= 10
	Active   int // 2 <= counter < 10
	Starting int // 0 <= counter < 2
}

// LeaderboardEntry is one row of the daily top.
type LeaderboardEntry struct {
	User           string
	WordsMastered  int
	WordsPracticed int
	MaxLevel       int
}

// RecentUser is a recently registered user shown to admins.
type RecentUser struct {
	User             string
	FirstName        string
	RegistrationDate time.Time
	IsBlocked        bool
}

// Leaderboard is the admin statistics digest.
type Leaderboard struct {
	Top    []LeaderboardEntry
	Recent []RecentUser
}
