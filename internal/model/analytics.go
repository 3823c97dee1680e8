package model

// GameStats is the per-user library rollup.
type GameStats struct {
	TotalGames      int                   `json:"totalGames"`
	StatusCounts    map[LibraryStatus]int `json:"statusCounts"`
	CompletionRate  int                   `json:"completionRate"`
	AverageRating   *float64              `json:"averageRating"`
	RatedGamesCount int                   `json:"ratedGamesCount"`
}

// GenreCount is one row of the genre breakdown.
type GenreCount struct {
	Genre     string `json:"genre"`
	GameCount int    `json:"gameCount"`
}

// AnalyticsOverview combines both rollups.
type AnalyticsOverview struct {
	Games  GameStats    `json:"games"`
	Genres []GenreCount `json:"genres"`
}
