// Package standings merges parsed session results into the persistent
// standings table.
//
// ApplyRace adds points.ForPosition(i+1) to the driver on leaderboard line i
// and, for every driver whose best lap equals the session best lap, one
// fastest lap and points.FastestLapBonus. ApplyQualifying awards only the pole
// (one pole position and points.PoleBonus) to every driver matching the
// session best lap. Ties are not broken: each matching driver gets the bonus.
// A session whose best lap is results.NoLap had no valid lap and awards none.
//
// Unknown drivers are created on first sighting with a title-cased full name.
// The whole merge runs inside a single store transaction, so an ingestion
// either lands completely or not at all. Re-ingesting the same session adds
// its points again.
package standings
