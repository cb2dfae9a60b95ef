package shared

// Callback prefixes. Payloads carry trailing ids, e.g. "trip_city_12_3".
const (
	CmdTrips       = "my_trips"
	CmdTripsPrev   = "trip_prev"
	CmdTripsNext   = "trip_next"
	CmdArchive     = "trip_archive"
	CmdArchivePrev = "trip_archive_prev"
	CmdArchiveNext = "trip_archive_next"
	CmdTrip        = "trip"
	CmdCompanions  = "trip_companions"
	CmdInvite      = "trip_companion_invite"
	CmdUninvite    = "trip_companion_remove"
	CmdRename      = "trip_rename"
	CmdArchiveTrip = "trip_archive"
	CmdEdit        = "trip_edit"
	CmdEditDate    = "trip_edit_leaving_date"
	CmdEditAddCity = "trip_edit_add_city"
	CmdEditRmCity  = "trip_edit_remove_city"
	CmdCity        = "trip_city"
	CmdNotes       = "trip_notes"
	CmdNotesPrev   = "trip_notes_prev"
	CmdNotesNext   = "trip_notes_next"
	CmdNoteNew     = "trip_notes_new"
	CmdNote        = "trip_note"
	CmdNoteEdit    = "trip_note_edit"
	CmdNoteVisible = "trip_note_visibility"
	CmdNoteRemove  = "trip_note_remove"
	CmdWeather     = "trip_weather"
	CmdWeatherPrev = "trip_weather_prev"
	CmdWeatherNext = "trip_weather_next"
	CmdGuide       = "trip_guide"
	CmdGuideCity   = "guide_city"
	CmdGuidePrefix = "guide_"
	CmdProfile     = "profile"
	CmdProfileCity = "profile_change_city"
	CmdProfileAge  = "profile_change_age"
	CmdProfileBio  = "profile_change_bio"
)

// PageSize is the length of every paged list.
const PageSize = 3
