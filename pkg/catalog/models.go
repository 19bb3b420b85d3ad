package catalog

// SongTitle holds the localized titles of a song.
type SongTitle struct {
	Ja     string  `json:"ja" bson:"ja"`
	En     *string `json:"en" bson:"en"`
	JaKana *string `json:"ja_kana" bson:"ja_kana"`
}

// ArtistName holds the localized names of an artist.
type ArtistName struct {
	Ja     string `json:"ja" bson:"ja"`
	En     string `json:"en" bson:"en"`
	JaKana string `json:"ja_kana" bson:"ja_kana"`
}

// Artist is an artist credited on a song.
type Artist struct {
	ArtistID              uint64     `json:"artist_id" bson:"artist_id"`
	Name                  ArtistName `json:"name" bson:"name"`
	IsCommonArtist        bool       `json:"is_common_artist" bson:"is_common_artist"`
	IsArtistPageAvailable bool       `json:"is_artist_page_available" bson:"is_artist_page_available"`
	ArtistPagePath        string     `json:"artist_page_path" bson:"artist_page_path"`
	CommonArtistID        *uint64    `json:"common_artist_id" bson:"common_artist_id"`
}

// Song is a single community song entry of the catalog.
// ID is the natural key: unique across the catalog and stable between requests.
// Everything else is payload that the collection pipeline never inspects.
type Song struct {
	ID                     uint64     `json:"id" bson:"id"`
	Index                  int        `json:"index" bson:"index"`
	AudioURL               *string    `json:"audio_url" bson:"audio_url"`
	YoutubeArtTrackURL     *string    `json:"youtube_art_track_url" bson:"youtube_art_track_url"`
	LinkcoreURL            string     `json:"linkcore_url" bson:"linkcore_url"`
	BPM                    float32    `json:"bpm" bson:"bpm"`
	Duration               float32    `json:"duration" bson:"duration"`
	GenreIDs               []uint16   `json:"genre_id" bson:"genre_id"`
	MoodID                 uint16     `json:"mood_id" bson:"mood_id"`
	JacketURL              string     `json:"jacket_url" bson:"jacket_url"`
	StreetDate             string     `json:"street_date" bson:"street_date"`
	SongTitle              SongTitle  `json:"song_title" bson:"song_title"`
	ArtistName             ArtistName `json:"artist_name" bson:"artist_name"`
	Artists                []Artist   `json:"artists" bson:"artists"`
	ChannelSharePercentStr string     `json:"channel_share_percent_str" bson:"channel_share_percent_str"`
	IsFavorite             bool       `json:"is_favorite" bson:"is_favorite"`
}

// DisplayTitle returns the English title when present, the Japanese one otherwise.
func (s Song) DisplayTitle() string {
	if s.SongTitle.En != nil && *s.SongTitle.En != "" {
		return *s.SongTitle.En
	}
	return s.SongTitle.Ja
}

// DisplayArtist returns the English artist name when present, the Japanese one otherwise.
func (s Song) DisplayArtist() string {
	if s.ArtistName.En != "" {
		return s.ArtistName.En
	}
	return s.ArtistName.Ja
}

// Page is the decoded envelope of one songs request.
type Page struct {
	// Songs in the order the API returned them
	Songs []Song `json:"community_songs"`

	// Total number of songs matching the query across all pages.
	// Only authoritative on the first page of a collection run.
	Total int `json:"total"`
}
