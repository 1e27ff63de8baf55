package music

// ResultResponse is the body of a search
type ResultResponse struct {
	Count   int     `json:"resultCount"`
	Results []Track `json:"results"`
}

// Track is a single search hit
type Track struct {
	ArtistID   int    `json:"artistId"`
	TrackID    int    `json:"trackId"`
	Kind       string `json:"kind"`
	Artist     string `json:"artistName"`
	Collection string `json:"collectionName"`
	TrackName  string `json:"trackName"`
}
