package cdli

// SearchResponse ist eine Seite der CDLI-Publikations-API.
type SearchResponse struct {
	Results []PublicationEntry `json:"results"`
	Page    int                `json:"page"`
	Pages   int                `json:"pages"`
}

// PublicationEntry ist ein Publikationseintrag des CDLI-Katalogs.
type PublicationEntry struct {
	ID          int    `json:"id"`
	Designation string `json:"designation"`
	BibtexKey   string `json:"bibtexkey"`
	Title       string `json:"title"`
	Year        string `json:"year"`
	DOI         string `json:"doi"`
	Series      string `json:"series"`
	Volume      string `json:"number"`
	Authors     []struct {
		Author string `json:"author"`
	} `json:"authors"`
	ArtifactLinks []ArtifactLink `json:"artifacts"`
}

// ArtifactLink verknüpft den Eintrag mit einem Artefakt samt Editionsart.
type ArtifactLink struct {
	ArtifactID      int    `json:"artifact_id"`
	PublicationType string `json:"publication_type"` // z.B. "primary", "citation", "photo"
}
