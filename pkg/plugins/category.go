package plugins

// CategoryRef references a row of the Categories table.
type CategoryRef struct {
	RowID        string `json:"row_id" yaml:"row_id"`
	DisplayValue string `json:"display_value" yaml:"display_value"`
}

// Keyword maps a free-text keyword to the categories it suggests.
type Keyword struct {
	Keyword    string        `json:"Keyword" yaml:"keyword"`
	Categories []CategoryRef `json:"Category Record" yaml:"categories"`
}
