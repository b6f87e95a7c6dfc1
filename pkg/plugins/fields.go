package plugins

// Store column names of the Plugins table.
const (
	FieldRowID           = "_id"
	FieldID              = "ID"
	FieldName            = "Name"
	FieldDescription     = "Description"
	FieldGithubLink      = "Github Link"
	FieldAuthor          = "Author"
	FieldFundingURL      = "Funding URL"
	FieldMobileFriendly  = "Mobile friendly"
	FieldLastCommitDate  = "Last Commit Date"
	FieldETag            = "ETAG"
	FieldStatus          = "Status"
	FieldError           = "Error"
	FieldPluginAvailable = "Plugin Available"
	FieldCategories      = "Auto-Suggested Categories"
)

// Columns of the "Keywords to Category" table.
const (
	FieldKeyword        = "Keyword"
	FieldCategoryRecord = "Category Record"
)
