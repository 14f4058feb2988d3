package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./collections.db"
)

// Reserved collection names. Overridable via COLLECTION_*_NAME so that
// renaming a collection in the database does not silently change behaviour.
const (
	DefaultLikedCollectionName  = "Liked Companies List"
	DefaultMyListCollectionName = "My List"
	DefaultIgnoreCollectionName = "Companies to Ignore List"
)
