package library

// Catalog is the asset catalog as consumed by the editor and transports.
type Catalog interface {
	UpsertAsset(a AssetRow) error
	DeleteAsset(path string) error
	GetAsset(id string) (*AssetRow, error)
	FindByName(name string) (*AssetRow, error)
	ListAssets(kind string, limit, offset int) ([]AssetRow, int, error)
	Search(query string, limit int) ([]AssetRow, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ Catalog = (*DB)(nil)
