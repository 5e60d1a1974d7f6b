package confluence

// Wire types for the Confluence REST API. Only the fields the publisher
// needs are mapped.

// contentVersion is the version counter of a piece of content.
type contentVersion struct {
	Number int `json:"number"`
}

// storageBody is the storage-format representation of page content.
type storageBody struct {
	Value          string `json:"value"`
	Representation string `json:"representation,omitempty"`
}

// contentBody wraps the storage body of a page.
type contentBody struct {
	Storage storageBody `json:"storage"`
}

// contentSpace references the space a page lives in.
type contentSpace struct {
	Key string `json:"key"`
}

// contentAncestor references a direct or transitive parent of a page.
type contentAncestor struct {
	ID string `json:"id"`
}

// content is a page or attachment as returned by the content API.
type content struct {
	ID        string            `json:"id,omitempty"`
	Type      string            `json:"type,omitempty"`
	Title     string            `json:"title,omitempty"`
	Space     *contentSpace     `json:"space,omitempty"`
	Ancestors []contentAncestor `json:"ancestors,omitempty"`
	Body      *contentBody      `json:"body,omitempty"`
	Version   *contentVersion   `json:"version,omitempty"`
	Links     map[string]string `json:"_links,omitempty"`
}

// contentList is a paginated listing of content items.
type contentList struct {
	Results []content `json:"results"`
	Size    int       `json:"size"`
	Limit   int       `json:"limit"`
	Start   int       `json:"start"`
}

// contentProperty is an opaque key/value property stored on a page.
type contentProperty struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
