package cache

import "ixdb/internal/page"

// Key addresses one page uniquely across every open resource.
type Key struct {
	Resource page.ResourceID
	Page     page.Number
}
