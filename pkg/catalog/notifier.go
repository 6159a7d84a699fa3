package catalog

import "context"

// Notifier asks the catalog to re-crawl published artifacts. StartCrawler
// returns once the request is accepted; it never waits for the crawl.
type Notifier interface {
	StartCrawler(ctx context.Context, name string) error
}
